// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package installer

// installLock is a no-op on platforms without flock. Concurrent invocations
// racing on the shared store remain an open risk there.
type installLock struct{}

func acquireInstallLock(homeDir string) (*installLock, error) {
	return &installLock{}, nil
}

// Release is a no-op.
func (l *installLock) Release() {}
