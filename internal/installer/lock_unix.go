// SPDX-License-Identifier: MPL-2.0

//go:build unix

package installer

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// lockFileName is the well-known lock file under the framework home. The
// zero-byte file is harmless if orphaned: the kernel drops the flock when
// the fd closes, including on process crash.
const lockFileName = "install.lock"

// installLock holds a blocking exclusive flock serializing the install step
// across concurrent lattice processes, so two invocations cannot race to
// install the same dependency set into the shared store.
type installLock struct {
	file *os.File
}

// acquireInstallLock opens (or creates) the lock file under homeDir and
// blocks until the exclusive flock is available.
func acquireInstallLock(homeDir string) (*installLock, error) {
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create framework home %s: %w", homeDir, err)
	}

	path := filepath.Join(homeDir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}

	return &installLock{file: f}, nil
}

// Release unlocks and closes the lock file. Safe to call more than once.
func (l *installLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	// LOCK_UN before Close for explicitness; Close also releases the flock.
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
