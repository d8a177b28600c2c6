// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"fmt"
	"os"
	"sync"
)

// Trace writes a diagnostic line to stderr when LATTICE_TRACE is set. The
// bootstrap and config phases run before the logger exists, so this is the
// only diagnostic channel they are allowed to use. It is synchronous and
// unbuffered on purpose: when the process exits mid-bootstrap there is no
// flush step to miss.
func Trace(format string, args ...any) {
	if !traceEnabled() {
		return
	}
	fmt.Fprintf(os.Stderr, "lattice: trace: "+format+"\n", args...)
}

var (
	traceOnce sync.Once
	traceOn   bool
)

func traceEnabled() bool {
	traceOnce.Do(func() {
		traceOn = os.Getenv("LATTICE_TRACE") != ""
	})
	return traceOn
}
