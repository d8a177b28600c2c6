// SPDX-License-Identifier: MPL-2.0

// Package exitcode defines the process exit code contract shared by every
// phase of the lattice pipeline, plus the Notification control signal that
// inner phases raise to request a process exit without calling os.Exit
// themselves. The dispatcher in cmd/lattice is the single point of
// process-exit authority.
package exitcode

import "fmt"

// Code is a process exit code.
type Code int

const (
	// Success indicates a clean exit.
	Success Code = 0
	// UserError indicates a user or validation error (bad config, unknown
	// module, invalid arguments).
	UserError Code = 1
	// InternalError indicates an unclassified failure inside lattice itself.
	InternalError Code = 2
	// Restart is the reserved code signaling "dependencies were installed,
	// re-execute me". The wrapper in cmd/lattice re-invokes the binary when
	// it sees this code, bounded by MaxRestarts.
	Restart Code = 42
)

// MaxRestarts is the ceiling on consecutive install/restart cycles for one
// invocation chain. Past this, a restart request becomes a fatal error so a
// dependency that "installs" but never resolves cannot loop forever.
const MaxRestarts = 3

// Reason describes why a Notification was raised.
type Reason string

// ReasonRestartRequired means dependencies were installed and a clean
// re-execution is needed before modules can be loaded. It is the only reason
// this core raises itself: interrupts and argument validation are handled at
// the CLI boundary and never travel through a Notification.
const ReasonRestartRequired Reason = "restart-required"

// Notification is a control-flow signal, not a failure. It implements error
// so it can unwind through ordinary error returns untouched; only the
// outermost dispatcher may catch it (via errors.As) and map it to a process
// exit code. Intermediate frames must propagate it unmodified.
type Notification struct {
	Code   Code
	Reason Reason
}

// Error implements the error interface.
func (n *Notification) Error() string {
	return fmt.Sprintf("exit requested: code %d (%s)", n.Code, n.Reason)
}

// NewRestart returns the Notification raised after a successful dependency
// install pass.
func NewRestart() *Notification {
	return &Notification{Code: Restart, Reason: ReasonRestartRequired}
}
