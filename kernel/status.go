// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

// Status is the coarse kernel lifecycle state shared between
// transport and compute concerns, per spec.md §3.
type Status string

const (
	StatusUnknown      Status = "unknown"
	StatusStarting     Status = "starting"
	StatusIdle         Status = "idle"
	StatusBusy         Status = "busy"
	StatusRestarting   Status = "restarting"
	StatusReconnecting Status = "reconnecting"
	StatusDead         Status = "dead"
)

// IsReady classifies statuses as ready or not: {starting, idle, busy}
// are ready; {unknown, restarting, reconnecting, dead} are not.
// Session does not consult it: its outbound queue drains on a
// separate ready flag tied to the connection (see routeIOPubLocked).
func (s Status) IsReady() bool {
	switch s {
	case StatusStarting, StatusIdle, StatusBusy:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether s is the dead status, which never
// transitions further.
func (s Status) IsTerminal() bool { return s == StatusDead }

// statusFromExecutionState maps an iopub status message's
// execution_state field to a Status. The second result is false for
// unrecognized values, which callers must log and ignore rather than
// transition on (spec.md §4.4).
func statusFromExecutionState(state string) (Status, bool) {
	switch Status(state) {
	case StatusStarting, StatusIdle, StatusBusy, StatusRestarting, StatusDead:
		return Status(state), true
	default:
		return "", false
	}
}
