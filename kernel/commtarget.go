// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

// CommHandler resolves an inbound comm_open by target name. It
// receives the newly constructed Comm (already bound to the kernel's
// chosen comm_id) and the triggering message, and may do further
// asynchronous setup before returning; the Session treats any error
// as a reason to close the comm and log, mirroring spec.md §4.4's
// "if it throws, close the comm and re-raise into the error log".
//
// Handlers run on their own goroutine (spec.md §4.4 "await any
// returned promise"), not the Session's loop goroutine, so they may
// block; they must not call back into the Session synchronously from
// within the same call stack that registered them without expecting
// that call to be serialized behind the open completing.
type CommHandler func(comm *Comm, open *Message) error

// Deregister removes a previously registered callback (comm target or
// message hook). Calling it more than once is a no-op.
type Deregister func()
