// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import "errors"

// Sentinel errors identifying the error kinds of spec §7. Wrap these
// with fmt.Errorf("...: %w", ErrX) for context; callers should match
// with errors.Is.
var (
	// ErrKernelDead is returned by operations attempted on a session
	// whose status has reached the terminal "dead" state.
	ErrKernelDead = errors.New("kernel: session is dead")

	// ErrNoSuchKernel is returned when a REST lookup finds no kernel
	// with the requested id.
	ErrNoSuchKernel = errors.New("kernel: no such kernel")

	// ErrBadStatus is returned when a REST response's status code does
	// not match the expected code for that operation.
	ErrBadStatus = errors.New("kernel: unexpected HTTP status")

	// ErrInvalidResponse is returned when a REST or websocket payload
	// fails schema validation.
	ErrInvalidResponse = errors.New("kernel: invalid response")

	// ErrNoSuchSpec is returned when a kernelspec lookup finds no spec
	// with the requested name, and no lenient fallback applies.
	ErrNoSuchSpec = errors.New("kernel: no such kernelspec")

	// ErrCommDisposed identifies a disposed Comm. Comm's Open, Send and
	// Close do not return it: on a disposed Comm they are no-ops, and
	// Open and Send return a nil Future.
	ErrCommDisposed = errors.New("kernel: comm is disposed")
)
