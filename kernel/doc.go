// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package kernel implements the client side of a Jupyter-style kernel
// messaging protocol: REST operations to enumerate kernel specs and to
// start, find, interrupt, restart and shut down kernels, and a single
// websocket-framed [Session] multiplexing the shell, iopub, stdin and
// control channels of a running kernel.
//
// The hard parts live in three types. [Session] owns the websocket
// lifecycle (connect, dispatch, reconnect, dispose) and the outbound
// queue. [Future] tracks one outstanding shell request through its
// reply and its terminating idle status. [Comm] multiplexes long-lived
// logical channels between the kernel and client-registered targets
// over the same websocket.
//
// The REST transport is built directly on net/http. URL construction,
// wire framing, message schema validation and ID generation are
// narrow collaborator interfaces (see collab.go) with default
// implementations backed by uritemplate, segmentio/encoding,
// jsonschema-go and google/uuid respectively; callers may substitute
// their own.
package kernel
