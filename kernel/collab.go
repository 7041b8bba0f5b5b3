// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file declares the narrow interfaces spec.md §1 treats as
// external collaborators: the wire serializer, URL construction,
// message/spec schema validation, the ambient UUID generator, and the
// status/stray-message event emitter. Each has a default
// implementation elsewhere in the package. Callers may substitute
// their own for all but the event emitter, which every Session
// constructs for itself.

package kernel

import "context"

// IDGenerator produces the identifiers spec.md requires to be unique
// within a session's lifetime: message ids, client (session) ids, and
// comm ids chosen by the client.
type IDGenerator interface {
	NewMsgID() string
	NewClientID() string
	NewCommID() string
}

// URLBuilder constructs the REST and websocket URLs of spec.md §6 from
// a base URL and path parameters, percent-encoding any user-supplied
// segment.
type URLBuilder interface {
	// RESTPath joins baseURL with the given api path, e.g.
	// "api/kernels/{id}", expanding named parameters.
	RESTPath(baseURL, path string, params map[string]string) (string, error)
	// WebSocketURL returns the channels URL for a kernel session:
	// <wsUrl>/api/kernels/<id>/channels?session_id=<clientId>.
	WebSocketURL(wsURL, kernelID, clientID string) (string, error)
}

// MessageValidator validates inbound kernel messages against the
// message schema. A failure is logged and the frame dropped per
// spec.md §7 (SerializationError); it never surfaces to callers.
type MessageValidator interface {
	ValidateMessage(raw []byte) error
}

// SpecValidator validates REST kernelspec and kernel-model payloads.
type SpecValidator interface {
	ValidateKernelSpec(raw []byte) error
	ValidateKernelModel(raw []byte) error
}

// EventEmitter publishes the Session-level events of spec.md §4.4:
// status changes, unhandled ("orphaned") messages, and raw iopub
// traffic. Handlers run synchronously on the Session's loop goroutine
// and must not block.
type EventEmitter interface {
	OnStatusChanged(func(Status))
	OnUnhandledMessage(func(*Message))
	OnIOPubMessage(func(*Message))
	EmitStatusChanged(Status)
	EmitUnhandledMessage(*Message)
	EmitIOPubMessage(*Message)
	// Clear drops all registered handlers; called on dispose.
	Clear()
}

// Connection is a single open duplex transport carrying whole
// protocol messages as opaque byte frames, one frame per message,
// never streamed. DialWebSocket (websocket.go) opens the default
// implementation.
type Connection interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Serializer is the wire-frame codec spec.md §1 calls out as an
// external collaborator: it turns a Message into the bytes carried by
// a Connection frame and back.
type Serializer interface {
	Encode(*Message) ([]byte, error)
	Decode([]byte) (*Message, error)
}
