// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import (
	"context"
	"log/slog"
	"net/http"
)

// defaultReconnectLimit is the number of consecutive reconnect
// failures tolerated before a Session transitions to StatusDead, per
// spec.md §4.4.
const defaultReconnectLimit = 7

// ManagerOptions configures a Manager. A nil ManagerOptions, or any
// zero-valued field, gets the documented default.
type ManagerOptions struct {
	// BaseURL is the REST base URL, e.g. "http://localhost:8888/".
	BaseURL string
	// WSURL is the websocket base URL, e.g. "ws://localhost:8888/". If
	// empty, it is derived from BaseURL by swapping the scheme.
	WSURL string
	// Username stamped into every outbound message header.
	Username string
	// Header carries additional request headers (e.g. auth tokens) for
	// both REST calls and the websocket handshake; spec.md's Non-goals
	// exclude auth beyond this.
	Header http.Header
	// HTTPClient is used for REST calls. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Logger receives structured log records for the "log and
	// continue" paths of spec.md §7. Defaults to slog.Default().
	Logger *slog.Logger
	// IDGen generates message, client, and comm ids. Defaults to
	// UUIDGenerator.
	IDGen IDGenerator
	// URLBuilder constructs REST and websocket URLs. Defaults to
	// TemplateURLBuilder.
	URLBuilder URLBuilder
	// Serializer encodes/decodes wire frames. Defaults to
	// NewWireSerializer().
	Serializer Serializer
	// MessageValidator validates inbound frames. Defaults to
	// NewSchemaValidator().
	MessageValidator MessageValidator
	// SpecValidator validates REST kernel/kernelspec payloads. Defaults
	// to NewSchemaValidator().
	SpecValidator SpecValidator
	// ReconnectLimit is the number of consecutive reconnect attempts
	// tolerated before a Session is declared dead. Defaults to 7.
	ReconnectLimit int
	// Registry is the process-wide live-session registry. Defaults to
	// a fresh Registry private to this Manager.
	Registry *Registry
	// Dial opens a websocket Connection. Defaults to DialWebSocket.
	Dial func(ctx context.Context, url string, header http.Header) (Connection, error)
}

func (o *ManagerOptions) withDefaults() *ManagerOptions {
	out := *o
	if out.Username == "" {
		out.Username = "username"
	}
	if out.HTTPClient == nil {
		out.HTTPClient = http.DefaultClient
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.IDGen == nil {
		out.IDGen = UUIDGenerator{}
	}
	if out.URLBuilder == nil {
		out.URLBuilder = TemplateURLBuilder{}
	}
	if out.Serializer == nil {
		out.Serializer = NewWireSerializer()
	}
	if out.MessageValidator == nil {
		out.MessageValidator = NewSchemaValidator()
	}
	if out.SpecValidator == nil {
		out.SpecValidator = NewSchemaValidator()
	}
	if out.ReconnectLimit == 0 {
		out.ReconnectLimit = defaultReconnectLimit
	}
	if out.Registry == nil {
		out.Registry = NewRegistry()
	}
	if out.Dial == nil {
		out.Dial = DialWebSocket
	}
	if out.WSURL == "" {
		out.WSURL = deriveWSURL(out.BaseURL)
	}
	return &out
}
