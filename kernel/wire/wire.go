// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package wire is the default wire-frame serializer/deserializer
// spec.md §1 treats as an external collaborator: it turns a kernel
// Message into the bytes carried by one websocket frame, and back.
// It is deliberately independent of package kernel so the codec can
// be swapped without touching session logic.
package wire

import (
	"fmt"

	"github.com/segmentio/encoding/json"

	"github.com/jupyter-go/kernelclient/internal/strictjson"
)

// Header mirrors kernel.Header without importing package kernel, to
// keep this package a leaf the kernel package depends on rather than
// the reverse.
type Header struct {
	Username string `json:"username"`
	Version  string `json:"version"`
	Session  string `json:"session"`
	MsgID    string `json:"msg_id"`
	MsgType  string `json:"msg_type"`
}

// Frame is the JSON shape of one wire message.
type Frame struct {
	Header       Header         `json:"header"`
	ParentHeader Header         `json:"parent_header"`
	Channel      string         `json:"channel"`
	Content      map[string]any `json:"content"`
	Metadata     map[string]any `json:"metadata"`
	Buffers      [][]byte       `json:"buffers,omitempty"`
}

// Codec encodes and decodes Frames using segmentio/encoding's
// drop-in faster encoding/json replacement, the same JSON library the
// teacher SDK depends on for its own protocol traffic.
type Codec struct{}

// Encode marshals f to its wire representation.
func (Codec) Encode(f *Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("wire: encode: %w", err)
	}
	return data, nil
}

// Decode unmarshals a wire frame. It guards against field-name
// case-smuggling and duplicate case-variant keys
// (strictjson.StrictUnmarshal) and rejects unknown top-level fields,
// so a malformed or future-versioned frame is caught here rather than
// silently losing data.
func (Codec) Decode(data []byte) (*Frame, error) {
	var f Frame
	if err := strictjson.StrictUnmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("wire: decode: %w", err)
	}
	return &f, nil
}
