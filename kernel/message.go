// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

// Channel identifies one of the four logical multiplexes carried over
// a kernel's single websocket.
type Channel string

const (
	ChannelShell   Channel = "shell"
	ChannelIOPub   Channel = "iopub"
	ChannelStdin   Channel = "stdin"
	ChannelControl Channel = "control"
)

// protocolVersion is the Jupyter messaging protocol version this
// client speaks, populated into every outbound Header.
const protocolVersion = "5.0"

// Header carries the envelope fields common to every message.
type Header struct {
	Username string `json:"username"`
	Version  string `json:"version"`
	Session  string `json:"session"`
	MsgID    string `json:"msg_id"`
	MsgType  string `json:"msg_type"`
}

// Message is a single Jupyter protocol message, the unit of exchange
// on every channel. A websocket frame decodes to exactly one Message.
type Message struct {
	Header       Header         `json:"header"`
	ParentHeader Header         `json:"parent_header"`
	Channel      Channel        `json:"channel"`
	Content      map[string]any `json:"content"`
	Metadata     map[string]any `json:"metadata"`
	Buffers      [][]byte       `json:"buffers,omitempty"`
}

// IsStatus reports whether m is an iopub status message, and if so
// returns its execution_state.
func (m *Message) IsStatus() (state string, ok bool) {
	if m.Header.MsgType != "status" {
		return "", false
	}
	s, ok := m.Content["execution_state"].(string)
	return s, ok
}

// MessageFactory produces well-formed protocol messages with header
// fields populated. It performs no I/O.
type MessageFactory struct {
	Username string
	Session  string
	IDGen    IDGenerator
}

// NewMessageFactory returns a factory that stamps every message with
// the given username and session (clientId), generating msg_ids from
// idgen.
func NewMessageFactory(username, session string, idgen IDGenerator) *MessageFactory {
	return &MessageFactory{Username: username, Session: session, IDGen: idgen}
}

// MessageOptions customizes a single message produced by Make.
type MessageOptions struct {
	MsgID    string // if empty, generated
	Content  map[string]any
	Metadata map[string]any
	Buffers  [][]byte
}

// Make constructs a Message of the given type on the given channel.
// If opts.MsgID is empty, a fresh one is generated. ParentHeader is
// always empty; callers that need a reply-to-reply chain set it
// explicitly on the returned Message.
func (f *MessageFactory) Make(msgType string, channel Channel, opts MessageOptions) *Message {
	id := opts.MsgID
	if id == "" {
		id = f.IDGen.NewMsgID()
	}
	content := opts.Content
	if content == nil {
		content = map[string]any{}
	}
	metadata := opts.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Message{
		Header: Header{
			Username: f.Username,
			Version:  protocolVersion,
			Session:  f.Session,
			MsgID:    id,
			MsgType:  msgType,
		},
		ParentHeader: Header{},
		Channel:      channel,
		Content:      content,
		Metadata:     metadata,
		Buffers:      opts.Buffers,
	}
}
