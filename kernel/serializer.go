// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import "github.com/jupyter-go/kernelclient/kernel/wire"

// WireSerializer is the default Serializer, delegating the byte-level
// encoding to package wire.
type WireSerializer struct {
	codec wire.Codec
}

var _ Serializer = WireSerializer{}

func NewWireSerializer() WireSerializer { return WireSerializer{} }

func (s WireSerializer) Encode(m *Message) ([]byte, error) {
	return s.codec.Encode(&wire.Frame{
		Header:       wire.Header(m.Header),
		ParentHeader: wire.Header(m.ParentHeader),
		Channel:      string(m.Channel),
		Content:      m.Content,
		Metadata:     m.Metadata,
		Buffers:      m.Buffers,
	})
}

func (s WireSerializer) Decode(data []byte) (*Message, error) {
	f, err := s.codec.Decode(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Header:       Header(f.Header),
		ParentHeader: Header(f.ParentHeader),
		Channel:      Channel(f.Channel),
		Content:      f.Content,
		Metadata:     f.Metadata,
		Buffers:      f.Buffers,
	}, nil
}
