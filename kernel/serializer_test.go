// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWireSerializerRoundTrip(t *testing.T) {
	s := NewWireSerializer()
	msg := &Message{
		Header:       Header{Username: "u", Version: protocolVersion, Session: "s1", MsgID: "m1", MsgType: "execute_request"},
		ParentHeader: Header{},
		Channel:      ChannelShell,
		Content:      map[string]any{"code": "1+1"},
		Metadata:     map[string]any{},
	}
	data, err := s.Encode(msg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := s.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(msg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
