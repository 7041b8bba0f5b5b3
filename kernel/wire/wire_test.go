// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCodecRoundTrip(t *testing.T) {
	var codec Codec
	f := &Frame{
		Header:       Header{Username: "u", Version: "5.0", Session: "s1", MsgID: "m1", MsgType: "execute_request"},
		ParentHeader: Header{},
		Channel:      "shell",
		Content:      map[string]any{"code": "1+1"},
		Metadata:     map[string]any{},
	}
	data, err := codec.Encode(f)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := codec.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCodecDecodeRejectsDuplicateCaseVariantKeys(t *testing.T) {
	var codec Codec
	_, err := codec.Decode([]byte(`{"channel":"shell","Channel":"iopub","header":{},"parent_header":{},"content":{}}`))
	if err == nil {
		t.Fatal("Decode() accepted duplicate case-variant keys")
	}
}

func TestCodecDecodeRejectsUnknownTopLevelField(t *testing.T) {
	var codec Codec
	_, err := codec.Decode([]byte(`{"channel":"shell","header":{},"parent_header":{},"content":{},"bogus":1}`))
	if err == nil {
		t.Fatal("Decode() accepted an unknown top-level field")
	}
}
