// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import "testing"

func TestStatusIsReady(t *testing.T) {
	ready := map[Status]bool{
		StatusUnknown:      false,
		StatusStarting:     true,
		StatusIdle:         true,
		StatusBusy:         true,
		StatusRestarting:   false,
		StatusReconnecting: false,
		StatusDead:         false,
	}
	for status, want := range ready {
		if got := status.IsReady(); got != want {
			t.Errorf("%s.IsReady() = %v, want %v", status, got, want)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	if StatusIdle.IsTerminal() {
		t.Error("idle should not be terminal")
	}
	if !StatusDead.IsTerminal() {
		t.Error("dead should be terminal")
	}
}

func TestStatusFromExecutionState(t *testing.T) {
	cases := []struct {
		state string
		want  Status
		ok    bool
	}{
		{"idle", StatusIdle, true},
		{"busy", StatusBusy, true},
		{"starting", StatusStarting, true},
		{"restarting", StatusRestarting, true},
		{"dead", StatusDead, true},
		{"reconnecting", "", false}, // client-only status, never sent by a kernel
		{"bogus", "", false},
	}
	for _, c := range cases {
		got, ok := statusFromExecutionState(c.state)
		if ok != c.ok || got != c.want {
			t.Errorf("statusFromExecutionState(%q) = (%q, %v), want (%q, %v)", c.state, got, ok, c.want, c.ok)
		}
	}
}
