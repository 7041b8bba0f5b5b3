// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import "testing"

func TestFutureDoneOnReplyThenIdle(t *testing.T) {
	unregistered := false
	f := newFuture(&Message{}, true, false, func() { unregistered = true })

	var replies, dones int
	f.OnReply(func(*Message) { replies++ })
	f.OnDone(func() { dones++ })

	if f.IsDone() {
		t.Fatal("IsDone() = true before reply or idle")
	}
	if done := f.handleShellReply(&Message{}); done {
		t.Fatal("handleShellReply reported done before idle")
	}
	if done := f.handleIOPub(&Message{Header: Header{MsgType: "status"}, Content: map[string]any{"execution_state": "idle"}}, false); !done {
		t.Fatal("handleIOPub after reply+idle reported not done")
	}
	f.finish()

	if replies != 1 {
		t.Errorf("replies = %d, want 1", replies)
	}
	if dones != 1 {
		t.Errorf("dones = %d, want 1", dones)
	}
	if !f.IsDone() {
		t.Error("IsDone() = false after finish")
	}
	// unregister only fires via dispose, not finish, unless disposeOnDone.
	if unregistered {
		t.Error("unregister called without disposeOnDone")
	}
}

func TestFutureDoneOnIdleBeforeReply(t *testing.T) {
	f := newFuture(&Message{}, true, false, func() {})
	if done := f.handleIOPub(&Message{Header: Header{MsgType: "status"}, Content: map[string]any{"execution_state": "idle"}}, false); done {
		t.Fatal("handleIOPub reported done before reply arrived")
	}
	if done := f.handleShellReply(&Message{}); !done {
		t.Fatal("handleShellReply after idle reported not done")
	}
}

func TestFutureNoReplyExpectedCompletesOnIdleAlone(t *testing.T) {
	f := newFuture(&Message{}, false, false, func() {})
	if done := f.handleIOPub(&Message{Header: Header{MsgType: "status"}, Content: map[string]any{"execution_state": "idle"}}, false); !done {
		t.Fatal("handleIOPub with expectReply=false did not complete on idle alone")
	}
}

func TestFutureDisposeOnDoneUnregistersOnce(t *testing.T) {
	n := 0
	f := newFuture(&Message{}, false, true, func() { n++ })
	f.finish()
	f.finish()
	if n != 1 {
		t.Errorf("unregister called %d times, want 1", n)
	}
}

func TestFutureFinishInvokesOnDoneOnce(t *testing.T) {
	n := 0
	f := newFuture(&Message{}, false, false, func() {})
	f.OnDone(func() { n++ })
	f.finish()
	f.finish()
	if n != 1 {
		t.Errorf("onDone invoked %d times, want 1", n)
	}
}

func TestHookStackSuppressesDelivery(t *testing.T) {
	f := newFuture(&Message{}, false, false, func() {})
	var onIOPubCalls int
	f.OnIOPub(func(*Message) { onIOPubCalls++ })
	f.RegisterHook(func(*Message) bool { return false })

	deliver := f.hooks.run(&Message{}, nil)
	f.handleIOPub(&Message{}, !deliver)
	if onIOPubCalls != 0 {
		t.Errorf("onIOPub called %d times, want 0 (suppressed by hook)", onIOPubCalls)
	}
}

func TestHookStackRunsMostRecentFirst(t *testing.T) {
	f := newFuture(&Message{}, false, false, func() {})
	var order []int
	f.RegisterHook(func(*Message) bool { order = append(order, 1); return true })
	f.RegisterHook(func(*Message) bool { order = append(order, 2); return true })

	f.hooks.run(&Message{}, nil)
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("hook run order = %v, want [2 1]", order)
	}
}

func TestHookHandleRemoveDuringIterationDeactivatesImmediately(t *testing.T) {
	f := newFuture(&Message{}, false, false, func() {})
	var secondRan bool
	var handle HookHandle
	handle = f.RegisterHook(func(*Message) bool {
		handle.Remove()
		return true
	})
	f.RegisterHook(func(*Message) bool { secondRan = true; return true })

	f.hooks.run(&Message{}, nil)
	if !secondRan {
		t.Fatal("second hook should have run in the first dispatch")
	}
	secondRan = false
	f.hooks.run(&Message{}, nil)
	if !secondRan {
		t.Error("second hook should still run")
	}
	if len(f.hooks.hooks) != 1 {
		t.Errorf("hooks left = %d, want 1 (self-removed hook gone)", len(f.hooks.hooks))
	}
}

func TestHookRegisteredDuringIterationIsDeferred(t *testing.T) {
	f := newFuture(&Message{}, false, false, func() {})
	var added bool
	f.RegisterHook(func(*Message) bool {
		if !added {
			added = true
			f.RegisterHook(func(*Message) bool { return true })
		}
		return true
	})

	f.hooks.run(&Message{}, nil)
	if len(f.hooks.hooks) != 1 {
		t.Fatalf("hooks after first dispatch = %d, want 1 (new hook deferred)", len(f.hooks.hooks))
	}
	f.hooks.run(&Message{}, nil)
	if len(f.hooks.hooks) != 2 {
		t.Errorf("hooks after second dispatch = %d, want 2 (deferred hook now active)", len(f.hooks.hooks))
	}
}

func TestHookPanicRecoveredAndTreatedAsTrue(t *testing.T) {
	f := newFuture(&Message{}, false, false, func() {})
	f.RegisterHook(func(*Message) bool { panic("boom") })
	var logged string
	deliver := f.hooks.run(&Message{}, func(format string, args ...any) { logged = format })
	if !deliver {
		t.Error("panicking hook should be treated as returning true")
	}
	if logged == "" {
		t.Error("expected panic to be logged")
	}
}
