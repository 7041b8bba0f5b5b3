// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

// IOPubHook is a predicate run over every iopub message delivered to
// a Future before the narrower onIOPub callback runs. Returning false
// suppresses delivery (and every hook below it in the stack) for that
// message. A hook that panics is recovered, logged, and treated as if
// it had returned true.
type IOPubHook func(*Message) bool

// hookEntry pairs a hook with the sequence number its HookHandle
// carries, so Remove can find it without comparing func values.
type hookEntry struct {
	id uint64
	fn IOPubHook // nil once removed while still pending
}

// hookStack is a LIFO stack of IOPubHooks with the deferred-mutation
// semantics of spec.md §4.2: hooks registered mid-dispatch are queued
// until the next message; hooks removed mid-dispatch stop running
// immediately but the backing slice is only compacted afterward. Each
// Future owns exactly one, and it is only ever touched from the owning
// Session's loop goroutine.
type hookStack struct {
	hooks       []hookEntry // most recently added is hooks[len(hooks)-1]
	pendingAdds []hookEntry
	removed     map[int]bool
	iterating   bool
	seq         uint64
}

// HookHandle identifies a previously registered IOPub hook so it can
// be removed without relying on function-value comparison (Go only
// permits comparing func values against nil).
type HookHandle struct {
	stack *hookStack
	gen   uint64 // identifies the hook even after pendingAdds is flushed
}

// RegisterHook pushes hook onto the top of the stack; it runs before
// any previously registered hook for subsequent messages. If called
// while a message is being dispatched, the hook is deferred to the
// next message per spec.md §4.2.
func (s *hookStack) RegisterHook(hook IOPubHook) HookHandle {
	s.seq++
	id := s.seq
	entry := hookEntry{id: id, fn: hook}
	if s.iterating {
		s.pendingAdds = append(s.pendingAdds, entry)
	} else {
		s.hooks = append(s.hooks, entry)
	}
	return HookHandle{stack: s, gen: id}
}

// Remove deactivates the hook identified by h. If called while that
// hook's message is still being dispatched, it will not run for any
// hook beneath it that has not already run in this dispatch.
func (h HookHandle) Remove() {
	if h.stack == nil {
		return
	}
	s := h.stack
	for i := range s.pendingAdds {
		if s.pendingAdds[i].id == h.gen {
			s.pendingAdds[i].fn = nil
			return
		}
	}
	for i, e := range s.hooks {
		if e.id == h.gen {
			if s.iterating {
				if s.removed == nil {
					s.removed = make(map[int]bool)
				}
				s.removed[i] = true
			} else {
				s.hooks = append(s.hooks[:i], s.hooks[i+1:]...)
			}
			return
		}
	}
}

// flushPendingHooks moves hooks registered during the last dispatch
// into the live stack; run once per inbound message before dispatch.
func (s *hookStack) flushPendingHooks() {
	if len(s.pendingAdds) == 0 {
		return
	}
	for _, e := range s.pendingAdds {
		if e.fn != nil {
			s.hooks = append(s.hooks, e)
		}
	}
	s.pendingAdds = nil
}

// run runs the hook stack most-recently-registered first, returning
// false if any hook suppressed delivery.
func (s *hookStack) run(m *Message, logf func(string, ...any)) (deliver bool) {
	s.flushPendingHooks()
	s.iterating = true
	defer func() {
		s.iterating = false
		if len(s.removed) > 0 {
			kept := s.hooks[:0:0]
			for i, e := range s.hooks {
				if !s.removed[i] {
					kept = append(kept, e)
				}
			}
			s.hooks = kept
			s.removed = nil
		}
	}()
	for i := len(s.hooks) - 1; i >= 0; i-- {
		if s.removed[i] {
			continue
		}
		ok, ranCleanly := runHookSafely(s.hooks[i].fn, m, logf)
		if !ranCleanly {
			continue
		}
		if !ok {
			return false
		}
	}
	return true
}

func runHookSafely(hook IOPubHook, m *Message, logf func(string, ...any)) (result, ranCleanly bool) {
	defer func() {
		if r := recover(); r != nil {
			if logf != nil {
				logf("iopub hook panicked, continuing with next hook: %v", r)
			}
			result, ranCleanly = true, false
		}
	}()
	return hook(m), true
}

// Future tracks one outstanding shell request through its shell reply
// and its terminating idle status, per spec.md §4.2. A Future is
// owned by exactly one Session and is only ever mutated from that
// Session's loop goroutine.
type Future struct {
	parent        *Message
	expectReply   bool
	disposeOnDone bool
	unregister    func()

	gotReply bool
	gotIdle  bool
	isDone   bool

	onReply func(*Message)
	onIOPub func(*Message)
	onStdin func(*Message)
	onDone  func()

	hooks hookStack
}

// newFuture constructs a Future for the given outbound message.
// unregister is called exactly once, from dispose, and is expected to
// remove the Future from its owning Session's map.
func newFuture(parent *Message, expectReply, disposeOnDone bool, unregister func()) *Future {
	return &Future{
		parent:        parent,
		expectReply:   expectReply,
		disposeOnDone: disposeOnDone,
		unregister:    unregister,
		gotReply:      !expectReply,
	}
}

// Msg returns the outbound message this Future tracks.
func (f *Future) Msg() *Message { return f.parent }

// OnReply sets the callback invoked when the shell reply arrives.
func (f *Future) OnReply(cb func(*Message)) { f.onReply = cb }

// OnIOPub sets the callback invoked for iopub messages not suppressed
// by the hook stack.
func (f *Future) OnIOPub(cb func(*Message)) { f.onIOPub = cb }

// OnStdin sets the callback invoked for stdin-channel messages.
func (f *Future) OnStdin(cb func(*Message)) { f.onStdin = cb }

// OnDone sets the callback invoked exactly once when the Future
// reaches its done state.
func (f *Future) OnDone(cb func()) { f.onDone = cb }

// IsDone reports whether this Future has completed.
func (f *Future) IsDone() bool { return f.isDone }

// RegisterHook pushes an IOPub hook scoped to this Future's replies.
func (f *Future) RegisterHook(hook IOPubHook) HookHandle {
	return f.hooks.RegisterHook(hook)
}

// handleShellReply runs on a shell-channel message whose parent
// msg_id matches this Future.
func (f *Future) handleShellReply(m *Message) (done bool) {
	if f.onReply != nil {
		f.onReply(m)
	}
	f.gotReply = true
	return f.gotIdle
}

// handleStdin runs on a stdin-channel message matching this Future.
func (f *Future) handleStdin(m *Message) {
	if f.onStdin != nil {
		f.onStdin(m)
	}
}

// handleIOPub runs on an iopub message matching this Future, after
// the hook stack has been consulted. It returns whether the Future
// should transition to done.
func (f *Future) handleIOPub(m *Message, suppressed bool) (done bool) {
	if !suppressed && f.onIOPub != nil {
		f.onIOPub(m)
	}
	if state, ok := m.IsStatus(); ok && state == "idle" {
		f.gotIdle = true
	}
	return f.gotIdle && f.gotReply
}

// finish transitions the Future to done if it is not already there,
// invoking onDone exactly once and disposing if disposeOnDone.
func (f *Future) finish() {
	if f.isDone {
		return
	}
	f.isDone = true
	cb := f.onDone
	f.onDone = nil
	if cb != nil {
		cb()
	}
	if f.disposeOnDone {
		f.dispose()
	}
}

// dispose clears all callbacks and the hook stack and unregisters the
// Future from its owning Session. Idempotent.
func (f *Future) dispose() {
	if f.unregister == nil {
		return
	}
	f.onReply, f.onIOPub, f.onStdin, f.onDone = nil, nil, nil, nil
	f.hooks = hookStack{}
	unreg := f.unregister
	f.unregister = nil
	unreg()
}
