// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import (
	"context"
	"fmt"
)

// enqueueOutboundLocked appends msg to the outbound queue. Must run on
// the loop goroutine.
func (s *Session) enqueueOutboundLocked(msg *Message) {
	s.outbound = append(s.outbound, msg)
}

// drainOutboundLocked flushes the outbound queue over the current
// connection while ready, per spec.md §4.4's "queue while not ready,
// drain FIFO once ready" behavior. Encode errors drop that one message
// and keep draining; a write error stops the drain and leaves the
// failed message at the head of the queue, followed by the rest, for
// the next drain. The drain itself does not start a reconnect.
func (s *Session) drainOutboundLocked() {
	if !s.ready || s.conn == nil {
		return
	}
	for len(s.outbound) > 0 {
		msg := s.outbound[0]
		data, err := s.serializer.Encode(msg)
		if err != nil {
			s.logger.Error("kernel: dropping outbound message that failed to encode", "msg_type", msg.Header.MsgType, "error", err)
			s.outbound = s.outbound[1:]
			continue
		}
		if err := s.conn.Write(context.Background(), data); err != nil {
			s.logger.Warn("kernel: outbound write failed, will retry after reconnect", "msg_type", msg.Header.MsgType, "error", err)
			return
		}
		s.outbound = s.outbound[1:]
	}
}

// sendLocked creates the reply/idle-tracking Future for msg, registers
// it if expectReply, queues msg for delivery, and tries to drain
// immediately. Must run on the loop goroutine.
func (s *Session) sendLocked(msg *Message, expectReply, disposeOnDone bool) *Future {
	msgID := msg.Header.MsgID
	assert(msgID != "", "sendLocked: message has no msg_id")
	f := newFuture(msg, expectReply, disposeOnDone, func() {
		if expectReply {
			delete(s.futures, msgID)
		}
	})
	if expectReply {
		s.futures[msgID] = f
	}
	s.enqueueOutboundLocked(msg)
	s.drainOutboundLocked()
	return f
}

// SendShellMessage submits msgType on the shell channel with content,
// returning a Future tracking its reply and idle status, per spec.md
// §4.2/§4.4. Unlike comm sends, it fails synchronously with
// ErrKernelDead once the session has torn itself down, per spec.md §7,
// rather than silently enqueuing into a queue nothing will ever drain.
func (s *Session) SendShellMessage(msgType string, content map[string]any, expectReply, disposeOnDone bool) (*Future, error) {
	if !s.alive.Load() {
		return nil, ErrKernelDead
	}
	var f *Future
	s.do(func() {
		msg := s.factory.Make(msgType, ChannelShell, MessageOptions{Content: content})
		f = s.sendLocked(msg, expectReply, disposeOnDone)
	})
	return f, nil
}

// SendInputReply answers a kernel stdin request (spec.md §4.4's stdin
// channel handling). It fails synchronously with ErrKernelDead for the
// same reason SendShellMessage does.
func (s *Session) SendInputReply(content map[string]any) error {
	if !s.alive.Load() {
		return ErrKernelDead
	}
	s.do(func() {
		msg := s.factory.Make("input_reply", ChannelStdin, MessageOptions{Content: content})
		s.enqueueOutboundLocked(msg)
		s.drainOutboundLocked()
	})
	return nil
}

// sendFromComm implements commSender for Comm, routing comm_* shell
// messages through the same queue/Future machinery as any other
// request.
func (s *Session) sendFromComm(msg *Message, expectReply, disposeOnDone bool) *Future {
	var f *Future
	s.do(func() {
		f = s.sendLocked(msg, expectReply, disposeOnDone)
	})
	return f
}

func (s *Session) unregisterComm(commID string) {
	s.do(func() {
		delete(s.comms, commID)
	})
}

// unregisterCommLocked is unregisterComm's counterpart for callers
// already running on the loop goroutine.
func (s *Session) unregisterCommLocked(commID string) {
	delete(s.comms, commID)
}

// ConnectToComm returns a Comm for an existing or not-yet-opened
// comm_id, per spec.md §4.3: calling it twice for the same id returns
// the same logical Comm without resending comm_open.
func (s *Session) ConnectToComm(targetName, commID string) *Comm {
	var c *Comm
	s.do(func() {
		if existing, ok := s.comms[commID]; ok {
			c = existing
			return
		}
		c = newComm(commID, targetName, s, s.factory)
		s.comms[commID] = c
	})
	return c
}

// NewComm creates and registers a Comm with a freshly generated
// comm_id, ready to Open.
func (s *Session) NewComm(targetName string) *Comm {
	var c *Comm
	s.do(func() {
		c = newComm(s.factory.IDGen.NewCommID(), targetName, s, s.factory)
		s.comms[c.CommID()] = c
	})
	return c
}

// RegisterCommTarget installs handler as the resolver for inbound
// comm_open messages addressed to targetName, per spec.md §4.3/§4.4.
func (s *Session) RegisterCommTarget(targetName string, handler CommHandler) Deregister {
	s.do(func() {
		s.targets[targetName] = handler
	})
	return func() {
		s.do(func() {
			delete(s.targets, targetName)
		})
	}
}

// RegisterMessageHook registers hook on the Future tracking parentMsgID,
// scoping it to that request's iopub messages exactly as a call to
// Future.RegisterHook would. It is silently ignored, returning a no-op
// Deregister, if that Future does not exist (spec.md §4.4).
func (s *Session) RegisterMessageHook(parentMsgID string, hook IOPubHook) Deregister {
	var handle HookHandle
	var found bool
	s.do(func() {
		f := s.futures[parentMsgID]
		if f == nil {
			return
		}
		handle = f.RegisterHook(hook)
		found = true
	})
	if !found {
		return func() {}
	}
	return func() {
		s.do(func() { handle.Remove() })
	}
}

// Interrupt, Restart and Shutdown proxy to the REST surface for the
// attached kernel (spec.md §6), disposing local state on Shutdown.
func (s *Session) Interrupt(ctx context.Context) error {
	return s.rest.InterruptKernel(ctx, s.kernelID)
}

// Restart clears the pending queue, disposes every outstanding Future
// and Comm and resets their maps, and transitions to restarting
// locally, all before issuing the REST restart request, so that
// nothing is left to route inbound dispatch to a Future or Comm from
// the kernel's previous life even if that happens before the REST call
// returns (spec.md §4.4).
func (s *Session) Restart(ctx context.Context) (KernelModel, error) {
	s.do(func() {
		s.restartTeardownLocked()
	})
	m, err := s.rest.RestartKernel(ctx, s.kernelID)
	if err != nil {
		return KernelModel{}, fmt.Errorf("kernel: restart %s: %w", s.kernelID, err)
	}
	return m, nil
}

// restartTeardownLocked clears local request/comm state ahead of a
// restart without touching anything that survives the kernel restart
// itself: the registry entry, the connection, and alive all remain
// untouched, unlike disposeLocked.
func (s *Session) restartTeardownLocked() {
	s.outbound = nil
	for _, f := range s.futures {
		f.dispose()
	}
	s.futures = map[string]*Future{}
	for _, c := range s.comms {
		c.disposeLocked()
	}
	s.comms = map[string]*Comm{}
	s.commOpenInFlight = map[string]struct{}{}
	s.transitionStatusLocked(StatusRestarting)
}

func (s *Session) Shutdown(ctx context.Context) error {
	err := s.rest.ShutdownKernel(ctx, s.kernelID)
	s.Dispose()
	return err
}
