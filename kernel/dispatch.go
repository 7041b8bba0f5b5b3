// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import (
	"io"

	"github.com/jupyter-go/kernelclient/internal/kdebug"
)

// dispatchDebug is true when JKGODEBUG=dispatch=1 is set, enabling a
// verbose trace of every routed frame.
var dispatchDebug = kdebug.Value("dispatch") == "1"

// handleInboundFrame validates and routes one inbound wire frame, per
// spec.md §4.4/§7. gen identifies the connection the frame arrived on;
// frames from a connection superseded by a later reconnect are
// dropped silently. Must run on the loop goroutine.
func (s *Session) handleInboundFrame(gen uint64, data []byte) {
	if gen != s.connGen || s.disposed {
		return
	}
	if err := s.validator.ValidateMessage(data); err != nil {
		s.logger.Warn("kernel: dropping inbound message that failed schema validation", "error", err)
		return
	}
	msg, err := s.serializer.Decode(data)
	if err != nil {
		s.logger.Warn("kernel: dropping inbound message that failed to decode", "error", err)
		return
	}
	if dispatchDebug {
		s.logger.Debug("kernel: dispatch", "channel", msg.Channel, "msg_type", msg.Header.MsgType, "parent_msg_id", msg.ParentHeader.MsgID)
	}
	s.routeLocked(msg)
}

// routeLocked dispatches msg per spec.md §4.4: iopub traffic goes
// through status tracking and comm routing in addition to any Future
// subscribed to it; shell and stdin traffic goes to the Future that
// sent the matching request; anything else on a non-iopub channel
// whose parent session is ours but has no live Future is an unhandled
// message.
func (s *Session) routeLocked(msg *Message) {
	if msg.Channel == ChannelIOPub {
		s.routeIOPubLocked(msg)
		return
	}

	f := s.futures[msg.ParentHeader.MsgID]
	switch msg.Channel {
	case ChannelShell, ChannelControl:
		if f == nil {
			s.emitUnhandledLocked(msg)
			return
		}
		if done := f.handleShellReply(msg); done {
			f.finish()
		}
	case ChannelStdin:
		if f == nil {
			s.emitUnhandledLocked(msg)
			return
		}
		f.handleStdin(msg)
	default:
		s.emitUnhandledLocked(msg)
	}
}

// emitUnhandledLocked fires the unhandled-message event only for
// replies that are actually ours (parent session matches our
// clientId); anything else is silently ignored, since it belongs to a
// different client sharing the kernel (spec.md §9).
func (s *Session) emitUnhandledLocked(msg *Message) {
	if msg.ParentHeader.Session != s.clientID {
		return
	}
	s.emitter.EmitUnhandledMessage(msg)
}

// routeIOPubLocked handles status tracking, comm sub-protocol framing,
// the global iopub-message event, and finally the owning Future (if
// any), per spec.md §4.4 step 2: "status -> update status; comm_open/
// comm_msg/comm_close -> comm handling; then emit an iopub-message
// event" — unconditionally, regardless of what a Future's own hook
// stack later decides for its onIOPub delivery.
func (s *Session) routeIOPubLocked(msg *Message) {
	if state, ok := msg.IsStatus(); ok {
		if st, known := statusFromExecutionState(state); known {
			s.transitionStatusLocked(st)
			if !s.ready {
				s.ready = true
				s.drainOutboundLocked()
			}
		} else {
			s.logger.Warn("kernel: unrecognized execution_state", "state", state)
		}
	}

	switch msg.Header.MsgType {
	case "comm_open":
		s.handleCommOpenLocked(msg)
	case "comm_msg":
		s.handleCommMsgLocked(msg)
	case "comm_close":
		s.handleCommCloseLocked(msg)
	}

	s.emitter.EmitIOPubMessage(msg)

	f := s.futures[msg.ParentHeader.MsgID]
	if f == nil {
		return
	}
	suppressed := !f.hooks.run(msg, s.logger.Warn)
	if done := f.handleIOPub(msg, suppressed); done {
		f.finish()
	}
}

func commID(msg *Message) (string, bool) {
	id, ok := msg.Content["comm_id"].(string)
	return id, ok
}

// handleCommOpenLocked resolves an inbound comm_open against the
// target registry (spec.md §4.3/§4.4). An unknown target is logged and
// the comm_open dropped: no Comm is created and nothing is sent back.
// A handler that returns an error causes the comm to be closed and the
// error logged; handlers run on their own goroutine so they may block.
func (s *Session) handleCommOpenLocked(msg *Message) {
	id, ok := commID(msg)
	if !ok {
		s.logger.Warn("kernel: comm_open missing comm_id")
		return
	}
	targetName, _ := msg.Content["target_name"].(string)
	handler, ok := s.targets[targetName]
	if !ok {
		s.logger.Warn("kernel: comm_open for unregistered target", "target_name", targetName, "comm_id", id)
		return
	}
	c := newComm(id, targetName, s, s.factory)
	s.comms[id] = c
	s.commOpenInFlight[id] = struct{}{}
	go func() {
		err := handler(c, msg)
		s.do(func() {
			delete(s.commOpenInFlight, id)
		})
		if err != nil {
			s.logger.Error("kernel: comm target handler failed, closing comm", "target_name", targetName, "comm_id", id, "error", err)
			// Close goes through do itself, so it runs here rather than
			// inside a loop closure.
			c.Close(nil, nil)
		}
	}()
}

// handleCommMsgLocked and handleCommCloseLocked silently drop frames
// for a comm_id this session does not know about: per spec.md §7 that
// is logged, not surfaced to callers, since it typically just means
// the comm already closed on our side.
func (s *Session) handleCommMsgLocked(msg *Message) {
	id, ok := commID(msg)
	if !ok {
		return
	}
	c, ok := s.comms[id]
	if !ok {
		s.logger.Warn("kernel: comm_msg for unknown comm_id", "comm_id", id)
		return
	}
	c.deliverMsg(msg)
}

func (s *Session) handleCommCloseLocked(msg *Message) {
	id, ok := commID(msg)
	if !ok {
		return
	}
	c, ok := s.comms[id]
	if !ok {
		s.logger.Warn("kernel: comm_close for unknown comm_id", "comm_id", id)
		return
	}
	c.deliverRemoteClose(msg)
}

// handleConnError runs when a connection's reader exits, either
// because Close was called (expected, generation will already have
// advanced or the Session is disposed) or because the peer dropped
// the connection (unexpected, triggers reconnect).
func (s *Session) handleConnError(gen uint64, err error) {
	if gen != s.connGen || s.disposed {
		return
	}
	if err == io.EOF {
		s.logger.Info("kernel: connection closed", "kernel_id", s.kernelID)
	} else {
		s.logger.Warn("kernel: connection read failed", "kernel_id", s.kernelID, "error", err)
	}
	s.conn = nil
	s.ready = false
	s.beginReconnectLocked()
}
