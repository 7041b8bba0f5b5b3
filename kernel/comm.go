// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

// commSender is the subset of Session a Comm needs: enough to submit
// shell messages and to be told when the Comm has gone away. It keeps
// Comm from holding a full *Session reference cycle in spirit, even
// though in Go the back-reference is an ordinary pointer; dispose
// breaks it by nil-ing the field (see spec.md §9).
type commSender interface {
	sendFromComm(msg *Message, expectReply, disposeOnDone bool) *Future
	unregisterComm(commID string)
	unregisterCommLocked(commID string)
}

// Comm is a long-lived logical channel identified by CommID,
// multiplexed over a Session's shell and iopub channels, per
// spec.md §4.3.
type Comm struct {
	commID     string
	targetName string
	owner      commSender // nil once disposed
	factory    *MessageFactory

	onMsg   func(*Message)
	onClose func(*Message)
}

func newComm(commID, targetName string, owner commSender, factory *MessageFactory) *Comm {
	return &Comm{commID: commID, targetName: targetName, owner: owner, factory: factory}
}

// CommID returns the identifier the kernel and client both use to
// address this comm.
func (c *Comm) CommID() string { return c.commID }

// TargetName returns the registered target this comm was opened
// against.
func (c *Comm) TargetName() string { return c.targetName }

// IsDisposed reports whether this Comm has been closed or its Session
// disposed.
func (c *Comm) IsDisposed() bool { return c.owner == nil }

// OnMsg sets the callback invoked for inbound comm_msg frames.
func (c *Comm) OnMsg(cb func(*Message)) { c.onMsg = cb }

// OnClose sets the callback invoked when this comm is closed, from
// either side.
func (c *Comm) OnClose(cb func(*Message)) { c.onClose = cb }

// Open sends the comm_open message that announces this comm to the
// kernel. It is a no-op if the comm or its Session has been disposed.
func (c *Comm) Open(data, metadata map[string]any) *Future {
	if c.IsDisposed() {
		return nil
	}
	msg := c.factory.Make("comm_open", ChannelShell, MessageOptions{
		Content: map[string]any{
			"comm_id":     c.commID,
			"target_name": c.targetName,
			"data":        orEmpty(data),
		},
		Metadata: metadata,
	})
	return c.owner.sendFromComm(msg, true, false)
}

// Send submits a comm_msg carrying data to the kernel. It is a no-op
// if the comm has been disposed.
func (c *Comm) Send(data, metadata map[string]any, buffers [][]byte, disposeOnDone bool) *Future {
	if c.IsDisposed() {
		return nil
	}
	msg := c.factory.Make("comm_msg", ChannelShell, MessageOptions{
		Content: map[string]any{
			"comm_id": c.commID,
			"data":    orEmpty(data),
		},
		Metadata: metadata,
		Buffers:  buffers,
	})
	return c.owner.sendFromComm(msg, true, disposeOnDone)
}

// Close sends a comm_msg-shaped close payload to the kernel,
// synthesizes a matching iopub-shaped comm_close message locally
// (with explicit channel/msg_type fields — see spec.md §9 on field
// fidelity), invokes onClose with it, and disposes the comm.
// Idempotent.
func (c *Comm) Close(data, metadata map[string]any) {
	if c.IsDisposed() {
		return
	}
	outbound := c.factory.Make("comm_close", ChannelShell, MessageOptions{
		Content: map[string]any{
			"comm_id": c.commID,
			"data":    orEmpty(data),
		},
		Metadata: metadata,
	})
	c.owner.sendFromComm(outbound, false, false)

	local := &Message{
		Header: Header{
			Username: outbound.Header.Username,
			Version:  outbound.Header.Version,
			Session:  outbound.Header.Session,
			MsgID:    outbound.Header.MsgID,
			MsgType:  "comm_close",
		},
		Channel: ChannelIOPub,
		Content: map[string]any{
			"comm_id": c.commID,
			"data":    orEmpty(data),
		},
		Metadata: orEmpty(metadata),
	}
	cb := c.onClose
	if cb != nil {
		cb(local)
	}
	c.dispose()
}

// deliverMsg invokes onMsg for an inbound comm_msg addressed to this
// comm, if one is registered.
func (c *Comm) deliverMsg(m *Message) {
	if c.onMsg != nil {
		c.onMsg(m)
	}
}

// deliverRemoteClose handles a comm_close received from the kernel:
// it invokes onClose with the inbound message as-is and disposes,
// without sending anything back (spec.md §4.4). Runs on the owning
// Session's loop goroutine, so it uses disposeLocked.
func (c *Comm) deliverRemoteClose(m *Message) {
	cb := c.onClose
	if cb != nil {
		cb(m)
	}
	c.disposeLocked()
}

// dispose nulls callbacks and drops the Session back-reference, which
// makes IsDisposed true, and unregisters from the owning Session. For
// callers not already running on the owning Session's loop goroutine
// (e.g. Close, called by arbitrary caller goroutines).
func (c *Comm) dispose() {
	if c.owner == nil {
		return
	}
	owner := c.owner
	c.onMsg, c.onClose, c.owner = nil, nil, nil
	owner.unregisterComm(c.commID)
}

// disposeLocked is dispose's counterpart for callers already running
// on the owning Session's loop goroutine (dispatch, full session
// teardown, restart teardown): going through dispose's unregisterComm
// would re-enter the loop's do() and deadlock.
func (c *Comm) disposeLocked() {
	if c.owner == nil {
		return
	}
	owner := c.owner
	c.onMsg, c.onClose, c.owner = nil, nil, nil
	owner.unregisterCommLocked(c.commID)
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
