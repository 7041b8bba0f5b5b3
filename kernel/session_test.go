// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	ktesting "github.com/jupyter-go/kernelclient/internal/testing"
)

func newConnectedTestSession(t *testing.T) (*Session, *ktesting.FakeConnection, *ktesting.SequentialIDs) {
	t.Helper()
	conn := ktesting.NewFakeConnection()
	ids := &ktesting.SequentialIDs{Prefix: "id"}
	opts := (&ManagerOptions{
		BaseURL: "http://127.0.0.1:0/",
		IDGen:   ids,
		Dial: func(ctx context.Context, url string, header http.Header) (Connection, error) {
			return conn, nil
		},
	}).withDefaults()

	s := newSession(opts, "k1", "python3", "c1")
	t.Cleanup(s.Dispose)

	doneCh := make(chan error, 1)
	go func() { doneCh <- s.Connect(context.Background()) }()

	reply := &Message{
		Header:       Header{Username: "k", Version: protocolVersion, Session: "kernel", MsgID: "reply-info", MsgType: "kernel_info_reply"},
		ParentHeader: Header{MsgID: "id1"},
		Channel:      ChannelShell,
		Content:      map[string]any{},
		Metadata:     map[string]any{},
	}
	data, err := s.serializer.Encode(reply)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	conn.Push(data)

	select {
	case err := <-doneCh:
		if err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Connect() did not resolve")
	}
	return s, conn, ids
}

// newConnectedTestSessionWithServer is newConnectedTestSession but
// backed by a real httptest.Server, for tests that exercise a REST
// call (Restart, Interrupt, Shutdown) against a live Session.
func newConnectedTestSessionWithServer(t *testing.T, handler http.HandlerFunc) (*Session, *ktesting.FakeConnection, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	conn := ktesting.NewFakeConnection()
	opts := (&ManagerOptions{
		BaseURL: srv.URL,
		IDGen:   &ktesting.SequentialIDs{Prefix: "id"},
		Dial: func(ctx context.Context, url string, header http.Header) (Connection, error) {
			return conn, nil
		},
	}).withDefaults()

	s := newSession(opts, "k1", "python3", "c1")
	t.Cleanup(s.Dispose)

	doneCh := make(chan error, 1)
	go func() { doneCh <- s.Connect(context.Background()) }()

	reply := &Message{
		Header:       Header{Username: "k", Version: protocolVersion, Session: "kernel", MsgID: "reply-info", MsgType: "kernel_info_reply"},
		ParentHeader: Header{MsgID: "id1"},
		Channel:      ChannelShell,
		Content:      map[string]any{},
		Metadata:     map[string]any{},
	}
	data, err := s.serializer.Encode(reply)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	conn.Push(data)

	select {
	case err := <-doneCh:
		if err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Connect() did not resolve")
	}
	return s, conn, srv
}

func pushStatus(t *testing.T, s *Session, conn *ktesting.FakeConnection, parentMsgID, state string) {
	t.Helper()
	msg := &Message{
		Header:       Header{Username: "k", Version: protocolVersion, Session: "kernel", MsgID: state + "-" + parentMsgID, MsgType: "status"},
		ParentHeader: Header{MsgID: parentMsgID},
		Channel:      ChannelIOPub,
		Content:      map[string]any{"execution_state": state},
		Metadata:     map[string]any{},
	}
	data, err := s.serializer.Encode(msg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	conn.Push(data)
}

func TestSessionConnectResolvesOnKernelInfoReply(t *testing.T) {
	s, conn, _ := newConnectedTestSession(t)
	if len(conn.Written) != 1 {
		t.Fatalf("outbound frames written = %d, want 1 (kernel_info_request)", len(conn.Written))
	}
	if s.Status() != StatusUnknown {
		t.Errorf("Status() = %s, want unknown (no iopub status broadcast received yet)", s.Status())
	}
}

func TestSessionExecuteDeliversIOPubThenReply(t *testing.T) {
	s, conn, _ := newConnectedTestSession(t)

	var iopubs []string
	var replied bool
	var done bool
	f, err := s.Execute(ExecuteOptions{Code: "print(1)"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// The Execute call is the 2nd message this session ever sent (the
	// 1st was the kernel_info_request during Connect), so its msg_id is
	// deterministically "id2".
	const execMsgID = "id2"

	f.OnIOPub(func(m *Message) {
		state, _ := m.IsStatus()
		if state != "" {
			iopubs = append(iopubs, state)
			return
		}
		if text, ok := m.Content["text"].(string); ok {
			iopubs = append(iopubs, "stream:"+text)
		}
	})
	f.OnReply(func(*Message) { replied = true })
	f.OnDone(func() { done = true })

	pushStatus(t, s, conn, execMsgID, "busy")

	stream := &Message{
		Header:       Header{Username: "k", Version: protocolVersion, Session: "kernel", MsgID: "stream1", MsgType: "stream"},
		ParentHeader: Header{MsgID: execMsgID},
		Channel:      ChannelIOPub,
		Content:      map[string]any{"name": "stdout", "text": "1\n"},
		Metadata:     map[string]any{},
	}
	data, _ := s.serializer.Encode(stream)
	conn.Push(data)

	reply := &Message{
		Header:       Header{Username: "k", Version: protocolVersion, Session: "kernel", MsgID: "reply-exec", MsgType: "execute_reply"},
		ParentHeader: Header{MsgID: execMsgID},
		Channel:      ChannelShell,
		Content:      map[string]any{"status": "ok"},
		Metadata:     map[string]any{},
	}
	data, _ = s.serializer.Encode(reply)
	conn.Push(data)

	pushStatus(t, s, conn, execMsgID, "idle")

	deadline := time.Now().Add(5 * time.Second)
	for !done && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !done {
		t.Fatal("Future never reached done")
	}
	if !replied {
		t.Error("OnReply was never invoked")
	}
	wantIOPubs := []string{"busy", "stream:1\n", "idle"}
	if len(iopubs) != len(wantIOPubs) {
		t.Fatalf("iopubs = %v, want %v", iopubs, wantIOPubs)
	}
	for i := range wantIOPubs {
		if iopubs[i] != wantIOPubs[i] {
			t.Errorf("iopubs[%d] = %q, want %q", i, iopubs[i], wantIOPubs[i])
		}
	}
}

func TestSessionStatusChangedFiresOnKernelBroadcast(t *testing.T) {
	s, conn, _ := newConnectedTestSession(t)
	changes := make(chan Status, 4)
	s.OnStatusChanged(func(st Status) { changes <- st })

	pushStatus(t, s, conn, "unrelated", "busy")
	select {
	case st := <-changes:
		if st != StatusBusy {
			t.Errorf("status changed to %s, want busy", st)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("statusChanged was not fired")
	}
}

func TestSessionUnhandledMessageForOrphanedShellReply(t *testing.T) {
	s, conn, _ := newConnectedTestSession(t)
	unhandled := make(chan *Message, 1)
	s.OnUnhandledMessage(func(m *Message) { unhandled <- m })

	orphan := &Message{
		Header:       Header{Username: "k", Version: protocolVersion, Session: "kernel", MsgID: "orphan-reply", MsgType: "execute_reply"},
		ParentHeader: Header{MsgID: "never-sent", Session: "c1"},
		Channel:      ChannelShell,
		Content:      map[string]any{},
		Metadata:     map[string]any{},
	}
	data, _ := s.serializer.Encode(orphan)
	conn.Push(data)

	select {
	case m := <-unhandled:
		if m.Header.MsgID != "orphan-reply" {
			t.Errorf("unhandled message msg_id = %q, want orphan-reply", m.Header.MsgID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("OnUnhandledMessage was not fired")
	}
}

func TestSessionCommOpenInvokesTargetHandler(t *testing.T) {
	s, conn, _ := newConnectedTestSession(t)

	var openedTarget string
	openedCh := make(chan struct{}, 1)
	s.RegisterCommTarget("my-target", func(c *Comm, open *Message) error {
		openedTarget = c.TargetName()
		openedCh <- struct{}{}
		return nil
	})

	commOpen := &Message{
		Header:       Header{Username: "k", Version: protocolVersion, Session: "kernel", MsgID: "comm-open-1", MsgType: "comm_open"},
		ParentHeader: Header{},
		Channel:      ChannelIOPub,
		Content:      map[string]any{"comm_id": "comm1", "target_name": "my-target", "data": map[string]any{}},
		Metadata:     map[string]any{},
	}
	data, _ := s.serializer.Encode(commOpen)
	conn.Push(data)

	select {
	case <-openedCh:
		if openedTarget != "my-target" {
			t.Errorf("target = %q, want my-target", openedTarget)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("comm target handler was never invoked")
	}
}

func TestSessionSendFailsSynchronouslyAfterDispose(t *testing.T) {
	s, _, _ := newConnectedTestSession(t)
	s.Dispose()

	if _, err := s.SendShellMessage("kernel_info_request", nil, true, true); err != ErrKernelDead {
		t.Errorf("SendShellMessage() after dispose error = %v, want ErrKernelDead", err)
	}
	if err := s.SendInputReply(map[string]any{"value": "x"}); err != ErrKernelDead {
		t.Errorf("SendInputReply() after dispose error = %v, want ErrKernelDead", err)
	}
	if _, err := s.Execute(ExecuteOptions{Code: "1"}); err != ErrKernelDead {
		t.Errorf("Execute() after dispose error = %v, want ErrKernelDead", err)
	}
}

func TestSessionRestartDisposesFuturesAndCommsBeforeRESTReturns(t *testing.T) {
	restCalled := make(chan struct{})
	release := make(chan struct{})
	s, conn, _ := newConnectedTestSessionWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		close(restCalled)
		<-release
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"k1","name":"python3"}`))
	})

	f, err := s.Execute(ExecuteOptions{Code: "print(1)"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var iopubDelivered bool
	f.OnIOPub(func(*Message) { iopubDelivered = true })

	c := s.NewComm("my-target")

	var wg sync.WaitGroup
	wg.Add(1)
	var model KernelModel
	var restartErr error
	go func() {
		defer wg.Done()
		model, restartErr = s.Restart(context.Background())
	}()

	select {
	case <-restCalled:
	case <-time.After(5 * time.Second):
		t.Fatal("REST restart call was never issued")
	}

	// The REST handler is still blocked in release, so any disposal
	// visible now happened strictly before the REST call returned.
	if st := s.Status(); st != StatusRestarting {
		t.Errorf("Status() = %s, want restarting", st)
	}
	if !f.IsDone() {
		t.Error("Future was not disposed before the REST call returned")
	}
	if !c.IsDisposed() {
		t.Error("Comm was not disposed before the REST call returned")
	}

	// A status broadcast that would otherwise have routed to f's
	// onIOPub must not reach it: the Future is gone.
	pushStatus(t, s, conn, f.Msg().Header.MsgID, "busy")
	time.Sleep(20 * time.Millisecond)
	if iopubDelivered {
		t.Error("inbound dispatch still routed to the disposed Future after restart")
	}

	close(release)
	wg.Wait()
	if restartErr != nil {
		t.Fatalf("Restart() error = %v", restartErr)
	}
	if model.ID != "k1" {
		t.Errorf("Restart() model id = %q, want k1", model.ID)
	}
}

func TestSessionRegisterMessageHookScopesToParentFutureAndIgnoresUnknown(t *testing.T) {
	s, conn, _ := newConnectedTestSession(t)

	f, err := s.Execute(ExecuteOptions{Code: "print(1)"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	const execMsgID = "id2"

	var hookRan bool
	var iopubDelivered bool
	dereg := s.RegisterMessageHook(execMsgID, func(*Message) bool {
		hookRan = true
		return false
	})
	f.OnIOPub(func(*Message) { iopubDelivered = true })

	pushStatus(t, s, conn, execMsgID, "busy")
	time.Sleep(20 * time.Millisecond)
	if !hookRan {
		t.Error("hook registered for the parent msg_id never ran")
	}
	if iopubDelivered {
		t.Error("onIOPub ran despite the hook suppressing delivery")
	}

	dereg()

	// Registering against a msg_id with no live Future is silently
	// ignored and returns a usable no-op Deregister.
	noop := s.RegisterMessageHook("no-such-future", func(*Message) bool { return true })
	noop()
}

func TestSessionDisposeIsIdempotentAndRemovesFromRegistry(t *testing.T) {
	s, _, _ := newConnectedTestSession(t)
	reg := s.registry
	s.Dispose()
	s.Dispose()
	if _, ok := reg.FindByClientID(s.ClientID()); ok {
		t.Error("disposed session is still registered")
	}
	if s.Status() != StatusDead {
		t.Errorf("Status() after Dispose() = %s, want dead", s.Status())
	}
}
