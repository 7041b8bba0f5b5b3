// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/jupyter-go/kernelclient/internal/util"
)

// Session is a single websocket attachment to a kernel from this
// client, per spec.md §3/§4.4. All mutable state is owned by one
// loop goroutine (run); every public method that touches that state
// submits a closure to the loop over ops rather than locking, which
// is the Go rendering of spec.md §5's single-threaded cooperative
// scheduling model.
type Session struct {
	clientID   string
	username   string
	kernelID   string
	kernelName string
	baseURL    string
	wsURL      string
	header     http.Header

	factory        *MessageFactory
	serializer     Serializer
	validator      MessageValidator
	urls           URLBuilder
	dial           func(ctx context.Context, url string, header http.Header) (Connection, error)
	logger         *slog.Logger
	emitter        EventEmitter
	registry       *Registry
	rest           *restClient
	reconnectLimit int

	ops    chan func()
	stop   chan struct{}
	stopWg sync.WaitGroup
	// alive is readable without entering the loop, so send paths can
	// fail synchronously once the loop has already torn itself down
	// (spec.md §7: "sendShellMessage and sendInputReply fail
	// synchronously if the session is dead").
	alive atomic.Bool

	// loop-owned state: read/written only inside a closure executed by
	// run(), including closures submitted by the reader/reconnect
	// goroutines below.
	status           Status
	ready            bool
	conn             Connection
	connGen          uint64
	outbound         []*Message
	futures          map[string]*Future
	comms            map[string]*Comm
	commOpenInFlight map[string]struct{}
	targets          map[string]CommHandler
	reconnectAttempt int
	disposed         bool

	pendingConnect []chan error // resolved on first successful info-reply
}

// newSession constructs a Session for kernelID/kernelName, inserting
// it into registry. Callers obtain Sessions via Manager, never
// directly.
func newSession(opts *ManagerOptions, kernelID, kernelName, clientID string) *Session {
	s := &Session{
		clientID:         clientID,
		username:         opts.Username,
		kernelID:         kernelID,
		kernelName:       kernelName,
		baseURL:          opts.BaseURL,
		wsURL:            opts.WSURL,
		header:           opts.Header,
		serializer:       opts.Serializer,
		validator:        opts.MessageValidator,
		urls:             opts.URLBuilder,
		dial:             opts.Dial,
		logger:           opts.Logger,
		emitter:          newCallbackEmitter(),
		registry:         opts.Registry,
		rest:             newRESTClient(opts),
		reconnectLimit:   opts.ReconnectLimit,
		status:           StatusUnknown,
		futures:          make(map[string]*Future),
		comms:            make(map[string]*Comm),
		commOpenInFlight: make(map[string]struct{}),
		targets:          make(map[string]CommHandler),
		ops:              make(chan func(), 64),
		stop:             make(chan struct{}),
	}
	s.factory = NewMessageFactory(s.username, s.clientID, opts.IDGen)
	s.alive.Store(true)
	s.registry.insert(s)
	s.stopWg.Add(1)
	go s.run()
	return s
}

// run is the Session's single actor loop: every state mutation in
// this type happens only from within this goroutine.
func (s *Session) run() {
	defer s.stopWg.Done()
	for {
		select {
		case f := <-s.ops:
			f()
		case <-s.stop:
			return
		}
	}
}

// do submits f to the loop goroutine and blocks until it has run. It
// must never be called from within a closure already executing on the
// loop (that would deadlock); internal helpers call loop-owned logic
// directly instead.
func (s *Session) do(f func()) {
	done := make(chan struct{})
	select {
	case s.ops <- func() { f(); close(done) }:
	case <-s.stop:
		return
	}
	select {
	case <-done:
	case <-s.stop:
	}
}

// ClientID returns this Session instance's unique clientId.
func (s *Session) ClientID() string { return s.clientID }

// KernelID returns the id of the kernel this Session is attached to.
func (s *Session) KernelID() string { return s.kernelID }

// KernelName returns the kernelspec name of the attached kernel.
func (s *Session) KernelName() string { return s.kernelName }

// Status returns the current Status. Once the Session has been
// disposed it reports StatusDead.
func (s *Session) Status() (st Status) {
	st = StatusDead
	s.do(func() { st = s.status })
	return st
}

// OnStatusChanged registers a callback invoked whenever status
// actually changes.
func (s *Session) OnStatusChanged(cb func(Status)) {
	s.do(func() { s.emitter.OnStatusChanged(cb) })
}

// OnUnhandledMessage registers a callback for orphaned replies: a
// non-iopub message whose parent session is ours but whose parent
// msg_id has no live Future (spec.md §9).
func (s *Session) OnUnhandledMessage(cb func(*Message)) {
	s.do(func() { s.emitter.OnUnhandledMessage(cb) })
}

// OnIOPubMessage registers a callback invoked for every iopub message,
// in addition to whatever Future/Comm routing also applies.
func (s *Session) OnIOPubMessage(cb func(*Message)) {
	s.do(func() { s.emitter.OnIOPubMessage(cb) })
}

// Connect opens the websocket, per spec.md §4.4 step 1: construct the
// channels URL, dial, send kernel_info_request once open, and resolve
// when the matching info-reply arrives. It blocks until that happens
// or ctx is done.
func (s *Session) Connect(ctx context.Context) error {
	resultCh := make(chan error, 1)
	s.do(func() {
		s.pendingConnect = append(s.pendingConnect, resultCh)
		s.openConnectionLocked(ctx)
	})
	select {
	case err := <-resultCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// openConnectionLocked dials a new websocket and starts its reader.
// Must run on the loop goroutine.
func (s *Session) openConnectionLocked(ctx context.Context) {
	wsURL, err := s.urls.WebSocketURL(s.wsURL, s.kernelID, s.clientID)
	if err != nil {
		s.failPendingConnects(err)
		return
	}
	if parsed, perr := url.Parse(wsURL); perr == nil && parsed.Scheme == "ws" && !util.IsLoopback(parsed.Host) {
		s.logger.Warn("kernel: connecting over unencrypted ws:// to a non-loopback host", "url", wsURL)
	}
	conn, err := s.dial(ctx, wsURL, s.header)
	if err != nil {
		s.failPendingConnects(err)
		s.beginReconnectLocked()
		return
	}
	s.connGen++
	gen := s.connGen
	s.conn = conn
	s.reconnectAttempt = 0
	go s.readLoop(conn, gen)

	// spec.md §4.4 step 1: briefly set ready to flush the
	// kernel_info_request (and anything queued from before this
	// connection existed), then go unready again until the kernel's
	// first iopub status confirms it is actually listening.
	s.ready = true
	infoReq := s.factory.Make("kernel_info_request", ChannelShell, MessageOptions{})
	f := s.sendLocked(infoReq, true, true)
	f.OnReply(func(*Message) { s.resolvePendingConnects() })
	s.ready = false
}

func (s *Session) failPendingConnects(err error) {
	for _, ch := range s.pendingConnect {
		ch <- err
	}
	s.pendingConnect = nil
}

// resolvePendingConnects is called once the first kernel_info_reply
// arrives on the current connection.
func (s *Session) resolvePendingConnects() {
	for _, ch := range s.pendingConnect {
		ch <- nil
	}
	s.pendingConnect = nil
}

// readLoop reads frames from conn until it errors or closes, posting
// each as a closure onto the loop. gen identifies the connection this
// reader belongs to so stale frames from a superseded connection
// (after reconnect) are ignored.
func (s *Session) readLoop(conn Connection, gen uint64) {
	ctx := context.Background()
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			s.do(func() { s.handleConnError(gen, err) })
			return
		}
		frame := data
		s.do(func() { s.handleInboundFrame(gen, frame) })
	}
}

// Dispose idempotently tears down the Session: status becomes dead,
// the socket (if any) closes, all Futures and Comms are disposed, and
// the Session is removed from its Registry.
func (s *Session) Dispose() {
	s.do(func() { s.disposeLocked() })
	s.stopWg.Wait()
}

func (s *Session) disposeLocked() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.alive.Store(false)
	s.status = StatusDead
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	for _, f := range s.futures {
		f.dispose()
	}
	s.futures = map[string]*Future{}
	for _, c := range s.comms {
		c.disposeLocked()
	}
	s.comms = map[string]*Comm{}
	s.commOpenInFlight = map[string]struct{}{}
	s.outbound = nil
	s.emitter.Clear()
	s.registry.remove(s.clientID)
	close(s.stop)
}

// transitionStatusLocked updates status, firing statusChanged only on
// an actual change, per spec.md §4.4. It does not itself affect
// readiness: the first iopub status after a (re)connect is what turns
// ready on (see routeIOPubLocked), and beginReconnectLocked/
// handleConnError turn it off. On entering dead, it invokes dispose.
func (s *Session) transitionStatusLocked(newStatus Status) {
	if newStatus == s.status {
		return
	}
	s.status = newStatus
	s.emitter.EmitStatusChanged(newStatus)
	if newStatus == StatusDead {
		s.disposeLocked()
	}
}

// Clone returns a new Session sharing this one's kernel id and name
// but with a fresh clientId, per spec.md §4.4.
func (s *Session) Clone(opts *ManagerOptions) *Session {
	return newSession(opts, s.kernelID, s.kernelName, opts.IDGen.NewClientID())
}
