// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package testing holds small in-memory fakes shared across this
// module's test files, in place of the real websocket/HTTP transports,
// mirroring the teacher SDK's fake_auth_server.go approach of an
// in-process fake standing in for a real network peer.
package testing

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

// FakeConnection is an in-memory kernel.Connection: writes made by the
// code under test land in Written, and frames queued by the test via
// Push are delivered to the next Read. Closing it unblocks any pending
// Read, which returns ErrFakeClosed once no queued frames remain.
type FakeConnection struct {
	mu      sync.Mutex
	cond    *sync.Cond
	inbound [][]byte
	closed  bool

	Written [][]byte
}

// NewFakeConnection returns a ready-to-use FakeConnection.
func NewFakeConnection() *FakeConnection {
	c := &FakeConnection{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Push makes data available to the next Read call, in FIFO order.
func (c *FakeConnection) Push(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inbound = append(c.inbound, data)
	c.cond.Broadcast()
}

// ErrFakeClosed is returned by Read once the connection has been
// closed with no more queued frames.
var ErrFakeClosed = errors.New("testing: fake connection closed")

func (c *FakeConnection) Read(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.inbound) == 0 && !c.closed {
		c.cond.Wait()
	}
	if len(c.inbound) == 0 {
		return nil, ErrFakeClosed
	}
	data := c.inbound[0]
	c.inbound = c.inbound[1:]
	return data, nil
}

func (c *FakeConnection) Write(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrFakeClosed
	}
	cp := append([]byte(nil), data...)
	c.Written = append(c.Written, cp)
	return nil
}

func (c *FakeConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cond.Broadcast()
	return nil
}

// SequentialIDs is a deterministic kernel.IDGenerator for tests: each
// call returns prefix plus an incrementing counter.
type SequentialIDs struct {
	mu     sync.Mutex
	n      int
	Prefix string
}

func (s *SequentialIDs) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.Prefix + strconv.Itoa(s.n)
}

func (s *SequentialIDs) NewMsgID() string    { return s.next() }
func (s *SequentialIDs) NewClientID() string { return s.next() }
func (s *SequentialIDs) NewCommID() string   { return s.next() }
