// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import "sync"

// Registry is the process-wide live-session registry of spec.md §3
// and §9: a mapping from clientId to Session, used by Manager's
// ConnectTo fast path to return a clone rather than hit the network,
// and by Manager.Shutdown to find the Sessions to dispose. It is an explicit collaborator rather than an ambient
// package-level global, constructed once by NewManager and injectable
// for tests; Session inserts itself at construction and removes
// itself at dispose.
//
// Safe for concurrent use, mirroring the teacher SDK's
// MemorySessionStore (mcp/session.go).
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) insert(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ClientID()] = s
}

func (r *Registry) remove(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, clientID)
}

// FindByKernelID returns a live Session attached to the given kernel
// id, if any. Multiple Sessions may share a kernel id (clone); the
// first found is returned.
func (r *Registry) FindByKernelID(kernelID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.KernelID() == kernelID {
			return s, true
		}
	}
	return nil, false
}

// FindByClientID returns the Session with the given clientId, if any.
func (r *Registry) FindByClientID(clientID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[clientID]
	return s, ok
}
