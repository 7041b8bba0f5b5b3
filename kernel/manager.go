// Copyright 2026 The kernelclient Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package kernel

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/go-cmp/cmp"
)

// Manager is the top-level entry point of spec.md §5: it owns the
// REST surface for enumerating/starting/stopping kernels and
// kernelspecs, and hands out Sessions (directly, or as clones of an
// already-live one via its Registry fast path).
type Manager struct {
	opts *ManagerOptions
	rest *restClient

	mu            sync.Mutex
	cachedDefault string
	cachedSpecs   map[string]KernelSpec
	cachedRunning []KernelModel

	specsChanged   []func(defaultName string, specs map[string]KernelSpec)
	runningChanged []func([]KernelModel)
}

// NewManager returns a Manager backed by opts, or by all-default
// options if opts is nil.
func NewManager(opts *ManagerOptions) *Manager {
	if opts == nil {
		opts = &ManagerOptions{}
	}
	resolved := opts.withDefaults()
	return &Manager{opts: resolved, rest: newRESTClient(resolved)}
}

// OnSpecsChanged registers a callback fired whenever RefreshKernelSpecs
// observes a deep change from the previously cached kernelspecs,
// compared with github.com/google/go-cmp.
func (m *Manager) OnSpecsChanged(cb func(defaultName string, specs map[string]KernelSpec)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.specsChanged = append(m.specsChanged, cb)
}

// OnRunningChanged registers a callback fired whenever RefreshRunning
// observes a deep change from the previously cached running-kernels
// list.
func (m *Manager) OnRunningChanged(cb func([]KernelModel)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runningChanged = append(m.runningChanged, cb)
}

// GetKernelSpecs returns the cached default name and kernelspecs map,
// fetching and caching them on first call.
func (m *Manager) GetKernelSpecs(ctx context.Context) (defaultName string, specs map[string]KernelSpec, err error) {
	m.mu.Lock()
	cached := m.cachedSpecs != nil
	m.mu.Unlock()
	if !cached {
		if _, _, err := m.RefreshKernelSpecs(ctx); err != nil {
			return "", nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cachedDefault, m.cachedSpecs, nil
}

// RefreshKernelSpecs re-fetches api/kernelspecs, updates the cache,
// and fires OnSpecsChanged callbacks if the result differs from what
// was cached.
func (m *Manager) RefreshKernelSpecs(ctx context.Context) (defaultName string, specs map[string]KernelSpec, err error) {
	defaultName, specs, err = m.rest.GetKernelSpecs(ctx, m.opts.Logger)
	if err != nil {
		return "", nil, err
	}
	m.mu.Lock()
	changed := defaultName != m.cachedDefault || !cmp.Equal(specs, m.cachedSpecs)
	m.cachedDefault, m.cachedSpecs = defaultName, specs
	callbacks := append([]func(string, map[string]KernelSpec){}, m.specsChanged...)
	m.mu.Unlock()
	if changed {
		for _, cb := range callbacks {
			cb(defaultName, specs)
		}
	}
	return defaultName, specs, nil
}

// GetKernelSpec returns a single named kernelspec, consulting the
// cache first.
func (m *Manager) GetKernelSpec(ctx context.Context, name string) (KernelSpec, error) {
	m.mu.Lock()
	spec, ok := m.cachedSpecs[name]
	m.mu.Unlock()
	if ok {
		return spec, nil
	}
	return m.rest.GetKernelSpec(ctx, name)
}

// ListRunning returns the currently running kernels, always hitting
// the REST endpoint (spec.md §6 gives no caching guarantee for it).
func (m *Manager) ListRunning(ctx context.Context) ([]KernelModel, error) {
	return m.RefreshRunning(ctx)
}

// RefreshRunning re-fetches api/kernels, updates the cache, and fires
// OnRunningChanged callbacks if the result differs from what was
// cached.
func (m *Manager) RefreshRunning(ctx context.Context) ([]KernelModel, error) {
	models, err := m.rest.ListKernels(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	changed := !cmp.Equal(models, m.cachedRunning)
	m.cachedRunning = models
	callbacks := append([]func([]KernelModel){}, m.runningChanged...)
	m.mu.Unlock()
	if changed {
		for _, cb := range callbacks {
			cb(models)
		}
	}
	return models, nil
}

// StartNew starts a fresh kernel of the given kernelspec name (empty
// means the server's default) and returns a connected Session for it.
func (m *Manager) StartNew(ctx context.Context, name string) (*Session, error) {
	model, err := m.rest.StartKernel(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("kernel: start %q: %w", name, err)
	}
	s := newSession(m.opts, model.ID, model.Name, m.opts.IDGen.NewClientID())
	if err := s.Connect(ctx); err != nil {
		s.Dispose()
		return nil, fmt.Errorf("kernel: connect to newly started kernel %s: %w", model.ID, err)
	}
	return s, nil
}

// ConnectTo attaches to an existing, already-running kernel. If a live
// Session for kernelID is already registered, it returns a Clone of it
// (a fresh clientId reusing the same kernel) rather than a redundant
// REST round trip, per spec.md §5's Registry fast path; otherwise it
// looks the kernel up via REST before connecting.
func (m *Manager) ConnectTo(ctx context.Context, kernelID string) (*Session, error) {
	if existing, ok := m.opts.Registry.FindByKernelID(kernelID); ok {
		clone := existing.Clone(m.opts)
		if err := clone.Connect(ctx); err != nil {
			clone.Dispose()
			return nil, fmt.Errorf("kernel: connect clone of %s: %w", kernelID, err)
		}
		return clone, nil
	}
	model, err := m.rest.GetKernel(ctx, kernelID)
	if err != nil {
		return nil, fmt.Errorf("kernel: look up %s: %w", kernelID, err)
	}
	s := newSession(m.opts, model.ID, model.Name, m.opts.IDGen.NewClientID())
	if err := s.Connect(ctx); err != nil {
		s.Dispose()
		return nil, fmt.Errorf("kernel: connect to %s: %w", kernelID, err)
	}
	return s, nil
}

// Shutdown stops kernelID on the server and disposes every local
// Session attached to it.
func (m *Manager) Shutdown(ctx context.Context, kernelID string) error {
	for {
		s, ok := m.opts.Registry.FindByKernelID(kernelID)
		if !ok {
			break
		}
		s.Dispose()
	}
	return m.rest.ShutdownKernel(ctx, kernelID)
}

// Interrupt sends an interrupt request for kernelID without requiring
// a live Session.
func (m *Manager) Interrupt(ctx context.Context, kernelID string) error {
	return m.rest.InterruptKernel(ctx, kernelID)
}

// Restart restarts kernelID without requiring a live Session, per
// spec.md §6; any attached Sessions are not automatically
// reconnected, since the websocket survives a kernel-side restart.
func (m *Manager) Restart(ctx context.Context, kernelID string) (KernelModel, error) {
	return m.rest.RestartKernel(ctx, kernelID)
}
