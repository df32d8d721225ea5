// Package session owns the process-wide index slot and per-session chat history.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"docchat/internal/domain"
)

// Asker answers a question. *query.Engine satisfies it.
type Asker interface {
	Query(ctx context.Context, question string) (domain.Response, error)
}

// BuildFunc performs the expensive load, embed and index sequence.
type BuildFunc func(ctx context.Context) (Asker, error)

// State is the lifecycle phase of a Manager.
type State int32

const (
	StateInitializing State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "initializing"
	}
}

// Manager is a single-slot cache with no invalidation. The first Get runs the
// build while holding the slot lock; concurrent and later callers receive the
// same result. A failed build is terminal: its error is returned forever and
// no partial index is ever handed out.
type Manager struct {
	build     BuildFunc
	onLoading func()

	mu     sync.Mutex
	done   bool
	asker  Asker
	err    error
	state  atomic.Int32
	builds atomic.Int32
}

// Option customises a Manager.
type Option func(*Manager)

// WithLoadingHook registers fn to run once, right before the first build starts.
func WithLoadingHook(fn func()) Option {
	return func(m *Manager) { m.onLoading = fn }
}

func NewManager(build BuildFunc, opts ...Option) *Manager {
	m := &Manager{build: build}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the cached query engine, building it on first use.
func (m *Manager) Get(ctx context.Context) (Asker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return m.asker, m.err
	}
	if m.onLoading != nil {
		m.onLoading()
	}
	m.builds.Add(1)
	asker, err := m.build(ctx)
	m.done = true
	if err != nil {
		m.err = err
		m.state.Store(int32(StateFailed))
		return nil, err
	}
	m.asker = asker
	m.state.Store(int32(StateReady))
	return asker, nil
}

// State reports the lifecycle phase without blocking on a build in progress.
func (m *Manager) State() State { return State(m.state.Load()) }

// Err returns the terminal build error once the manager has failed.
func (m *Manager) Err() error {
	if m.State() != StateFailed {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Builds reports how many times the build function has run (0 or 1).
func (m *Manager) Builds() int { return int(m.builds.Load()) }
