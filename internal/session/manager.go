package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/routine-advisor/advisor/internal/catalog"
	"github.com/routine-advisor/advisor/internal/chat"
	"github.com/routine-advisor/advisor/internal/render"
	"github.com/routine-advisor/advisor/internal/selection"
	"github.com/routine-advisor/advisor/internal/storage"
)

// DefaultIdleTimeout is how long an unused visitor session is kept in memory
const DefaultIdleTimeout = 24 * time.Hour

// Options configures a Manager
type Options struct {
	Loader        *catalog.Loader
	Store         storage.KeyValue
	Renderer      *render.Renderer
	Transport     chat.Transport
	HistoryWindow int
	IdleTimeout   time.Duration
}

type entry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Manager creates and caches one Controller per visitor. Selections outlive
// eviction because they are persisted in the store.
type Manager struct {
	opts     Options
	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time
}

// NewManager returns an empty manager
func NewManager(opts Options) *Manager {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemory()
	}
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// NewVisitorID returns a fresh random visitor id
func NewVisitorID() string {
	return uuid.NewString()
}

// ValidVisitorID reports whether id looks like an id from NewVisitorID
func ValidVisitorID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the visitor's controller, creating it and restoring the
// persisted selection on first use.
func (m *Manager) Get(ctx context.Context, visitor string) (*Controller, error) {
	m.mu.Lock()
	if e, ok := m.sessions[visitor]; ok {
		e.lastSeen = m.now()
		m.mu.Unlock()
		return e.ctrl, nil
	}
	m.mu.Unlock()

	cat, err := m.opts.Loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[visitor]; ok {
		e.lastSeen = m.now()
		return e.ctrl, nil
	}

	kv := storage.Namespace(m.opts.Store, "visitors", visitor)
	sel := selection.Open(ctx, cat, kv)
	cs := chat.NewSession(m.opts.Transport, m.opts.HistoryWindow)
	ctrl := NewController(visitor, cat, sel, cs, m.opts.Renderer)
	m.sessions[visitor] = &entry{ctrl: ctrl, lastSeen: m.now()}
	slog.Debug("Created visitor session", "visitor", visitor, "restored", sel.Len())
	return ctrl, nil
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Evict drops sessions idle for longer than the idle timeout and returns how
// many were dropped.
func (m *Manager) Evict() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-m.opts.IdleTimeout)
	n := 0
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Run evicts idle sessions periodically until ctx is done
func (m *Manager) Run(ctx context.Context) {
	interval := m.opts.IdleTimeout / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Evict(); n > 0 {
				slog.Info("Evicted idle visitor sessions", "count", n, "remaining", m.Len())
			}
		}
	}
}
