package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"arzweb/internal/pkg/logx"
	"arzweb/internal/pkg/randx"
)

const (
	// DefaultIdleTimeout evicts in-memory sessions without requests for this long.
	DefaultIdleTimeout = 30 * time.Minute

	defaultCleanupInterval = time.Minute
	backendTimeout         = 3 * time.Second
)

// PreviewCleaner removes staged previews of evicted sessions.
type PreviewCleaner interface {
	Delete(ctx context.Context, key string) error
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// TTL is how long a persisted record lives after its last save.
	TTL time.Duration

	// IdleTimeout evicts in-memory sessions; they are reloaded from the backend on the next request.
	IdleTimeout time.Duration

	// CleanupInterval is the period of the eviction loop.
	CleanupInterval time.Duration

	// Previews, when set, receives the staged previews of evicted sessions.
	Previews PreviewCleaner
}

// Manager tracks live sessions and persists them through a Backend.
type Manager struct {
	sessions map[string]*Session

	backend Backend
	opts    ManagerOptions

	mu sync.RWMutex

	stop chan struct{}
	wg   sync.WaitGroup

	logger zerolog.Logger
}

// NewManager constructs a Manager and starts its cleanup loop.
func NewManager(backend Backend, opts ManagerOptions) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if backend == nil {
		backend = NewMemoryBackend()
	}

	m := &Manager{
		sessions: make(map[string]*Session),
		backend:  backend,
		opts:     opts,
		stop:     make(chan struct{}),
		logger:   logx.Component("SessionManager"),
	}

	m.wg.Add(1)
	go m.runCleanupLoop()

	return m
}

// TTL returns the persisted session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.opts.TTL
}

// Create starts a new session seeded with pendingEmail and persists it.
func (m *Manager) Create(ctx context.Context, pendingEmail string) *Session {
	s := New(randx.SessionID(), pendingEmail)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.Persist(ctx, s)
	m.logger.Debug().Str("session_id", s.ID).Msg("Session created.")
	return s
}

// Get returns the live session id, restoring it from the backend when it was evicted.
func (m *Manager) Get(ctx context.Context, id string) (*Session, bool) {
	if !randx.IsValidSessionID(id) {
		return nil, false
	}

	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s, true
	}

	loadCtx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()

	rec, err := m.backend.Load(loadCtx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Error().Err(err).Str("session_id", id).Msg("Failed to load session record.")
		}
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// another request may have restored it meanwhile
	if existing, ok := m.sessions[id]; ok {
		return existing, true
	}
	s = fromRecord(rec)
	m.sessions[id] = s
	m.logger.Debug().Str("session_id", id).Msg("Session restored from backend.")
	return s, true
}

// Persist saves the session record. Failures are logged; the in-memory session stays valid.
func (m *Manager) Persist(ctx context.Context, s *Session) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backendTimeout)
	defer cancel()

	if err := m.backend.Save(saveCtx, s.record(), m.opts.TTL); err != nil {
		m.logger.Error().Err(err).Str("session_id", s.ID).Msg("Failed to persist session record.")
	}
}

// Destroy removes a session everywhere.
func (m *Manager) Destroy(ctx context.Context, id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		m.release(ctx, s)
	}

	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backendTimeout)
	defer cancel()
	if err := m.backend.Delete(delCtx, id); err != nil {
		m.logger.Error().Err(err).Str("session_id", id).Msg("Failed to delete session record.")
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) runCleanupLoop() {
	defer m.wg.Done()

	m.logger.Info().Msg("Cleanup loop started.")

	ticker := time.NewTicker(m.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			m.logger.Info().Msg("Cleanup loop stopped.")
			return
		case now := <-ticker.C:
			m.evictIdle(now)
			m.purgeBackend()
		}
	}
}

// evictIdle drops sessions idle for longer than IdleTimeout from memory. Their records remain
// in the backend, so a later request restores them.
func (m *Manager) evictIdle(now time.Time) int {
	var evicted []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.IdleSince()) >= m.opts.IdleTimeout {
			delete(m.sessions, id)
			evicted = append(evicted, s)
		}
	}
	m.mu.Unlock()

	for _, s := range evicted {
		m.release(context.Background(), s)
	}
	if len(evicted) > 0 {
		m.logger.Info().Int("evicted", len(evicted)).Msg("Idle sessions evicted.")
	}
	return len(evicted)
}

func (m *Manager) purgeBackend() {
	purger, ok := m.backend.(Purger)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()

	n, err := purger.PurgeExpired(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to purge expired session records.")
		return
	}
	if n > 0 {
		m.logger.Info().Int64("purged", n).Msg("Expired session records purged.")
	}
}

// release stops the timers of s and deletes its staged previews.
func (m *Manager) release(ctx context.Context, s *Session) {
	s.Close()

	if m.opts.Previews == nil {
		return
	}
	for _, key := range s.Previews() {
		delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backendTimeout)
		if err := m.opts.Previews.Delete(delCtx, key); err != nil {
			m.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete staged preview.")
		}
		cancel()
	}
}

// Shutdown stops the cleanup loop and releases all live sessions. Records stay persisted.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down session manager...")

	close(m.stop)
	m.wg.Wait()

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}

	m.logger.Info().Msg("Session manager shutdown complete.")
}
