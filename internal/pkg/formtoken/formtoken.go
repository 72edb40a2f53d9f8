/*
Package formtoken issues one-time tokens that are embedded in rendered forms.

A token is bound to the session that rendered the form and is consumed by the first
submission that presents it, which rejects cross-site posts and replayed submissions.
*/
package formtoken

import (
	"net/http"
	"sync"
	"time"

	"arzweb/internal/pkg/randx"
)

const (
	// FieldName is the hidden form field carrying the token.
	FieldName = "form_token"

	// HeaderKey is used by script-driven requests instead of the form field.
	HeaderKey = "X-Form-Token"

	// TokenLifetime bounds how long a rendered form stays submittable.
	TokenLifetime = 2 * time.Hour
)

type entry struct {
	sessionID string
	expires   time.Time
}

// Manager stores outstanding tokens. It is safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	tokens map[string]entry

	lifetime time.Duration
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a Manager and starts a goroutine dropping expired tokens.
// A non-positive lifetime uses TokenLifetime.
func NewManager(lifetime time.Duration) *Manager {
	if lifetime <= 0 {
		lifetime = TokenLifetime
	}
	m := &Manager{
		tokens:   make(map[string]entry),
		lifetime: lifetime,
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go m.cleanupExpiredEntries(time.Minute)

	return m
}

// Issue creates a token bound to sessionID.
func (m *Manager) Issue(sessionID string) (string, error) {
	token, err := randx.Token(randx.FormTokenLength)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.tokens[token] = entry{sessionID: sessionID, expires: m.now().Add(m.lifetime)}
	m.mu.Unlock()

	return token, nil
}

// Consume validates and removes token. It succeeds once, for the session it was issued to.
func (m *Manager) Consume(sessionID, token string) bool {
	if !randx.IsBase62(token) {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.tokens[token]
	if !ok {
		return false
	}
	if m.now().After(e.expires) {
		delete(m.tokens, token)
		return false
	}
	if e.sessionID != sessionID {
		return false
	}

	delete(m.tokens, token)
	return true
}

// FromRequest reads the token from the header or the parsed form.
func FromRequest(r *http.Request) string {
	if token := r.Header.Get(HeaderKey); token != "" {
		return token
	}
	return r.FormValue(FieldName)
}

// Len returns the number of outstanding tokens.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// Stop ends the cleanup goroutine.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Manager) cleanupExpiredEntries(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for token, e := range m.tokens {
		if now.After(e.expires) {
			delete(m.tokens, token)
		}
	}
}
