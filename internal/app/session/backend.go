package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by a Backend when no live record exists.
var ErrNotFound = errors.New("session record not found")

// StoredCookie is a remote API cookie in persisted form.
type StoredCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

// Record is the persisted part of a session. Screen state is rebuilt on demand.
type Record struct {
	ID           string         `json:"id"`
	PendingEmail string         `json:"pending_email,omitempty"`
	Cookies      []StoredCookie `json:"cookies,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Backend persists session records so sessions survive restarts and can be shared
// between instances.
type Backend interface {
	Load(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, rec *Record, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Purger is implemented by backends that must drop expired records themselves.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type memoryEntry struct {
	rec     Record
	expires time.Time
}

// MemoryBackend keeps records in process memory.
type MemoryBackend struct {
	mu      sync.Mutex
	records map[string]memoryEntry
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]memoryEntry)}
}

func (b *MemoryBackend) Load(_ context.Context, id string) (*Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.records[id]
	if !ok || time.Now().After(e.expires) {
		return nil, ErrNotFound
	}
	rec := e.rec
	rec.Cookies = append([]StoredCookie(nil), e.rec.Cookies...)
	return &rec, nil
}

func (b *MemoryBackend) Save(_ context.Context, rec *Record, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	copied := *rec
	copied.Cookies = append([]StoredCookie(nil), rec.Cookies...)
	b.records[rec.ID] = memoryEntry{rec: copied, expires: time.Now().Add(ttl)}
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.records, id)
	return nil
}

// PurgeExpired drops expired records.
func (b *MemoryBackend) PurgeExpired(_ context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	var n int64
	for id, e := range b.records {
		if now.After(e.expires) {
			delete(b.records, id)
			n++
		}
	}
	return n, nil
}
