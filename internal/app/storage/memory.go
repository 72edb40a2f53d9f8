package storage

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps staged objects in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	prefix  string
}

// NewMemoryStore creates a store whose URLs start with prefix.
func NewMemoryStore(prefix string) *MemoryStore {
	if prefix == "" {
		prefix = "/previews/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &MemoryStore{objects: make(map[string]Object), prefix: prefix}
}

func (m *MemoryStore) Put(_ context.Context, key, contentType string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{Key: key, ContentType: contentType, Data: append([]byte(nil), data...)}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &obj, nil
}

// URL returns the local path the preview handler serves key from. ttl is ignored.
func (m *MemoryStore) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}

	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return m.prefix + strings.Join(segments, "/"), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of staged objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
