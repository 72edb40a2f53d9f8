package session

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

type previewSpy struct {
	mu      sync.Mutex
	deleted []string
}

func (p *previewSpy) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, key)
	return nil
}

func TestManagerRestoresEvictedSessions(t *testing.T) {
	t.Parallel()

	spy := &previewSpy{}
	m := NewManager(NewMemoryBackend(), ManagerOptions{IdleTimeout: time.Minute, Previews: spy})
	defer m.Shutdown()

	ctx := context.Background()
	s := m.Create(ctx, "a@b.cd")
	s.SetCookies([]*http.Cookie{{Name: "token", Value: "bob"}})
	s.SetPreview(PreviewAvatar, "previews/x.png")
	m.Persist(ctx, s)

	if n := m.evictIdle(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Fatalf("expected one eviction, got %d", n)
	}
	if len(spy.deleted) != 1 || spy.deleted[0] != "previews/x.png" {
		t.Fatalf("expected staged preview cleanup, got %v", spy.deleted)
	}

	restored, ok := m.Get(ctx, s.ID)
	if !ok {
		t.Fatal("expected session to be restored from the backend")
	}
	if restored == s {
		t.Fatal("expected a rebuilt session")
	}
	snap := restored.Snapshot()
	if !snap.Loading || snap.PendingVerificationEmail != "a@b.cd" || len(restored.Cookies()) != 1 {
		t.Fatalf("unexpected restored state: %+v cookies=%d", snap, len(restored.Cookies()))
	}
}

func TestManagerRejectsUnknownIDs(t *testing.T) {
	t.Parallel()

	m := NewManager(nil, ManagerOptions{})
	defer m.Shutdown()

	if _, ok := m.Get(context.Background(), "not-a-uuid"); ok {
		t.Fatal("malformed ids must be rejected")
	}
	if _, ok := m.Get(context.Background(), "7f8d0c1e-6a4b-4f6e-9a53-2b8f7f3f0c11"); ok {
		t.Fatal("unknown ids must be rejected")
	}
}

func TestManagerDestroy(t *testing.T) {
	t.Parallel()

	m := NewManager(nil, ManagerOptions{})
	defer m.Shutdown()

	ctx := context.Background()
	s := m.Create(ctx, "")
	m.Destroy(ctx, s.ID)

	if _, ok := m.Get(ctx, s.ID); ok {
		t.Fatal("destroyed session must not be restored")
	}
	if m.Len() != 0 {
		t.Fatalf("expected no live sessions, got %d", m.Len())
	}
}

func TestMemoryBackendExpiry(t *testing.T) {
	t.Parallel()

	b := NewMemoryBackend()
	ctx := context.Background()

	b.Save(ctx, &Record{ID: "a"}, -time.Second)
	b.Save(ctx, &Record{ID: "b"}, time.Minute)

	if _, err := b.Load(ctx, "a"); err != ErrNotFound {
		t.Fatalf("expected expired record to be hidden, got %v", err)
	}
	if n, _ := b.PurgeExpired(ctx); n != 1 {
		t.Fatalf("expected one purged record, got %d", n)
	}
	if _, err := b.Load(ctx, "b"); err != nil {
		t.Fatalf("expected live record, got %v", err)
	}
}

func TestRedisBackend(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	b := NewRedisBackend(client)
	ctx := context.Background()

	rec := &Record{
		ID:           "7f8d0c1e-6a4b-4f6e-9a53-2b8f7f3f0c11",
		PendingEmail: "a@b.cd",
		Cookies:      []StoredCookie{{Name: "token", Value: "bob"}},
	}
	if err := b.Save(ctx, rec, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := b.Load(ctx, rec.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.PendingEmail != "a@b.cd" || len(got.Cookies) != 1 || got.Cookies[0].Value != "bob" {
		t.Fatalf("unexpected record: %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := b.Load(ctx, rec.ID); err != ErrNotFound {
		t.Fatalf("expected record to expire, got %v", err)
	}

	b.Save(ctx, rec, time.Minute)
	if err := b.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := b.Load(ctx, rec.ID); err != ErrNotFound {
		t.Fatalf("expected deleted record, got %v", err)
	}
}

func TestRedisClientPing(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	client.Close()

	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedisClient(context.Background(), addr, "", 0); err == nil {
		t.Fatal("expected ping failure against a closed server")
	}
}
