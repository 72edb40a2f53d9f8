package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend stores records in the web_sessions table created by the db migrations.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend wraps pool.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func (b *PostgresBackend) Load(ctx context.Context, id string) (*Record, error) {
	var raw []byte
	err := b.pool.QueryRow(ctx,
		`SELECT data FROM web_sessions WHERE id = $1 AND expires_at > now()`, id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	return &rec, nil
}

func (b *PostgresBackend) Save(ctx context.Context, rec *Record, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}

	_, err = b.pool.Exec(ctx, `
		INSERT INTO web_sessions (id, data, updated_at, expires_at)
		VALUES ($1, $2, now(), now() + make_interval(secs => $3))
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at, expires_at = EXCLUDED.expires_at`,
		rec.ID, raw, ttl.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("upsert session record: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, id string) error {
	if _, err := b.pool.Exec(ctx, `DELETE FROM web_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

// PurgeExpired removes records past their expiry.
func (b *PostgresBackend) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := b.pool.Exec(ctx, `DELETE FROM web_sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge session records: %w", err)
	}
	return tag.RowsAffected(), nil
}
