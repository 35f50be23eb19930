package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/modelbridge/internal/memory"
	"github.com/sandevgo/modelbridge/pkg/log"
)

// ThreadsRepo is a TTL key-value store for serialized conversation threads.
// Every Set overwrites the blob wholesale and refreshes the expiry; reads
// of expired rows report absence.
type ThreadsRepo struct {
	db  *sql.DB
	now func() time.Time
}

var _ memory.Store = (*ThreadsRepo)(nil)

func NewThreadsRepo(db *sql.DB) *ThreadsRepo {
	return &ThreadsRepo{db: db, now: time.Now}
}

func (r *ThreadsRepo) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	expiresAt := r.now().UTC().Add(ttl)

	query := `INSERT INTO threads (thread_id, payload, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`
	if _, err := r.db.ExecContext(ctx, query, key, payload, expiresAt); err != nil {
		return fmt.Errorf("failed to upsert thread: %w", err)
	}
	return nil
}

func (r *ThreadsRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	var expiresAt time.Time

	query := `SELECT payload, expires_at FROM threads WHERE thread_id = ?`
	err := r.db.QueryRowContext(ctx, query, key).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, memory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query thread: %w", err)
	}

	if !expiresAt.After(r.now().UTC()) {
		// Lazy expiry: the row is gone as far as callers are concerned.
		if _, err := r.db.ExecContext(ctx, `DELETE FROM threads WHERE thread_id = ?`, key); err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("thread", key).Msg("failed to delete expired thread")
		}
		return nil, memory.ErrNotFound
	}

	return payload, nil
}

// PurgeExpired removes every expired row. Meant for periodic housekeeping;
// reads already ignore expired rows without it.
func (r *ThreadsRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM threads WHERE expires_at <= ?`, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired threads: %w", err)
	}
	return res.RowsAffected()
}
