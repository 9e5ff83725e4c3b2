package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kunaltyagi18/ecomm-store/internal/outbox"
)

const (
	fetchPendingSQL = `SELECT id, event_id, event_type, key, payload, created_at, sent_at
		FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT $1`

	markSentSQL = `UPDATE outbox SET sent_at = now() WHERE id = ANY($1) AND sent_at IS NULL`
)

var _ outbox.Store = (*OutboxRepository)(nil)

// OutboxRepository implements outbox.Store backed by PostgreSQL.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository returns an OutboxRepository that uses the given pool.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// FetchPending returns up to limit unsent records, oldest first.
func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]outbox.Record, error) {
	rows, err := r.pool.Query(ctx, fetchPendingSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching pending outbox records: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (outbox.Record, error) {
		var rec outbox.Record
		err := row.Scan(&rec.ID, &rec.EventID, &rec.Type, &rec.Key, &rec.Payload, &rec.CreatedAt, &rec.SentAt)
		return rec, err
	})
}

// MarkSent sets sent_at on the given records.
func (r *OutboxRepository) MarkSent(ctx context.Context, ids []int64) error {
	if _, err := r.pool.Exec(ctx, markSentSQL, ids); err != nil {
		return fmt.Errorf("marking outbox records sent: %w", err)
	}
	return nil
}
