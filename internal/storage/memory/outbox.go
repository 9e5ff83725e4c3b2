package memory

import (
	"context"

	"github.com/kunaltyagi18/ecomm-store/internal/outbox"
)

var _ outbox.Store = (*OutboxRepository)(nil)

// OutboxRepository implements outbox.Store on a DB.
type OutboxRepository struct {
	db *DB
}

// FetchPending returns up to limit unsent records, oldest first.
func (r *OutboxRepository) FetchPending(_ context.Context, limit int) ([]outbox.Record, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []outbox.Record
	for _, rec := range r.db.outbox {
		if rec.SentAt != nil {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkSent flags the records with the given ids as published.
func (r *OutboxRepository) MarkSent(_ context.Context, ids []int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	now := r.db.now()
	for i := range r.db.outbox {
		if _, ok := want[r.db.outbox[i].ID]; ok && r.db.outbox[i].SentAt == nil {
			r.db.outbox[i].SentAt = &now
		}
	}
	return nil
}

// All returns every record, sent or not.
func (r *OutboxRepository) All() []outbox.Record {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return append([]outbox.Record(nil), r.db.outbox...)
}
