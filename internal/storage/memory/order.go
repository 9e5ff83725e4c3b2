package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/order"
	"github.com/kunaltyagi18/ecomm-store/internal/wire"
)

var (
	_ order.Store  = (*OrderRepository)(nil)
	_ order.Ledger = (*OrderRepository)(nil)
	_ order.Tx     = (*tx)(nil)
)

// OrderRepository implements order.Store and order.Ledger on a DB.
type OrderRepository struct {
	db *DB
}

// InTx runs fn holding the DB write lock. On error every stock change, order
// and outbox record made through the transaction is undone.
func (r *OrderRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	snap := r.db.takeSnapshot()
	t := &tx{db: r.db}
	if err := fn(ctx, t); err != nil {
		r.db.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		r.db.restore(snap)
		return err
	}
	return nil
}

// Get returns a single order.
func (r *OrderRepository) Get(_ context.Context, id string) (*order.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, o := range r.db.orders {
		if o.ID == id {
			cp := o.Clone()
			return &cp, nil
		}
	}
	return nil, order.ErrNotFound
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var matched []*order.Order
	for _, o := range r.db.orders {
		if o.UserID == userID {
			matched = append(matched, o)
		}
	}
	return newestFirst(matched), nil
}

// List returns every order, newest first.
func (r *OrderRepository) List(_ context.Context) ([]order.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return newestFirst(r.db.orders), nil
}

// UpdateStatus sets the status and records the change in the outbox.
func (r *OrderRepository) UpdateStatus(_ context.Context, id string, status order.Status) (*order.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, o := range r.db.orders {
		if o.ID != id {
			continue
		}
		o.Status = status
		o.UpdatedAt = r.db.now()

		cp := o.Clone()
		r.db.appendEvent(order.Event{
			ID:         uuid.NewString(),
			Type:       order.EventOrderStatusChanged,
			Order:      cp,
			OccurredAt: o.UpdatedAt,
		})
		return &cp, nil
	}
	return nil, order.ErrNotFound
}

// tx operates on a DB whose write lock is held by InTx.
type tx struct {
	db *DB
}

func (t *tx) DecrementStock(_ context.Context, id string, quantity int) error {
	return t.db.decrementStock(id, quantity)
}

func (t *tx) CreateOrder(_ context.Context, o *order.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := t.db.now()
	o.CreatedAt, o.UpdatedAt = now, now

	cp := o.Clone()
	t.db.orders = append(t.db.orders, &cp)
	return nil
}

func (t *tx) AppendEvent(_ context.Context, ev order.Event) error {
	t.db.appendEvent(ev)
	return nil
}

// appendEvent must be called with db.mu held.
func (db *DB) appendEvent(ev order.Event) {
	db.outboxSeq++
	db.outbox = append(db.outbox, wire.OutboxRecord(db.outboxSeq, ev))
}
