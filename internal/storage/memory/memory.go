// Package memory implements the storage interfaces on process memory.
//
// A single mutex guards all tables. Order transactions hold it exclusively for
// their whole duration and restore a snapshot on failure, which gives them the
// same all-or-nothing visibility as a database transaction.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/order"
	"github.com/kunaltyagi18/ecomm-store/internal/domain/product"
	"github.com/kunaltyagi18/ecomm-store/internal/domain/user"
	"github.com/kunaltyagi18/ecomm-store/internal/outbox"
)

// DB holds every table. Use the accessor methods to get repository views.
type DB struct {
	mu  sync.RWMutex
	now func() time.Time

	products   map[string]*product.Product
	productSeq []string // insertion order

	orders []*order.Order // insertion order

	users map[string]*user.User

	outbox    []outbox.Record
	outboxSeq int64
}

// Option configures a DB.
type Option func(*DB)

// WithClock sets the time source for timestamps.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// New returns an empty DB.
func New(opts ...Option) *DB {
	db := &DB{
		now:      func() time.Time { return time.Now().UTC() },
		products: make(map[string]*product.Product),
		users:    make(map[string]*user.User),
	}
	for _, o := range opts {
		o(db)
	}
	return db
}

// Products returns the product repository view.
func (db *DB) Products() *ProductRepository { return &ProductRepository{db: db} }

// Orders returns the order store and ledger view.
func (db *DB) Orders() *OrderRepository { return &OrderRepository{db: db} }

// Users returns the user repository view.
func (db *DB) Users() *UserRepository { return &UserRepository{db: db} }

// Outbox returns the outbox view.
func (db *DB) Outbox() *OutboxRepository { return &OutboxRepository{db: db} }

// snapshot captures everything an order transaction may change.
type snapshot struct {
	stock     map[string]int
	updated   map[string]time.Time
	orders    int
	outbox    int
	outboxSeq int64
}

// takeSnapshot must be called with db.mu held.
func (db *DB) takeSnapshot() snapshot {
	s := snapshot{
		stock:     make(map[string]int, len(db.products)),
		updated:   make(map[string]time.Time, len(db.products)),
		orders:    len(db.orders),
		outbox:    len(db.outbox),
		outboxSeq: db.outboxSeq,
	}
	for id, p := range db.products {
		s.stock[id] = p.Stock
		s.updated[id] = p.UpdatedAt
	}
	return s
}

// restore must be called with db.mu held.
func (db *DB) restore(s snapshot) {
	for id, p := range db.products {
		p.Stock = s.stock[id]
		p.UpdatedAt = s.updated[id]
	}
	db.orders = db.orders[:s.orders]
	db.outbox = db.outbox[:s.outbox]
	db.outboxSeq = s.outboxSeq
}

// newestFirst sorts orders by creation time descending, later insertions
// first on ties.
func newestFirst(orders []*order.Order) []order.Order {
	out := make([]order.Order, len(orders))
	for i, o := range orders {
		out[len(orders)-1-i] = o.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
