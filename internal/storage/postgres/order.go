package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/order"
	"github.com/kunaltyagi18/ecomm-store/internal/wire"
)

const orderColumns = `id, user_id, total_amount, payment_status, order_status, created_at, updated_at`

const (
	createOrderSQL = `INSERT INTO orders (id, user_id, total_amount, payment_status, order_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC`

	listOrderItemsSQL = `SELECT order_id, product_id, name, quantity, price FROM order_items
		WHERE order_id = ANY($1) ORDER BY order_id, line_no`

	updateOrderStatusSQL = `UPDATE orders SET order_status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + orderColumns

	insertOutboxSQL = `INSERT INTO outbox (event_id, event_type, key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`
)

var orderItemColumns = []string{"order_id", "line_no", "product_id", "name", "quantity", "price"}

var (
	_ order.Store  = (*OrderRepository)(nil)
	_ order.Ledger = (*OrderRepository)(nil)
	_ order.Tx     = (*orderTx)(nil)
)

// OrderRepository implements order.Store and order.Ledger backed by
// PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// InTx runs fn in a read-committed transaction. Stock rows decremented by fn
// stay locked until commit or rollback.
func (r *OrderRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &orderTx{tx: tx})
	})
}

// Get returns a single order with its lines.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	orders := []order.Order{o}
	if err := attachLines(ctx, r.pool, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return r.list(ctx, listOrdersByUserSQL, userID)
}

// List returns every order, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	return r.list(ctx, listOrdersSQL)
}

func (r *OrderRepository) list(ctx context.Context, sql string, args ...any) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if err := attachLines(ctx, r.pool, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus sets the status and appends the change event in one
// transaction.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	var updated order.Order
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, updateOrderStatusSQL, id, string(status))
		if err != nil {
			return fmt.Errorf("updating order %q: %w", id, err)
		}
		o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return order.ErrNotFound
			}
			return fmt.Errorf("updating order %q: %w", id, err)
		}

		orders := []order.Order{o}
		if err := attachLines(ctx, tx, orders); err != nil {
			return err
		}
		updated = orders[0]

		return appendEvent(ctx, tx, order.Event{
			ID:         uuid.NewString(),
			Type:       order.EventOrderStatusChanged,
			Order:      updated,
			OccurredAt: updated.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// orderTx is the order.Tx bound to a pgx transaction.
type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) DecrementStock(ctx context.Context, id string, quantity int) error {
	return decrementStock(ctx, t.tx, id, quantity)
}

func (t *orderTx) CreateOrder(ctx context.Context, o *order.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	err := t.tx.QueryRow(ctx, createOrderSQL,
		o.ID, o.UserID, o.TotalAmount, string(o.PaymentStatus), string(o.Status),
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	_, err = t.tx.CopyFrom(ctx, pgx.Identifier{"order_items"}, orderItemColumns,
		pgx.CopyFromSlice(len(o.Lines), func(i int) ([]any, error) {
			l := o.Lines[i]
			return []any{o.ID, i + 1, l.ProductID, l.Name, l.Quantity, l.Price}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("creating items of order %q: %w", o.ID, err)
	}
	return nil
}

func (t *orderTx) AppendEvent(ctx context.Context, ev order.Event) error {
	return appendEvent(ctx, t.tx, ev)
}

func appendEvent(ctx context.Context, q querier, ev order.Event) error {
	rec := wire.OutboxRecord(0, ev)
	_, err := q.Exec(ctx, insertOutboxSQL, rec.EventID, rec.Type, rec.Key, rec.Payload, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending %s event: %w", rec.Type, err)
	}
	return nil
}

// attachLines loads the lines of every order in one query.
func attachLines(ctx context.Context, q querier, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = i
	}

	rows, err := q.Query(ctx, listOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			l       order.Line
		)
		if err := rows.Scan(&orderID, &l.ProductID, &l.Name, &l.Quantity, &l.Price); err != nil {
			return fmt.Errorf("scanning order item: %w", err)
		}
		i := byID[orderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o       order.Order
		payment string
		status  string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &payment, &status, &o.CreatedAt, &o.UpdatedAt)
	o.PaymentStatus = order.PaymentStatus(payment)
	o.Status = order.Status(status)
	return o, err
}
