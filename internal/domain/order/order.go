package order

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/product"
)

// Status is the fulfilment state of an order.
type Status string

// Order statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every known order status in progression order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// ParseStatus maps s to a known Status, ignoring case and surrounding space.
func ParseStatus(s string) (Status, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// PaymentStatus is the payment state of an order.
type PaymentStatus string

// Payment statuses.
const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Order is a placed order. Lines and TotalAmount are fixed at creation.
type Order struct {
	ID            string
	UserID        string
	Lines         []Line
	TotalAmount   decimal.Decimal
	PaymentStatus PaymentStatus
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Line is a single order line with the unit price captured at purchase time.
type Line struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
}

// Subtotal returns Price × Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums line subtotals, rounded to cents.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total.Round(2)
}

// Clone returns a deep copy of o.
func (o Order) Clone() Order {
	o.Lines = append([]Line(nil), o.Lines...)
	return o
}

// CartLine is a (product, quantity) pair submitted at checkout.
type CartLine struct {
	ProductID string
	Quantity  int
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	UserID string
	Lines  []CartLine
}

// EventType names an order lifecycle event.
type EventType string

// Order events appended to the outbox.
const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
)

// Event is an order lifecycle event recorded in the same transaction as the
// state change it describes.
type Event struct {
	ID         string
	Type       EventType
	Order      Order
	OccurredAt time.Time
}

// Tx is the unit of work an order placement runs in. Every call made through
// a Tx commits or rolls back together.
type Tx interface {
	product.StockDecrementer
	// CreateOrder inserts the order header and its lines. It assigns o.ID when
	// empty and fills CreatedAt and UpdatedAt.
	CreateOrder(ctx context.Context, o *Order) error
	// AppendEvent records ev in the outbox.
	AppendEvent(ctx context.Context, ev Event) error
}

// Store opens transactions for order placement.
type Store interface {
	// InTx runs fn inside a single transaction. It commits when fn returns nil
	// and rolls back otherwise, returning fn's error.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Ledger is the read and status-update side of the order record.
type Ledger interface {
	// Get returns ErrNotFound when no order has the given id.
	Get(ctx context.Context, id string) (*Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// List returns every order, newest first.
	List(ctx context.Context) ([]Order, error)
	// UpdateStatus sets the status, refreshes UpdatedAt and records an
	// EventOrderStatusChanged event atomically. Returns ErrNotFound for an
	// unknown id.
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)
}
