package order

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/product"
)

const meterName = "github.com/kunaltyagi18/ecomm-store/internal/domain/order"

// Option configures a Service.
type Option func(*Service)

// WithMeterProvider sets the provider for placement counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// WithPlaceTimeout bounds a single placement, including its transaction.
// Zero disables the bound.
func WithPlaceTimeout(d time.Duration) Option {
	return func(s *Service) { s.placeTimeout = d }
}

// Service encapsulates order placement and order administration.
type Service struct {
	products product.Reader
	store    Store
	ledger   Ledger

	meterProvider metric.MeterProvider
	placeTimeout  time.Duration
	now           func() time.Time

	placed   metric.Int64Counter
	rejected metric.Int64Counter
}

// NewService creates an order Service with the required domain dependencies.
func NewService(products product.Reader, store Store, ledger Ledger, opts ...Option) (*Service, error) {
	s := &Service{
		products:      products,
		store:         store,
		ledger:        ledger,
		meterProvider: noop.NewMeterProvider(),
		now:           time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	meter := s.meterProvider.Meter(meterName)
	var err error
	if s.placed, err = meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders committed"),
	); err != nil {
		return nil, errors.Wrap(err, "orders.placed counter")
	}
	if s.rejected, err = meter.Int64Counter("orders.rejected",
		metric.WithDescription("Order placements rejected, by reason"),
	); err != nil {
		return nil, errors.Wrap(err, "orders.rejected counter")
	}
	return s, nil
}

// Validate checks the request shape before any product is read.
func (r PlaceOrderRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" || len(r.Lines) == 0 {
		return &ValidationError{Message: "User ID and products array are required"}
	}
	for _, l := range r.Lines {
		if strings.TrimSpace(l.ProductID) == "" || l.Quantity <= 0 {
			return &ValidationError{Message: "Each product must have productId and a positive quantity"}
		}
		if l.Quantity > product.MaxStock {
			return &ValidationError{Message: fmt.Sprintf("Quantity must not exceed %d", product.MaxStock)}
		}
	}
	return nil
}

// addQuantity adds two non-negative quantities, saturating at math.MaxInt.
func addQuantity(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// PlaceOrder turns a cart into a committed order.
//
// Product existence and stock are checked before any mutation. The stock
// decrements, the order insert and the order.created event then run in one
// transaction; the decrement itself is conditional, so a concurrent placement
// that drains stock after the pre-check makes the transaction fail instead of
// driving stock negative.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if s.placeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.placeTimeout)
		defer cancel()
	}
	lg := zctx.From(ctx).With(zap.String("user_id", req.UserID))

	if err := req.Validate(); err != nil {
		s.reject(ctx, "invalid")
		return nil, err
	}

	ids := make([]string, 0, len(req.Lines))
	seen := make(map[string]struct{}, len(req.Lines))
	for _, l := range req.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}

	// Batch fetch all products in a single query.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	// Every product must exist before stock is looked at.
	for _, l := range req.Lines {
		if _, ok := byID[l.ProductID]; !ok {
			s.reject(ctx, "product_not_found")
			lg.Info("Order rejected", zap.String("product_id", l.ProductID), zap.String("reason", "product not found"))
			return nil, &ProductNotFoundError{ProductID: l.ProductID}
		}
	}

	// Stock pre-check against the quantity requested across all lines.
	requested := make(map[string]int, len(ids))
	for _, l := range req.Lines {
		requested[l.ProductID] = addQuantity(requested[l.ProductID], l.Quantity)
	}
	for _, id := range ids {
		p := byID[id]
		if p.Stock < requested[id] {
			s.reject(ctx, "insufficient_stock")
			lg.Info("Order rejected",
				zap.String("product_id", id),
				zap.Int("available", p.Stock),
				zap.Int("requested", requested[id]),
			)
			return nil, &product.InsufficientStockError{
				ProductID: id,
				Name:      p.Name,
				Available: p.Stock,
				Requested: requested[id],
			}
		}
	}

	// Capture prices now; these are what the order keeps. Prices are held to
	// cents so the stored lines always sum to the total.
	lines := make([]Line, len(req.Lines))
	for i, l := range req.Lines {
		p := byID[l.ProductID]
		lines[i] = Line{
			ProductID: l.ProductID,
			Name:      p.Name,
			Quantity:  l.Quantity,
			Price:     p.Price.Round(2),
		}
	}

	o := &Order{
		UserID:        req.UserID,
		Lines:         lines,
		TotalAmount:   Total(lines),
		PaymentStatus: PaymentPaid,
		Status:        StatusProcessing,
	}

	if err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		for _, l := range decrementOrder(lines) {
			if err := tx.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
				return fmt.Errorf("decrement stock for product %s: %w", l.ProductID, err)
			}
		}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return tx.AppendEvent(ctx, s.event(EventOrderCreated, *o))
	}); err != nil {
		s.reject(ctx, "transaction")
		lg.Warn("Order transaction rolled back", zap.Error(err))
		return nil, &TransactionError{Err: err}
	}

	s.placed.Add(ctx, 1)
	lg.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.Int("lines", len(o.Lines)),
		zap.Stringer("total", o.TotalAmount),
	)
	return o, nil
}

// decrementOrder returns lines sorted by product id so that concurrent
// placements lock product rows in the same order.
func decrementOrder(lines []Line) []Line {
	sorted := append([]Line(nil), lines...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ProductID < sorted[j].ProductID
	})
	return sorted
}

func (s *Service) event(t EventType, o Order) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Order:      o.Clone(),
		OccurredAt: s.now().UTC(),
	}
}

func (s *Service) reject(ctx context.Context, reason string) {
	s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.ledger.Get(ctx, id)
}

// ListForUser returns the user's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &ValidationError{Message: "User ID is required"}
	}
	return s.ledger.ListByUser(ctx, userID)
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.ledger.List(ctx)
}

// UpdateStatus sets the order status. Any known status is accepted from any
// current status; transitions are not checked.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Order, error) {
	st, ok := ParseStatus(status)
	if !ok {
		return nil, &ValidationError{Message: fmt.Sprintf("Invalid order status %q", status)}
	}
	o, err := s.ledger.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, err
	}
	zctx.From(ctx).Info("Order status updated",
		zap.String("order_id", o.ID),
		zap.String("status", string(o.Status)),
	)
	return o, nil
}
