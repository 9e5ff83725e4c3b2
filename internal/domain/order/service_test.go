package order

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/product"
)

// --- Mock implementations ---

type mockProductReader struct {
	byID   map[string]product.Product
	getErr error
}

func (m *mockProductReader) List(context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductReader) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductReader) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockTx struct {
	decremented []CartLine
	decErr      error
	created     *Order
	createErr   error
	events      []Event
}

func (m *mockTx) DecrementStock(_ context.Context, id string, quantity int) error {
	if m.decErr != nil {
		return m.decErr
	}
	m.decremented = append(m.decremented, CartLine{ProductID: id, Quantity: quantity})
	return nil
}

func (m *mockTx) CreateOrder(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	o.ID = "order-1"
	o.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	o.UpdatedAt = o.CreatedAt
	m.created = o
	return nil
}

func (m *mockTx) AppendEvent(_ context.Context, ev Event) error {
	m.events = append(m.events, ev)
	return nil
}

type mockStore struct {
	tx    *mockTx
	calls int
}

func (m *mockStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.calls++
	return fn(ctx, m.tx)
}

type mockLedger struct {
	orders  map[string]Order
	updated Status
}

func (m *mockLedger) Get(_ context.Context, id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *mockLedger) ListByUser(context.Context, string) ([]Order, error) { return nil, nil }

func (m *mockLedger) List(context.Context) ([]Order, error) { return nil, nil }

func (m *mockLedger) UpdateStatus(_ context.Context, id string, status Status) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.updated = status
	o.Status = status
	return &o, nil
}

// --- Helpers ---

func newReader(products ...product.Product) *mockProductReader {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockProductReader{byID: byID}
}

func newTestService(t *testing.T, reader product.Reader, store Store) *Service {
	t.Helper()
	svc, err := NewService(reader, store, &mockLedger{})
	require.NoError(t, err)
	return svc
}

func catalog() *mockProductReader {
	return newReader(
		product.Product{ID: "b", Name: "Cable", Price: decimal.RequireFromString("12.99"), Stock: 10},
		product.Product{ID: "a", Name: "Mouse", Price: decimal.RequireFromString("29.99"), Stock: 3},
	)
}

// --- Tests ---

func TestPlaceOrderRequestValidate(t *testing.T) {
	for _, tt := range []struct {
		name string
		req  PlaceOrderRequest
		msg  string
	}{
		{"Valid", PlaceOrderRequest{UserID: "u", Lines: []CartLine{{ProductID: "a", Quantity: 1}}}, ""},
		{"MissingUser", PlaceOrderRequest{Lines: []CartLine{{ProductID: "a", Quantity: 1}}}, "User ID and products array are required"},
		{"EmptyCart", PlaceOrderRequest{UserID: "u"}, "User ID and products array are required"},
		{"MissingProductID", PlaceOrderRequest{UserID: "u", Lines: []CartLine{{Quantity: 1}}}, "Each product must have productId and a positive quantity"},
		{"ZeroQuantity", PlaceOrderRequest{UserID: "u", Lines: []CartLine{{ProductID: "a"}}}, "Each product must have productId and a positive quantity"},
		{"NegativeQuantity", PlaceOrderRequest{UserID: "u", Lines: []CartLine{{ProductID: "a", Quantity: -2}}}, "Each product must have productId and a positive quantity"},
		{"QuantityTooLarge", PlaceOrderRequest{UserID: "u", Lines: []CartLine{{ProductID: "a", Quantity: math.MaxInt}, {ProductID: "a", Quantity: 2}}}, "Quantity must not exceed 2147483647"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.msg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.msg, err.Error())
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	store := &mockStore{tx: &mockTx{}}
	svc := newTestService(t, catalog(), store)

	o, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u-1",
		Lines:  []CartLine{{ProductID: "b", Quantity: 2}, {ProductID: "a", Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, "order-1", o.ID)
	assert.Equal(t, "55.97", o.TotalAmount.StringFixed(2))
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
	assert.Equal(t, StatusProcessing, o.Status)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "Cable", o.Lines[0].Name)
	assert.True(t, o.Lines[0].Price.Equal(decimal.RequireFromString("12.99")))

	// Decrements run in product id order regardless of cart order.
	assert.Equal(t, []CartLine{{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: 2}}, store.tx.decremented)

	require.Len(t, store.tx.events, 1)
	ev := store.tx.events[0]
	assert.Equal(t, EventOrderCreated, ev.Type)
	assert.Equal(t, "order-1", ev.Order.ID)
	assert.NotEmpty(t, ev.ID)
}

func TestPlaceOrder_ProductNotFoundBeforeMutation(t *testing.T) {
	store := &mockStore{tx: &mockTx{}}
	svc := newTestService(t, catalog(), store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u",
		Lines:  []CartLine{{ProductID: "a", Quantity: 1}, {ProductID: "nonexistent", Quantity: 1}},
	})
	var nf *ProductNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nonexistent", nf.ProductID)
	assert.Equal(t, "Product with ID nonexistent not found", err.Error())
	assert.Zero(t, store.calls)
}

func TestPlaceOrder_InsufficientStockBeforeMutation(t *testing.T) {
	store := &mockStore{tx: &mockTx{}}
	svc := newTestService(t, catalog(), store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u",
		Lines:  []CartLine{{ProductID: "a", Quantity: 5}},
	})
	var stockErr *product.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, "Insufficient stock for Mouse. Available: 3, Requested: 5", err.Error())
	assert.Zero(t, store.calls)
}

func TestPlaceOrder_DuplicateLinesAggregated(t *testing.T) {
	store := &mockStore{tx: &mockTx{}}
	svc := newTestService(t, catalog(), store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u",
		Lines:  []CartLine{{ProductID: "a", Quantity: 2}, {ProductID: "a", Quantity: 2}},
	})
	var stockErr *product.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Zero(t, store.calls)
}

func TestPlaceOrder_LargeDuplicateLinesFailPreCheck(t *testing.T) {
	store := &mockStore{tx: &mockTx{}}
	svc := newTestService(t, catalog(), store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u",
		Lines: []CartLine{
			{ProductID: "a", Quantity: product.MaxStock},
			{ProductID: "a", Quantity: product.MaxStock},
		},
	})
	var stockErr *product.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2*product.MaxStock, stockErr.Requested)
	var txErr *TransactionError
	assert.False(t, errors.As(err, &txErr))
	assert.Zero(t, store.calls)
}

func TestAddQuantity(t *testing.T) {
	assert.Equal(t, 5, addQuantity(2, 3))
	assert.Equal(t, math.MaxInt, addQuantity(math.MaxInt, 2))
	assert.Equal(t, math.MaxInt, addQuantity(math.MaxInt-1, 1))
}

func TestPlaceOrder_InvalidRequestSkipsReads(t *testing.T) {
	reader := catalog()
	reader.getErr = errors.New("must not be called")
	svc := newTestService(t, reader, &mockStore{tx: &mockTx{}})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: "u"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPlaceOrder_ReadError(t *testing.T) {
	reader := catalog()
	reader.getErr = errors.New("connection reset")
	svc := newTestService(t, reader, &mockStore{tx: &mockTx{}})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: "u", Lines: []CartLine{{ProductID: "a", Quantity: 1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPlaceOrder_TransactionFailure(t *testing.T) {
	for _, tt := range []struct {
		name  string
		tx    *mockTx
		cause error
	}{
		{
			name:  "StockRace",
			tx:    &mockTx{decErr: &product.InsufficientStockError{ProductID: "a", Available: 0, Requested: 1}},
			cause: &product.InsufficientStockError{},
		},
		{
			name:  "InsertFailed",
			tx:    &mockTx{createErr: errors.New("disk full")},
			cause: nil,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, catalog(), &mockStore{tx: tt.tx})

			_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: "u", Lines: []CartLine{{ProductID: "a", Quantity: 1}}})
			var txErr *TransactionError
			require.ErrorAs(t, err, &txErr)
			if tt.cause != nil {
				var stockErr *product.InsufficientStockError
				assert.ErrorAs(t, err, &stockErr)
			}
			assert.Empty(t, tt.tx.events)
		})
	}
}

func TestPlaceOrder_Timeout(t *testing.T) {
	store := &blockingStore{}
	svc, err := NewService(catalog(), store, &mockLedger{}, WithPlaceTimeout(10*time.Millisecond))
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: "u", Lines: []CartLine{{ProductID: "a", Quantity: 1}}})
	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type blockingStore struct{}

func (blockingStore) InTx(ctx context.Context, _ func(ctx context.Context, tx Tx) error) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestUpdateStatus(t *testing.T) {
	ledger := &mockLedger{orders: map[string]Order{"o-1": {ID: "o-1", Status: StatusProcessing}}}
	svc, err := NewService(catalog(), &mockStore{tx: &mockTx{}}, ledger)
	require.NoError(t, err)
	ctx := context.Background()

	o, err := svc.UpdateStatus(ctx, "o-1", "Delivered")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, o.Status)
	assert.Equal(t, StatusDelivered, ledger.updated)

	_, err = svc.UpdateStatus(ctx, "o-1", "lost")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.UpdateStatus(ctx, "missing", "shipped")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForUser_RequiresID(t *testing.T) {
	svc := newTestService(t, catalog(), &mockStore{tx: &mockTx{}})
	_, err := svc.ListForUser(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestTotal(t *testing.T) {
	lines := []Line{
		{Quantity: 3, Price: decimal.RequireFromString("10.00")},
		{Quantity: 1, Price: decimal.RequireFromString("0.10")},
		{Quantity: 2, Price: decimal.RequireFromString("0.20")},
	}
	assert.Equal(t, "30.50", Total(lines).StringFixed(2))
}

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus(" SHIPPED ")
	assert.True(t, ok)
	assert.Equal(t, StatusShipped, st)

	_, ok = ParseStatus("returned")
	assert.False(t, ok)
}
