package wire

import (
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/order"
	"github.com/kunaltyagi18/ecomm-store/internal/domain/user"
)

func testOrder() order.Order {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return order.Order{
		ID:     "o-1",
		UserID: "u-1",
		Lines: []order.Line{
			{ProductID: "1", Name: "Wireless Headphones", Quantity: 2, Price: decimal.RequireFromString("99.99")},
			{ProductID: "2", Name: "USB-C Cable", Quantity: 1, Price: decimal.RequireFromString("12.9")},
		},
		TotalAmount:   decimal.RequireFromString("212.88"),
		PaymentStatus: order.PaymentPaid,
		Status:        order.StatusProcessing,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
}

func TestEncodeOrder(t *testing.T) {
	e := &jx.Encoder{}
	EncodeOrder(e, testOrder())

	assert.JSONEq(t, `{
		"id": "o-1",
		"userId": "u-1",
		"lines": [
			{"productId": "1", "name": "Wireless Headphones", "quantity": 2, "price": 99.99},
			{"productId": "2", "name": "USB-C Cable", "quantity": 1, "price": 12.90}
		],
		"totalAmount": 212.88,
		"paymentStatus": "paid",
		"orderStatus": "processing",
		"createdAt": "2026-03-01T10:00:00Z",
		"updatedAt": "2026-03-01T10:00:00Z"
	}`, e.String())
	assert.Contains(t, e.String(), `"price":12.90`)
}

func TestDecodeOrder_ReadsEncoded(t *testing.T) {
	want := testOrder()
	e := &jx.Encoder{}
	EncodeOrder(e, want)

	got, err := DecodeOrder(jx.DecodeBytes(e.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Status, got.Status)
	assert.True(t, want.TotalAmount.Equal(got.TotalAmount))
	require.Len(t, got.Lines, 2)
	assert.True(t, want.Lines[1].Price.Equal(got.Lines[1].Price))
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func TestDecodePlaceOrder(t *testing.T) {
	for _, tt := range []struct {
		name    string
		body    string
		want    order.PlaceOrderRequest
		wantErr bool
	}{
		{
			name: "string ids",
			body: `{"userId":"u-1","products":[{"productId":"1","quantity":2}]}`,
			want: order.PlaceOrderRequest{UserID: "u-1", Lines: []order.CartLine{{ProductID: "1", Quantity: 2}}},
		},
		{
			name: "numeric ids and unknown fields",
			body: `{"userId":7,"coupon":"X","products":[{"productId":3,"quantity":1,"note":"gift"}]}`,
			want: order.PlaceOrderRequest{UserID: "7", Lines: []order.CartLine{{ProductID: "3", Quantity: 1}}},
		},
		{
			name: "empty cart",
			body: `{"userId":"u-1","products":[]}`,
			want: order.PlaceOrderRequest{UserID: "u-1"},
		},
		{name: "fractional quantity", body: `{"userId":"u","products":[{"productId":"1","quantity":1.5}]}`, wantErr: true},
		{name: "string quantity", body: `{"userId":"u","products":[{"productId":"1","quantity":"2"}]}`, wantErr: true},
		{name: "products not array", body: `{"userId":"u","products":{}}`, wantErr: true},
		{name: "not an object", body: `[1,2]`, wantErr: true},
		{name: "truncated", body: `{"userId":"u",`, wantErr: true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePlaceOrder(jx.DecodeStr(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformed), "%v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeProductUpdate(t *testing.T) {
	u, err := DecodeProductUpdate(jx.DecodeStr(`{"price":"19.5","stock":3,"extra":true}`))
	require.NoError(t, err)
	require.NotNil(t, u.Price)
	require.NotNil(t, u.Stock)
	assert.Nil(t, u.Name)
	assert.Equal(t, "19.5", u.Price.String())
	assert.Equal(t, 3, *u.Stock)

	_, err = DecodeProductUpdate(jx.DecodeStr(`{"stock":"many"}`))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "stock", de.Field)
}

func TestDecodeProducts_Seed(t *testing.T) {
	ps, err := DecodeProducts(jx.DecodeStr(`[
		{"id":"1","name":"Cable","price":12.99,"stock":200},
		{"id":2,"name":"Mouse","price":29.99,"stock":80,"category":"Electronics"}
	]`))
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "2", ps[1].ID)
	assert.Equal(t, "12.99", ps[0].Price.String())
	assert.Equal(t, 200, ps[0].Stock)
}

func TestEncodeUser_OmitsPassword(t *testing.T) {
	e := &jx.Encoder{}
	EncodeUser(e, user.User{ID: "u-1", Name: "Ann", Email: "ann@example.com", PasswordHash: []byte("secret")})
	assert.NotContains(t, e.String(), "secret")
	assert.NotContains(t, e.String(), "password")
}

func TestOutboxRecord(t *testing.T) {
	ev := order.Event{
		ID:         "ev-1",
		Type:       order.EventOrderCreated,
		Order:      testOrder(),
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	rec := OutboxRecord(4, ev)
	assert.Equal(t, int64(4), rec.ID)
	assert.Equal(t, "o-1", rec.Key)
	assert.Equal(t, "order.created", rec.Type)
	assert.Nil(t, rec.SentAt)

	d := jx.DecodeBytes(rec.Payload)
	var sawOrder bool
	require.NoError(t, d.Obj(func(d *jx.Decoder, key string) error {
		if key != "order" {
			return d.Skip()
		}
		sawOrder = true
		o, err := DecodeOrder(d)
		require.NoError(t, err)
		assert.Equal(t, "o-1", o.ID)
		return nil
	}))
	assert.True(t, sawOrder)
}
