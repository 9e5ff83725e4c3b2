// Package rediscache caches order reads in Redis.
package rediscache

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/order"
	"github.com/kunaltyagi18/ecomm-store/internal/wire"
)

const (
	orderKeyPrefix  = "order:"
	defaultCacheTTL = 5 * time.Minute
)

// Client is the subset of *redis.Client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ order.Ledger = (*OrderLedger)(nil)

// OrderLedger is a read-through cache in front of an order.Ledger. Single
// order lookups are cached; lists always go to the underlying ledger. Cache
// failures are logged and never fail the call.
//
// Misses fill the cache with SET NX while status updates overwrite it, so a
// read that loaded the row before an update cannot replace the newer copy.
type OrderLedger struct {
	next   order.Ledger
	client Client
	ttl    time.Duration
}

// NewOrderLedger wraps next. A zero ttl selects five minutes.
func NewOrderLedger(next order.Ledger, client Client, ttl time.Duration) *OrderLedger {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &OrderLedger{next: next, client: client, ttl: ttl}
}

// Get returns the cached order or loads and caches it.
func (c *OrderLedger) Get(ctx context.Context, id string) (*order.Order, error) {
	lg := zctx.From(ctx).With(zap.String("order_id", id))

	o, err := c.load(ctx, id)
	switch {
	case err == nil:
		lg.Debug("Cache hit")
		return o, nil
	case errors.Is(err, redis.Nil):
		lg.Debug("Cache miss")
	default:
		lg.Warn("Cache get failed", zap.Error(err))
	}

	o, err = c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, *o)
	return o, nil
}

// ListByUser delegates to the underlying ledger.
func (c *OrderLedger) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return c.next.ListByUser(ctx, userID)
}

// List delegates to the underlying ledger.
func (c *OrderLedger) List(ctx context.Context) ([]order.Order, error) {
	return c.next.List(ctx)
}

// UpdateStatus updates through the underlying ledger and writes the updated
// order to the cache once the write has committed. When the write fails the
// cached copy is evicted instead.
func (c *OrderLedger) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	o, err := c.next.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	lg := zctx.From(ctx).With(zap.String("order_id", id))
	if err := c.client.Set(ctx, orderKeyPrefix+id, encode(*o), c.ttl).Err(); err != nil {
		lg.Warn("Cache set failed", zap.Error(err))
		if err := c.client.Del(ctx, orderKeyPrefix+id).Err(); err != nil {
			lg.Warn("Cache delete failed", zap.Error(err))
		}
	}
	return o, nil
}

func (c *OrderLedger) load(ctx context.Context, id string) (*order.Order, error) {
	data, err := c.client.Get(ctx, orderKeyPrefix+id).Bytes()
	if err != nil {
		return nil, err
	}
	o, err := wire.DecodeOrder(jx.DecodeBytes(data))
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// fill caches o unless a newer copy is already there.
func (c *OrderLedger) fill(ctx context.Context, o order.Order) {
	if err := c.client.SetNX(ctx, orderKeyPrefix+o.ID, encode(o), c.ttl).Err(); err != nil {
		zctx.From(ctx).Warn("Cache set failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

func encode(o order.Order) []byte {
	var e jx.Encoder
	wire.EncodeOrder(&e, o)
	return e.Bytes()
}
