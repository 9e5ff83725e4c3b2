// Package outbox relays events recorded alongside state changes to a
// message broker.
//
// Stores append records inside the same transaction as the change they
// describe. A Relay later publishes pending records and marks them sent, so an
// event is published only if its transaction committed.
package outbox

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// Record is a single outbox row.
type Record struct {
	ID        int64
	EventID   string
	Type      string
	Key       string
	Payload   []byte
	CreatedAt time.Time
	SentAt    *time.Time
}

// Store reads and acknowledges outbox records.
type Store interface {
	// FetchPending returns up to limit unsent records, oldest first.
	FetchPending(ctx context.Context, limit int) ([]Record, error)
	MarkSent(ctx context.Context, ids []int64) error
}

// Publisher delivers records to subscribers. Publish either delivers the
// whole batch or returns an error.
type Publisher interface {
	Publish(ctx context.Context, records []Record) error
}

// RelayConfig controls polling.
type RelayConfig struct {
	Interval  time.Duration
	BatchSize int
	// MeterProvider is used for the outbox.published counter. Defaults to a
	// no-op provider.
	MeterProvider metric.MeterProvider
}

// Relay moves pending records from a Store to a Publisher.
type Relay struct {
	store     Store
	pub       Publisher
	interval  time.Duration
	batchSize int
	published metric.Int64Counter
}

// NewRelay creates a Relay.
func NewRelay(store Store, pub Publisher, cfg RelayConfig) (*Relay, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = noop.NewMeterProvider()
	}
	published, err := cfg.MeterProvider.Meter("github.com/kunaltyagi18/ecomm-store/internal/outbox").
		Int64Counter("outbox.published", metric.WithDescription("Outbox records published"))
	if err != nil {
		return nil, errors.Wrap(err, "outbox.published counter")
	}
	return &Relay{
		store:     store,
		pub:       pub,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		published: published,
	}, nil
}

// Run flushes on every tick until ctx is cancelled. Flush failures are logged
// and the records stay pending for the next tick.
func (r *Relay) Run(ctx context.Context) error {
	lg := zctx.From(ctx).Named("outbox")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := r.Flush(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				lg.Warn("Outbox flush failed", zap.Error(err))
				continue
			}
			if n > 0 {
				lg.Debug("Outbox flushed", zap.Int("records", n))
			}
		}
	}
}

// Flush publishes one batch of pending records and returns how many were
// published.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	records, err := r.store.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, errors.Wrap(err, "fetch pending")
	}
	if len(records) == 0 {
		return 0, nil
	}
	if err := r.pub.Publish(ctx, records); err != nil {
		return 0, errors.Wrap(err, "publish")
	}
	ids := make([]int64, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	if err := r.store.MarkSent(ctx, ids); err != nil {
		return 0, errors.Wrap(err, "mark sent")
	}
	r.published.Add(ctx, int64(len(records)))
	return len(records), nil
}
