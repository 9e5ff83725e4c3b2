package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/kunaltyagi18/ecomm-store/internal/outbox"
)

var _ outbox.Publisher = (*LogPublisher)(nil)

// LogPublisher writes records to a logger. It is used when no broker is
// configured so the outbox still drains.
type LogPublisher struct {
	lg *zap.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(lg *zap.Logger) *LogPublisher {
	return &LogPublisher{lg: lg}
}

// Publish logs each record at Info level.
func (p *LogPublisher) Publish(_ context.Context, records []outbox.Record) error {
	for _, r := range records {
		p.lg.Info("Order event",
			zap.String("event_id", r.EventID),
			zap.String("event_type", r.Type),
			zap.String("key", r.Key),
			zap.ByteString("payload", r.Payload),
		)
	}
	return nil
}
