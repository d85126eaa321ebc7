package integration

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

// EventPublisher delivers domain events after the transaction that produced them has committed.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
	Close() error
}

type EventHandler interface {
	HandleEvent(ctx context.Context, event models.Event) error
}

type localPublisher struct {
	handler EventHandler
	logger  zerolog.Logger
}

// NewLocalPublisher hands events straight to handler in the caller's goroutine.
// It stands in for the broker when RabbitMQ is disabled.
func NewLocalPublisher(handler EventHandler, logger zerolog.Logger) EventPublisher {
	return &localPublisher{handler: handler, logger: logger}
}

func (p *localPublisher) Publish(ctx context.Context, event models.Event) error {
	if err := p.handler.HandleEvent(ctx, event); err != nil {
		return err
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Msg("Event delivered locally")
	return nil
}

func (p *localPublisher) Close() error {
	return nil
}
