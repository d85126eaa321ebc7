package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/service/integration"
	"github.com/SwetabhSingh17/APMS-sub001/internal/worker/queue"
)

type Stats struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Dropped   int `json:"dropped"`
}

// NotificationWorker turns consumed domain events into notifications.
type NotificationWorker struct {
	pool     *WorkerPool
	consumer queue.Consumer
	handler  integration.EventHandler
	logger   zerolog.Logger

	done    chan struct{}
	statsMu sync.Mutex
	stats   Stats
}

func NewNotificationWorker(pool *WorkerPool, consumer queue.Consumer, handler integration.EventHandler, logger zerolog.Logger) *NotificationWorker {
	return &NotificationWorker{
		pool:     pool,
		consumer: consumer,
		handler:  handler,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	msgs, err := w.consumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	w.pool.Start()
	go w.dispatch(ctx, msgs)

	w.logger.Info().Msg("Notification worker started")
	return nil
}

// Stop waits for the dispatcher to exit, which happens once ctx passed to Start is cancelled,
// then drains the pool and closes the consumer.
func (w *NotificationWorker) Stop() {
	<-w.done
	w.pool.Stop()

	if err := w.consumer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close queue consumer")
	}

	stats := w.Stats()
	w.logger.Info().
		Int("processed", stats.Processed).
		Int("failed", stats.Failed).
		Msg("Notification worker stopped")
}

func (w *NotificationWorker) Stats() Stats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.stats
}

func (w *NotificationWorker) dispatch(ctx context.Context, msgs <-chan queue.Message) {
	defer close(w.done)

	for msg := range msgs {
		msg := msg
		if !w.pool.Submit(func() { w.handle(ctx, msg) }, time.Second) {
			w.count(func(s *Stats) { s.Dropped++ })
			load := w.pool.Stats()
			w.logger.Warn().
				Int("busy", load.Busy).
				Int("queued", load.Queued).
				Int("capacity", load.Capacity).
				Msg("Requeueing event, worker pool saturated")
			if err := msg.Nack(false, true); err != nil {
				w.logger.Error().Err(err).Msg("Failed to nack message")
			}
		}
	}
}

func (w *NotificationWorker) handle(ctx context.Context, msg queue.Message) {
	err := w.process(ctx, msg)
	if err == nil {
		w.count(func(s *Stats) { s.Processed++ })
		if ackErr := msg.Ack(false); ackErr != nil {
			w.logger.Error().Err(ackErr).Msg("Failed to ack message")
		}
		return
	}

	w.count(func(s *Stats) { s.Failed++ })
	w.logger.Error().Err(err).Str("message_type", msg.Type).Msg("Failed to process message")

	if isPermanentError(err) {
		if ackErr := msg.Ack(false); ackErr != nil {
			w.logger.Error().Err(ackErr).Msg("Failed to ack message")
		}
		return
	}

	if nackErr := msg.Nack(false, true); nackErr != nil {
		w.logger.Error().Err(nackErr).Msg("Failed to nack message")
	}
}

func (w *NotificationWorker) process(ctx context.Context, msg queue.Message) error {
	var event models.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return permanent(fmt.Errorf("failed to unmarshal event: %w", err))
	}
	if event.ID == "" || event.Type == "" {
		return permanent(errors.New("event without id or type"))
	}

	if err := w.handler.HandleEvent(ctx, event); err != nil {
		// a domain error will not go away on redelivery
		if _, ok := apperrors.KindOf(err); ok {
			return permanent(err)
		}
		return err
	}
	return nil
}

func (w *NotificationWorker) count(fn func(*Stats)) {
	w.statsMu.Lock()
	fn(&w.stats)
	w.statsMu.Unlock()
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return permanentError{err: err}
}

func isPermanentError(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}
