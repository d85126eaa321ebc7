package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/worker/queue"
)

func TestWorkerPool_RunsEveryTask(t *testing.T) {
	pool := NewWorkerPool(3, zerolog.Nop())
	pool.Start()

	var done int64
	for i := 0; i < 50; i++ {
		require.True(t, pool.Submit(func() { atomic.AddInt64(&done, 1) }, time.Second))
	}
	pool.Stop()

	assert.EqualValues(t, 50, atomic.LoadInt64(&done))
	assert.Equal(t, 0, pool.Stats().Busy)
}

func TestWorkerPool_SurvivesPanic(t *testing.T) {
	pool := NewWorkerPool(1, zerolog.Nop())
	pool.Start()

	var ran int64
	pool.Submit(func() { panic("boom") }, time.Second)
	pool.Submit(func() { atomic.AddInt64(&ran, 1) }, time.Second)
	pool.Stop()

	assert.EqualValues(t, 1, atomic.LoadInt64(&ran))
}

type fakeConsumer struct {
	msgs   chan queue.Message
	closed bool
}

func (c *fakeConsumer) Consume(context.Context) (<-chan queue.Message, error) {
	return c.msgs, nil
}

func (c *fakeConsumer) Close() error {
	c.closed = true
	return nil
}

type fakeHandler struct {
	mu      sync.Mutex
	results map[string]error
	handled []string
}

func (h *fakeHandler) HandleEvent(_ context.Context, event models.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event.ID)
	return h.results[event.ID]
}

type ackRecord struct {
	mu    sync.Mutex
	acked map[string]bool
	nack  map[string]bool
}

func (r *ackRecord) message(t *testing.T, key string, body []byte) queue.Message {
	t.Helper()
	return queue.Message{
		Body: body,
		Type: "portal.event",
		Ack: func(bool) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.acked[key] = true
			return nil
		},
		Nack: func(_ bool, requeue bool) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.nack[key] = requeue
			return nil
		},
	}
}

func eventBody(t *testing.T, id string) []byte {
	t.Helper()
	body, err := json.Marshal(models.Event{
		ID:         id,
		Type:       models.EventTopicSubmitted,
		Recipients: []string{"coordinator"},
		Message:    "New topic submitted",
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return body
}

func TestNotificationWorker_AckAndRequeue(t *testing.T) {
	consumer := &fakeConsumer{msgs: make(chan queue.Message)}
	handler := &fakeHandler{results: map[string]error{
		"transient": errors.New("connection reset"),
		"invalid":   apperrors.Validation("unknown recipient"),
	}}
	rec := &ackRecord{acked: map[string]bool{}, nack: map[string]bool{}}

	w := NewNotificationWorker(NewWorkerPool(2, zerolog.Nop()), consumer, handler, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	consumer.msgs <- rec.message(t, "ok", eventBody(t, "ok"))
	consumer.msgs <- rec.message(t, "transient", eventBody(t, "transient"))
	consumer.msgs <- rec.message(t, "invalid", eventBody(t, "invalid"))
	consumer.msgs <- rec.message(t, "garbage", []byte("{not json"))
	consumer.msgs <- rec.message(t, "anonymous", []byte(`{"message":"no id"}`))
	close(consumer.msgs)

	w.Stop()

	assert.True(t, consumer.closed)
	assert.ElementsMatch(t, []string{"ok", "transient", "invalid"}, handler.handled)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.True(t, rec.acked["ok"])
	assert.True(t, rec.acked["invalid"], "domain errors are not redelivered")
	assert.True(t, rec.acked["garbage"])
	assert.True(t, rec.acked["anonymous"])
	assert.False(t, rec.acked["transient"])
	assert.True(t, rec.nack["transient"])

	stats := w.Stats()
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 4, stats.Failed)
	assert.Equal(t, 0, stats.Dropped)
}
