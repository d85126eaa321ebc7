package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

type recordingHandler struct {
	events []models.Event
	err    error
}

func (h *recordingHandler) HandleEvent(ctx context.Context, event models.Event) error {
	h.events = append(h.events, event)
	return h.err
}

func TestLocalPublisher_DeliversToHandler(t *testing.T) {
	h := &recordingHandler{}
	p := NewLocalPublisher(h, zerolog.Nop())

	event := models.Event{ID: "e1", Type: models.EventTopicApproved, Recipients: []string{"u1"}}
	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, h.events, 1)
	assert.Equal(t, event, h.events[0])
	assert.NoError(t, p.Close())
}

func TestLocalPublisher_PropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	p := NewLocalPublisher(&recordingHandler{err: boom}, zerolog.Nop())

	err := p.Publish(context.Background(), models.Event{ID: "e1"})
	assert.ErrorIs(t, err, boom)
}

func TestExportKey(t *testing.T) {
	at := time.Date(2024, time.September, 5, 10, 15, 0, 0, time.FixedZone("X", 3*3600))
	assert.Equal(t, "exports/2024/09/20240905T071500Z.json", ExportKey(at, "json"))
}
