package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

func TestNotificationService_HandleEventSkipsActorAndDuplicates(t *testing.T) {
	f := newFixture(t)
	actor := f.user(models.RoleTeacher, "actor")
	a := f.user(models.RoleStudent, "a")
	b := f.user(models.RoleStudent, "b")

	err := f.notifications.HandleEvent(f.ctx, models.Event{
		ID:         uuid.NewString(),
		Type:       models.EventProjectProgress,
		ActorID:    actor.ID,
		Recipients: []string{a.ID, actor.ID, b.ID, a.ID, ""},
		Message:    "Progress is now 50%",
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	assert.Len(t, f.unread(a), 1)
	assert.Len(t, f.unread(b), 1)
	assert.Empty(t, f.unread(actor))
}

func TestNotificationService_MarkRead(t *testing.T) {
	f := newFixture(t)
	owner := f.user(models.RoleStudent, "owner")
	other := f.user(models.RoleStudent, "other")

	for i := 0; i < 3; i++ {
		require.NoError(t, f.notifications.HandleEvent(f.ctx, models.Event{
			ID:         uuid.NewString(),
			Type:       models.EventGroupInvited,
			Recipients: []string{owner.ID},
			Message:    "You were invited",
			OccurredAt: time.Now().UTC(),
		}))
	}

	inbox := f.unread(owner)
	require.Len(t, inbox, 3)

	assertKind(t, f.notifications.MarkRead(f.ctx, other, inbox[0].ID), apperrors.KindNotFound)
	assertKind(t, f.notifications.MarkRead(f.ctx, owner, "junk"), apperrors.KindNotFound)

	require.NoError(t, f.notifications.MarkRead(f.ctx, owner, inbox[0].ID))
	assert.Len(t, f.unread(owner), 2)

	n, err := f.notifications.MarkAllRead(f.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Empty(t, f.unread(owner))

	all, err := f.notifications.List(f.ctx, owner, false, 2)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.notifications.List(f.ctx, nil, false, 10)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}
