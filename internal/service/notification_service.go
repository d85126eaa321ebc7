package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository"
)

const maxNotifications = 100

type NotificationService interface {
	HandleEvent(ctx context.Context, event models.Event) error
	List(ctx context.Context, actor *models.User, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, actor *models.User, id string) error
	MarkAllRead(ctx context.Context, actor *models.User) (int64, error)
}

type notificationService struct {
	base
}

// NewNotificationService needs no publisher: it is the consumer of published events.
func NewNotificationService(d Deps) NotificationService {
	d.Publisher = nil
	return &notificationService{base: newBase(d, "notifications")}
}

// HandleEvent stores one notification per distinct recipient. The actor is never notified of their own action.
func (s *notificationService) HandleEvent(ctx context.Context, event models.Event) error {
	seen := make(map[string]bool, len(event.Recipients))
	notifications := make([]models.Notification, 0, len(event.Recipients))
	for _, userID := range event.Recipients {
		if userID == "" || userID == event.ActorID || seen[userID] {
			continue
		}
		seen[userID] = true
		notifications = append(notifications, models.Notification{
			ID:        uuid.NewString(),
			UserID:    userID,
			Type:      event.Type,
			Message:   event.Message,
			CreatedAt: event.OccurredAt,
		})
	}
	if len(notifications) == 0 {
		return nil
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		return tx.Notifications().CreateBatch(ctx, notifications)
	})
	if err != nil {
		return fmt.Errorf("failed to store notifications: %w", err)
	}

	s.logger.Debug().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Int("recipients", len(notifications)).
		Msg("Notifications created")
	return nil
}

func (s *notificationService) List(ctx context.Context, actor *models.User, unreadOnly bool, limit int) ([]models.Notification, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if limit < 1 || limit > maxNotifications {
		limit = maxNotifications
	}

	notifications, err := s.store.Notifications().ListByUser(ctx, actor.ID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor *models.User, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !validID(id) {
		return apperrors.NotFound("notification not found")
	}

	ok, err := s.store.Notifications().MarkRead(ctx, id, actor.ID)
	if err != nil {
		return fmt.Errorf("failed to mark notification: %w", err)
	}
	if !ok {
		return apperrors.NotFound("notification not found")
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor *models.User) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}

	n, err := s.store.Notifications().MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications: %w", err)
	}
	return n, nil
}
