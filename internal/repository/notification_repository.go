package repository

import (
	"context"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

type notificationRepository struct {
	*PostgresRepository
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, type, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, n := range notifications {
		if _, err := r.db.ExecContext(ctx, query, n.ID, n.UserID, n.Type, n.Message, n.IsRead, n.CreatedAt); err != nil {
			return mapError(err)
		}
	}

	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	var c conditions
	c.add("user_id = $%d", userID)
	if unreadOnly {
		c.raw("is_read = FALSE")
	}
	page, args := c.page(limit, 0)

	query := `SELECT id, user_id, type, message, is_read, created_at FROM notifications` +
		c.where() + ` ORDER BY created_at DESC, id` + page

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}

	return affected(result)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
