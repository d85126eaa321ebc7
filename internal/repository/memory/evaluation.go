package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

type assessmentRepository struct {
	s *Store
}

func (r *assessmentRepository) Upsert(ctx context.Context, a *models.ProjectAssessment) error {
	d, unlock := r.s.begin()
	defer unlock()

	for id, existing := range d.assessments {
		if existing.ProjectID == a.ProjectID {
			a.ID = existing.ID
			a.CreatedAt = existing.CreatedAt
			d.assessments[id] = *a
			return nil
		}
	}
	d.assessments[a.ID] = *a
	return nil
}

func (r *assessmentRepository) GetByProject(ctx context.Context, projectID string) (*models.ProjectAssessment, error) {
	d, unlock := r.s.begin()
	defer unlock()

	for _, a := range d.assessments {
		if a.ProjectID == projectID {
			return &a, nil
		}
	}
	return nil, nil
}

type milestoneRepository struct {
	s *Store
}

func (r *milestoneRepository) Create(ctx context.Context, m *models.ProjectMilestone) error {
	d, unlock := r.s.begin()
	defer unlock()

	d.milestones[m.ID] = *m
	return nil
}

func (r *milestoneRepository) GetByID(ctx context.Context, id string) (*models.ProjectMilestone, error) {
	d, unlock := r.s.begin()
	defer unlock()

	m, ok := d.milestones[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *milestoneRepository) ListByProject(ctx context.Context, projectID string) ([]models.ProjectMilestone, error) {
	d, unlock := r.s.begin()
	defer unlock()

	milestones := make([]models.ProjectMilestone, 0)
	for _, m := range d.milestones {
		if m.ProjectID == projectID {
			milestones = append(milestones, m)
		}
	}

	sort.Slice(milestones, func(i, j int) bool {
		if !milestones[i].DueDate.Equal(milestones[j].DueDate) {
			return milestones[i].DueDate.Before(milestones[j].DueDate)
		}
		return milestones[i].CreatedAt.Before(milestones[j].CreatedAt)
	})
	return milestones, nil
}

func (r *milestoneRepository) Complete(ctx context.Context, id string, at time.Time) (bool, error) {
	d, unlock := r.s.begin()
	defer unlock()

	m, ok := d.milestones[id]
	if !ok || m.Status != models.MilestoneStatusPending {
		return false, nil
	}
	m.Status = models.MilestoneStatusCompleted
	m.CompletedAt = &at
	m.UpdatedAt = at
	d.milestones[id] = m
	return true, nil
}

type notificationRepository struct {
	s *Store
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	d, unlock := r.s.begin()
	defer unlock()

	for _, n := range notifications {
		d.notifications[n.ID] = n
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	d, unlock := r.s.begin()
	defer unlock()

	out := make([]models.Notification, 0)
	for _, n := range d.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, limit, 0), nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	d, unlock := r.s.begin()
	defer unlock()

	n, ok := d.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.IsRead = true
	d.notifications[id] = n
	return true, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	d, unlock := r.s.begin()
	defer unlock()

	var count int64
	for id, n := range d.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			d.notifications[id] = n
			count++
		}
	}
	return count, nil
}
