package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

const milestoneColumns = `id, project_id, title, due_date, status, completed_at, created_at, updated_at`

type milestoneRepository struct {
	*PostgresRepository
}

func scanMilestone(s scanner, m *models.ProjectMilestone) error {
	return s.Scan(
		&m.ID,
		&m.ProjectID,
		&m.Title,
		&m.DueDate,
		&m.Status,
		&m.CompletedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
}

func (r *milestoneRepository) Create(ctx context.Context, m *models.ProjectMilestone) error {
	query := `
		INSERT INTO project_milestones (` + milestoneColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.ProjectID,
		m.Title,
		m.DueDate,
		m.Status,
		m.CompletedAt,
		m.CreatedAt,
		m.UpdatedAt,
	)

	return mapError(err)
}

func (r *milestoneRepository) GetByID(ctx context.Context, id string) (*models.ProjectMilestone, error) {
	m := &models.ProjectMilestone{}
	err := scanMilestone(r.db.QueryRowContext(ctx, `SELECT `+milestoneColumns+` FROM project_milestones WHERE id = $1`, id), m)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (r *milestoneRepository) ListByProject(ctx context.Context, projectID string) ([]models.ProjectMilestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM project_milestones WHERE project_id = $1 ORDER BY due_date, created_at`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	milestones := make([]models.ProjectMilestone, 0)
	for rows.Next() {
		var m models.ProjectMilestone
		if err := scanMilestone(rows, &m); err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}

	return milestones, rows.Err()
}

func (r *milestoneRepository) Complete(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE project_milestones
		SET status = 'completed', completed_at = $1, updated_at = $1
		WHERE id = $2 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, err
	}

	return affected(result)
}
