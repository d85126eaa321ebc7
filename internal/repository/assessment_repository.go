package repository

import (
	"context"
	"database/sql"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

type assessmentRepository struct {
	*PostgresRepository
}

// Upsert keeps one assessment per project. On conflict the existing row keeps its id and created_at,
// and assessment is refreshed with the stored values.
func (r *assessmentRepository) Upsert(ctx context.Context, assessment *models.ProjectAssessment) error {
	query := `
		INSERT INTO project_assessments (id, project_id, faculty_id, score, feedback, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (project_id) DO UPDATE
		SET faculty_id = EXCLUDED.faculty_id,
			score = EXCLUDED.score,
			feedback = EXCLUDED.feedback,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		assessment.ID,
		assessment.ProjectID,
		assessment.FacultyID,
		assessment.Score,
		assessment.Feedback,
		assessment.CreatedAt,
		assessment.UpdatedAt,
	).Scan(&assessment.ID, &assessment.CreatedAt)

	return mapError(err)
}

func (r *assessmentRepository) GetByProject(ctx context.Context, projectID string) (*models.ProjectAssessment, error) {
	query := `
		SELECT id, project_id, faculty_id, score, feedback, created_at, updated_at
		FROM project_assessments
		WHERE project_id = $1
	`

	a := &models.ProjectAssessment{}
	err := r.db.QueryRowContext(ctx, query, projectID).Scan(
		&a.ID,
		&a.ProjectID,
		&a.FacultyID,
		&a.Score,
		&a.Feedback,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return a, nil
}
