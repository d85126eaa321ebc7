package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

const topicColumns = `t.id, t.title, t.description, t.technology, t.project_type, t.complexity,
	t.submitted_by, t.status, t.feedback, t.reviewed_by, t.reviewed_at, t.created_at, t.updated_at`

type topicRepository struct {
	*PostgresRepository
}

func scanTopic(s scanner, topic *models.ProjectTopic, extra ...interface{}) error {
	dest := []interface{}{
		&topic.ID,
		&topic.Title,
		&topic.Description,
		&topic.Technology,
		&topic.ProjectType,
		&topic.Complexity,
		&topic.SubmittedBy,
		&topic.Status,
		&topic.Feedback,
		&topic.ReviewedBy,
		&topic.ReviewedAt,
		&topic.CreatedAt,
		&topic.UpdatedAt,
	}
	return s.Scan(append(dest, extra...)...)
}

func (r *topicRepository) Create(ctx context.Context, topic *models.ProjectTopic) error {
	query := `
		INSERT INTO project_topics (id, title, description, technology, project_type, complexity,
			submitted_by, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		topic.ID,
		topic.Title,
		topic.Description,
		topic.Technology,
		topic.ProjectType,
		topic.Complexity,
		topic.SubmittedBy,
		topic.Status,
		topic.CreatedAt,
		topic.UpdatedAt,
	)

	return mapError(err)
}

func (r *topicRepository) GetByID(ctx context.Context, id string) (*models.ProjectTopic, error) {
	query := `SELECT ` + topicColumns + ` FROM project_topics t WHERE t.id = $1`

	topic := &models.ProjectTopic{}
	err := scanTopic(r.db.QueryRowContext(ctx, query, id), topic)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return topic, nil
}

func (r *topicRepository) List(ctx context.Context, filter models.TopicFilter) ([]models.TopicWithDetails, int, error) {
	var c conditions
	if filter.Status != nil {
		c.add("t.status = $%d", *filter.Status)
	}
	if filter.SubmittedBy != "" {
		c.add("t.submitted_by = $%d", filter.SubmittedBy)
	}
	if filter.Technology != "" {
		c.add("t.technology ILIKE $%d", likePattern(filter.Technology))
	}
	if filter.ProjectType != "" {
		c.add("t.project_type = $%d", filter.ProjectType)
	}
	if filter.Search != "" {
		c.add("(t.title ILIKE $%[1]d OR t.description ILIKE $%[1]d)", likePattern(filter.Search))
	}
	if filter.Available {
		c.raw("t.status = 'approved'")
		c.raw("NOT EXISTS (SELECT 1 FROM student_projects p WHERE p.topic_id = t.id)")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM project_topics t`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := c.page(filter.Limit, filter.Offset)
	query := `
		SELECT ` + topicColumns + `,
			u.full_name AS submitter_name,
			EXISTS (SELECT 1 FROM student_projects p WHERE p.topic_id = t.id) AS claimed
		FROM project_topics t
		JOIN users u ON u.id = t.submitted_by` + c.where() + `
		ORDER BY t.created_at DESC, t.id` + limit

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	topics := make([]models.TopicWithDetails, 0)
	for rows.Next() {
		var topic models.TopicWithDetails
		if err := scanTopic(rows, &topic.ProjectTopic, &topic.SubmitterName, &topic.Claimed); err != nil {
			return nil, 0, err
		}
		topics = append(topics, topic)
	}

	return topics, total, rows.Err()
}

func (r *topicRepository) Review(ctx context.Context, id string, status models.TopicStatus, feedback *string, reviewerID string, at time.Time) (bool, error) {
	query := `
		UPDATE project_topics
		SET status = $1, feedback = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $4
		WHERE id = $5 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, status, feedback, reviewerID, at, id)
	if err != nil {
		return false, err
	}

	return affected(result)
}

func (r *topicRepository) UpdatePending(ctx context.Context, topic *models.ProjectTopic) (bool, error) {
	query := `
		UPDATE project_topics
		SET title = $1, description = $2, technology = $3, project_type = $4, complexity = $5, updated_at = $6
		WHERE id = $7 AND submitted_by = $8 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query,
		topic.Title,
		topic.Description,
		topic.Technology,
		topic.ProjectType,
		topic.Complexity,
		topic.UpdatedAt,
		topic.ID,
		topic.SubmittedBy,
	)
	if err != nil {
		return false, err
	}

	return affected(result)
}

func (r *topicRepository) DeletePending(ctx context.Context, id, teacherID string) (bool, error) {
	query := `DELETE FROM project_topics WHERE id = $1 AND submitted_by = $2 AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, id, teacherID)
	if err != nil {
		return false, err
	}

	return affected(result)
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
