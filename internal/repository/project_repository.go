package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

const projectColumns = `p.id, p.topic_id, p.student_id, p.group_id, p.term, p.progress, p.status, p.created_at, p.updated_at`

type projectRepository struct {
	*PostgresRepository
}

func scanProject(s scanner, p *models.StudentProject, extra ...interface{}) error {
	dest := []interface{}{
		&p.ID,
		&p.TopicID,
		&p.StudentID,
		&p.GroupID,
		&p.Term,
		&p.Progress,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
	return s.Scan(append(dest, extra...)...)
}

func (r *projectRepository) Allocate(ctx context.Context, project *models.StudentProject) (bool, error) {
	// The topic's approval is re-checked in the same statement that claims it.
	query := `
		INSERT INTO student_projects (id, topic_id, student_id, group_id, term, progress, status, created_at, updated_at)
		SELECT $1::uuid, t.id, $3::uuid, $4::uuid, $5::varchar, $6::int, $7::varchar, $8::timestamptz, $9::timestamptz
		FROM project_topics t
		WHERE t.id = $2::uuid AND t.status = 'approved'
	`

	result, err := r.db.ExecContext(ctx, query,
		project.ID,
		project.TopicID,
		project.StudentID,
		project.GroupID,
		project.Term,
		project.Progress,
		project.Status,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return false, mapError(err)
	}

	return affected(result)
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*models.ProjectWithDetails, error) {
	query := `
		SELECT ` + projectColumns + `, t.title, t.submitted_by
		FROM student_projects p
		JOIN project_topics t ON t.id = p.topic_id
		WHERE p.id = $1
	`

	project := &models.ProjectWithDetails{}
	err := scanProject(r.db.QueryRowContext(ctx, query, id), &project.StudentProject, &project.TopicTitle, &project.TeacherID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return project, nil
}

func (r *projectRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.StudentProject, error) {
	project := &models.StudentProject{}
	err := scanProject(r.db.QueryRowContext(ctx, query, args...), project)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (r *projectRepository) GetByTopic(ctx context.Context, topicID string) (*models.StudentProject, error) {
	return r.getOne(ctx, `SELECT `+projectColumns+` FROM student_projects p WHERE p.topic_id = $1`, topicID)
}

func (r *projectRepository) GetActiveForUser(ctx context.Context, userID, term string) (*models.StudentProject, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM student_projects p
		WHERE p.term = $2 AND (
			(p.group_id IS NULL AND p.student_id = $1)
			OR p.group_id IN (
				SELECT m.group_id FROM student_group_members m
				WHERE m.user_id = $1 AND m.status = 'accepted'
			)
		)
		LIMIT 1
	`
	return r.getOne(ctx, query, userID, term)
}

func (r *projectRepository) GetActiveForGroup(ctx context.Context, groupID, term string) (*models.StudentProject, error) {
	return r.getOne(ctx, `SELECT `+projectColumns+` FROM student_projects p WHERE p.group_id = $1 AND p.term = $2`, groupID, term)
}

func (r *projectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.ProjectWithDetails, int, error) {
	var c conditions
	if filter.TeacherID != "" {
		c.add("t.submitted_by = $%d", filter.TeacherID)
	}
	if filter.MemberID != "" {
		c.add(`((p.group_id IS NULL AND p.student_id = $%[1]d) OR p.group_id IN (
			SELECT m.group_id FROM student_group_members m WHERE m.user_id = $%[1]d AND m.status = 'accepted'))`,
			filter.MemberID)
	}

	from := ` FROM student_projects p JOIN project_topics t ON t.id = p.topic_id`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := c.page(filter.Limit, filter.Offset)
	query := `SELECT ` + projectColumns + `, t.title, t.submitted_by` + from + c.where() +
		` ORDER BY p.created_at DESC, p.id` + limit

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	projects := make([]models.ProjectWithDetails, 0)
	for rows.Next() {
		var p models.ProjectWithDetails
		if err := scanProject(rows, &p.StudentProject, &p.TopicTitle, &p.TeacherID); err != nil {
			return nil, 0, err
		}
		projects = append(projects, p)
	}

	return projects, total, rows.Err()
}

func (r *projectRepository) UpdateProgress(ctx context.Context, id string, progress int, status models.ProjectStatus, at time.Time) error {
	query := `UPDATE student_projects SET progress = $1, status = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, progress, status, at, id)
	return err
}
