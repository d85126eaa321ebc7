package repository

import (
	"context"
	"fmt"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

type snapshotRepository struct {
	*PostgresRepository
}

func (r *snapshotRepository) Dump(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{Version: models.SnapshotVersion}

	users, _, err := (&userRepository{r.PostgresRepository}).List(ctx, models.UserFilter{})
	if err != nil {
		return nil, fmt.Errorf("dump users: %w", err)
	}
	for _, u := range users {
		snap.Users = append(snap.Users, models.SnapshotUser{User: u, PasswordHash: string(u.PasswordHash)})
	}

	if err := r.dumpTopics(ctx, snap); err != nil {
		return nil, fmt.Errorf("dump topics: %w", err)
	}
	if err := r.dumpGroups(ctx, snap); err != nil {
		return nil, fmt.Errorf("dump groups: %w", err)
	}
	if err := r.dumpProjects(ctx, snap); err != nil {
		return nil, fmt.Errorf("dump projects: %w", err)
	}
	if err := r.dumpAssessments(ctx, snap); err != nil {
		return nil, fmt.Errorf("dump assessments: %w", err)
	}
	if err := r.dumpMilestones(ctx, snap); err != nil {
		return nil, fmt.Errorf("dump milestones: %w", err)
	}
	if err := r.dumpNotifications(ctx, snap); err != nil {
		return nil, fmt.Errorf("dump notifications: %w", err)
	}

	return snap, nil
}

func (r *snapshotRepository) dumpTopics(ctx context.Context, snap *models.Snapshot) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+topicColumns+` FROM project_topics t ORDER BY t.created_at, t.id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t models.ProjectTopic
		if err := scanTopic(rows, &t); err != nil {
			return err
		}
		snap.Topics = append(snap.Topics, t)
	}
	return rows.Err()
}

func (r *snapshotRepository) dumpGroups(ctx context.Context, snap *models.Snapshot) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+groupColumns+` FROM student_groups g ORDER BY g.created_at, g.id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var g models.StudentGroup
		if err := scanGroup(rows, &g); err != nil {
			return err
		}
		snap.Groups = append(snap.Groups, g)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	mrows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, user_id, status, invited_at, responded_at
		FROM student_group_members ORDER BY invited_at, id`)
	if err != nil {
		return err
	}
	defer mrows.Close()

	for mrows.Next() {
		var m models.GroupMember
		if err := mrows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Status, &m.InvitedAt, &m.RespondedAt); err != nil {
			return err
		}
		snap.Members = append(snap.Members, m)
	}
	return mrows.Err()
}

func (r *snapshotRepository) dumpProjects(ctx context.Context, snap *models.Snapshot) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM student_projects p ORDER BY p.created_at, p.id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.StudentProject
		if err := scanProject(rows, &p); err != nil {
			return err
		}
		snap.Projects = append(snap.Projects, p)
	}
	return rows.Err()
}

func (r *snapshotRepository) dumpAssessments(ctx context.Context, snap *models.Snapshot) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, faculty_id, score, feedback, created_at, updated_at
		FROM project_assessments ORDER BY created_at, id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a models.ProjectAssessment
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.FacultyID, &a.Score, &a.Feedback, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return err
		}
		snap.Assessments = append(snap.Assessments, a)
	}
	return rows.Err()
}

func (r *snapshotRepository) dumpMilestones(ctx context.Context, snap *models.Snapshot) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+milestoneColumns+` FROM project_milestones ORDER BY created_at, id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m models.ProjectMilestone
		if err := scanMilestone(rows, &m); err != nil {
			return err
		}
		snap.Milestones = append(snap.Milestones, m)
	}
	return rows.Err()
}

func (r *snapshotRepository) dumpNotifications(ctx context.Context, snap *models.Snapshot) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, message, is_read, created_at
		FROM notifications ORDER BY created_at, id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return err
		}
		snap.Notifications = append(snap.Notifications, n)
	}
	return rows.Err()
}

// Restore inserts every record of snapshot in foreign key order. The tables are expected to be empty.
func (r *snapshotRepository) Restore(ctx context.Context, snap *models.Snapshot) error {
	for _, u := range snap.Users {
		user := u.User
		user.PasswordHash = []byte(u.PasswordHash)
		if err := (&userRepository{r.PostgresRepository}).Create(ctx, &user); err != nil {
			return fmt.Errorf("restore user %s: %w", u.ID, err)
		}
	}

	for _, t := range snap.Topics {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO project_topics (`+unqualified(topicColumns)+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			t.ID, t.Title, t.Description, t.Technology, t.ProjectType, t.Complexity,
			t.SubmittedBy, t.Status, t.Feedback, t.ReviewedBy, t.ReviewedAt, t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("restore topic %s: %w", t.ID, mapError(err))
		}
	}

	groups := &groupRepository{r.PostgresRepository}
	for i := range snap.Groups {
		if err := groups.Create(ctx, &snap.Groups[i]); err != nil {
			return fmt.Errorf("restore group %s: %w", snap.Groups[i].ID, err)
		}
	}
	for i := range snap.Members {
		if err := groups.AddMember(ctx, &snap.Members[i]); err != nil {
			return fmt.Errorf("restore group member %s: %w", snap.Members[i].ID, err)
		}
	}

	for _, p := range snap.Projects {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO student_projects (`+unqualified(projectColumns)+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			p.ID, p.TopicID, p.StudentID, p.GroupID, p.Term, p.Progress, p.Status, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("restore project %s: %w", p.ID, mapError(err))
		}
	}

	assessments := &assessmentRepository{r.PostgresRepository}
	for i := range snap.Assessments {
		if err := assessments.Upsert(ctx, &snap.Assessments[i]); err != nil {
			return fmt.Errorf("restore assessment %s: %w", snap.Assessments[i].ID, err)
		}
	}

	milestones := &milestoneRepository{r.PostgresRepository}
	for i := range snap.Milestones {
		if err := milestones.Create(ctx, &snap.Milestones[i]); err != nil {
			return fmt.Errorf("restore milestone %s: %w", snap.Milestones[i].ID, err)
		}
	}

	if err := (&notificationRepository{r.PostgresRepository}).CreateBatch(ctx, snap.Notifications); err != nil {
		return fmt.Errorf("restore notifications: %w", err)
	}

	return nil
}

func (r *snapshotRepository) Truncate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		TRUNCATE TABLE notifications, project_milestones, project_assessments, student_projects,
			student_group_members, student_groups, project_topics, users`)
	return err
}
