package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

const groupColumns = `g.id, g.name, g.description, g.faculty_id, g.leader_id, g.max_size, g.created_at, g.updated_at`

type groupRepository struct {
	*PostgresRepository
}

func scanGroup(s scanner, group *models.StudentGroup) error {
	return s.Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.FacultyID,
		&group.LeaderID,
		&group.MaxSize,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
}

func (r *groupRepository) Create(ctx context.Context, group *models.StudentGroup) error {
	query := `
		INSERT INTO student_groups (id, name, description, faculty_id, leader_id, max_size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		group.ID,
		group.Name,
		group.Description,
		group.FacultyID,
		group.LeaderID,
		group.MaxSize,
		group.CreatedAt,
		group.UpdatedAt,
	)

	return mapError(err)
}

func (r *groupRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.StudentGroup, error) {
	group := &models.StudentGroup{}
	err := scanGroup(r.db.QueryRowContext(ctx, query, args...), group)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*models.StudentGroup, error) {
	return r.getOne(ctx, `SELECT `+groupColumns+` FROM student_groups g WHERE g.id = $1`, id)
}

func (r *groupRepository) LockByID(ctx context.Context, id string) (*models.StudentGroup, error) {
	return r.getOne(ctx, `SELECT `+groupColumns+` FROM student_groups g WHERE g.id = $1 FOR UPDATE`, id)
}

func (r *groupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	query := `
		INSERT INTO student_group_members (id, group_id, user_id, status, invited_at, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		member.ID,
		member.GroupID,
		member.UserID,
		member.Status,
		member.InvitedAt,
		member.RespondedAt,
	)

	return mapError(err)
}

func (r *groupRepository) GetMember(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	query := `
		SELECT id, group_id, user_id, status, invited_at, responded_at
		FROM student_group_members
		WHERE group_id = $1 AND user_id = $2
	`

	member := &models.GroupMember{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(
		&member.ID,
		&member.GroupID,
		&member.UserID,
		&member.Status,
		&member.InvitedAt,
		&member.RespondedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return member, nil
}

// CountMembers counts accepted members and outstanding invitations, both of which occupy a slot.
func (r *groupRepository) CountMembers(ctx context.Context, groupID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM student_group_members WHERE group_id = $1`, groupID,
	).Scan(&count)
	return count, err
}

func (r *groupRepository) AcceptMember(ctx context.Context, groupID, userID string, at time.Time) (bool, error) {
	query := `
		UPDATE student_group_members
		SET status = 'accepted', responded_at = $1
		WHERE group_id = $2 AND user_id = $3 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, at, groupID, userID)
	if err != nil {
		return false, mapError(err)
	}

	return affected(result)
}

func (r *groupRepository) RemovePendingMember(ctx context.Context, groupID, userID string) (bool, error) {
	query := `DELETE FROM student_group_members WHERE group_id = $1 AND user_id = $2 AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, groupID, userID)
	if err != nil {
		return false, err
	}

	return affected(result)
}

func (r *groupRepository) ListMembers(ctx context.Context, groupID string) ([]models.GroupMemberDetails, error) {
	query := `
		SELECT m.id, m.group_id, m.user_id, m.status, m.invited_at, m.responded_at,
			u.username, u.full_name, u.enrollment_number
		FROM student_group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.invited_at, u.username
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.GroupMemberDetails, 0)
	for rows.Next() {
		var m models.GroupMemberDetails
		err := rows.Scan(
			&m.ID,
			&m.GroupID,
			&m.UserID,
			&m.Status,
			&m.InvitedAt,
			&m.RespondedAt,
			&m.Username,
			&m.FullName,
			&m.EnrollmentNumber,
		)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

func (r *groupRepository) GetAcceptedGroupForUser(ctx context.Context, userID string) (*models.StudentGroup, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM student_groups g
		JOIN student_group_members m ON m.group_id = g.id
		WHERE m.user_id = $1 AND m.status = 'accepted'
	`
	return r.getOne(ctx, query, userID)
}

func (r *groupRepository) ListByUser(ctx context.Context, userID string) ([]models.StudentGroup, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM student_groups g
		JOIN student_group_members m ON m.group_id = g.id
		WHERE m.user_id = $1 AND m.status = 'accepted'
		ORDER BY g.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]models.StudentGroup, 0)
	for rows.Next() {
		var group models.StudentGroup
		if err := scanGroup(rows, &group); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	return groups, rows.Err()
}

func (r *groupRepository) ListInvites(ctx context.Context, userID string) ([]models.GroupInvite, error) {
	query := `
		SELECT g.id, g.name, g.leader_id, u.full_name, m.invited_at
		FROM student_group_members m
		JOIN student_groups g ON g.id = m.group_id
		JOIN users u ON u.id = g.leader_id
		WHERE m.user_id = $1 AND m.status = 'pending'
		ORDER BY m.invited_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := make([]models.GroupInvite, 0)
	for rows.Next() {
		var inv models.GroupInvite
		if err := rows.Scan(&inv.GroupID, &inv.GroupName, &inv.LeaderID, &inv.LeaderName, &inv.InvitedAt); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}

	return invites, rows.Err()
}
