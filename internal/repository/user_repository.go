package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

const userColumns = `u.id, u.username, u.email, u.full_name, u.password_hash, u.role,
	u.enrollment_number, u.department, u.created_at, u.updated_at`

type userRepository struct {
	*PostgresRepository
}

func scanUser(s scanner, user *models.User) error {
	return s.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.Role,
		&user.EnrollmentNumber,
		&user.Department,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, full_name, password_hash, role,
			enrollment_number, department, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.Role,
		user.EnrollmentNumber,
		user.Department,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return mapError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	user := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, id), user)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) LockByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1 FOR UPDATE`

	user := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, id), user)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE LOWER(u.username) = $1 OR LOWER(u.email) = $1 LIMIT 1`

	user := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(login)), user)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) GetByEnrollmentNumbers(ctx context.Context, numbers []string) ([]models.User, error) {
	if len(numbers) == 0 {
		return nil, nil
	}

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.enrollment_number = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(numbers))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := scanUser(rows, &user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *userRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var c conditions
	if filter.Role != nil {
		c.add("u.role = $%d", *filter.Role)
	}
	if filter.Search != "" {
		c.add("(u.username ILIKE $%[1]d OR u.full_name ILIKE $%[1]d OR u.email ILIKE $%[1]d)", likePattern(filter.Search))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := c.page(filter.Limit, filter.Offset)
	query := `SELECT ` + userColumns + ` FROM users u` + c.where() + ` ORDER BY u.created_at, u.username` + limit

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		if err := scanUser(rows, &user); err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}

	return users, total, rows.Err()
}

func (r *userRepository) CountByRole(ctx context.Context, role models.Role) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&count)
	return count, err
}
