package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	d, unlock := r.s.begin()
	defer unlock()

	for _, u := range d.users {
		switch {
		case strings.EqualFold(u.Username, user.Username):
			return &repository.DuplicateError{Constraint: repository.ConstraintUserUsername}
		case strings.EqualFold(u.Email, user.Email):
			return &repository.DuplicateError{Constraint: repository.ConstraintUserEmail}
		case u.EnrollmentNumber != nil && user.EnrollmentNumber != nil && *u.EnrollmentNumber == *user.EnrollmentNumber:
			return &repository.DuplicateError{Constraint: repository.ConstraintUserEnrollment}
		}
	}

	d.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	d, unlock := r.s.begin()
	defer unlock()

	u, ok := d.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepository) LockByID(ctx context.Context, id string) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	d, unlock := r.s.begin()
	defer unlock()

	for _, u := range d.users {
		if strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepository) GetByEnrollmentNumbers(ctx context.Context, numbers []string) ([]models.User, error) {
	d, unlock := r.s.begin()
	defer unlock()

	wanted := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		wanted[n] = true
	}

	var users []models.User
	for _, u := range d.users {
		if u.EnrollmentNumber != nil && wanted[*u.EnrollmentNumber] {
			users = append(users, u)
		}
	}
	sortUsers(users)
	return users, nil
}

func (r *userRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	d, unlock := r.s.begin()
	defer unlock()

	users := make([]models.User, 0)
	for _, u := range d.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Search != "" && !containsFold(u.Username, filter.Search) &&
			!containsFold(u.FullName, filter.Search) && !containsFold(u.Email, filter.Search) {
			continue
		}
		users = append(users, u)
	}
	sortUsers(users)

	return page(users, filter.Limit, filter.Offset), len(users), nil
}

func (r *userRepository) CountByRole(ctx context.Context, role models.Role) (int, error) {
	d, unlock := r.s.begin()
	defer unlock()

	n := 0
	for _, u := range d.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].Username < users[j].Username
	})
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
