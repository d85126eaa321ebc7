package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/auth"
	"github.com/SwetabhSingh17/APMS-sub001/internal/config"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository"
	"github.com/SwetabhSingh17/APMS-sub001/internal/validation"
)

type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	CreateUser(ctx context.Context, actor *models.User, req *models.CreateUserRequest) (*models.User, error)
	Authenticate(ctx context.Context, req *models.LoginRequest) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, actor *models.User, role *models.Role, search string, page, limit int) (*models.UsersResponse, error)
	EnsureAdmin(ctx context.Context) error
}

var errInvalidCredentials = apperrors.Wrap(apperrors.KindAuthorization, apperrors.ErrUnauthenticated, "invalid username or password")

type userService struct {
	base
	admin config.AdminConfig
}

func NewUserService(d Deps, admin config.AdminConfig) UserService {
	return &userService{base: newBase(d, "users"), admin: admin}
}

func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	return s.create(ctx, models.CreateUserRequest(*req))
}

func (s *userService) CreateUser(ctx context.Context, actor *models.User, req *models.CreateUserRequest) (*models.User, error) {
	if err := auth.Require(actor, auth.CapUserCreate); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.create(ctx, *req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("actor_id", actor.ID).
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("User created by admin")
	return user, nil
}

func (s *userService) create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	now := s.now()
	user := &models.User{
		ID:        uuid.NewString(),
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:  validation.CleanString(req.FullName),
		Role:      req.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if enr := strings.TrimSpace(req.EnrollmentNumber); enr != "" {
		user.EnrollmentNumber = &enr
	}
	if dept := validation.CleanString(req.Department); dept != "" {
		user.Department = &dept
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, conflictFromDuplicate(err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Msg("User registered")

	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByLogin(ctx, strings.TrimSpace(req.Login))
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || user.CheckPassword(req.Password) != nil {
		s.logger.Warn().Str("login", req.Login).Msg("Failed login attempt")
		return nil, errInvalidCredentials
	}

	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, apperrors.NotFound("user not found")
	}

	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}
	return user, nil
}

// List lets teachers look up students only, which is what they need to pick group faculty and invitees.
func (s *userService) List(ctx context.Context, actor *models.User, role *models.Role, search string, page, limit int) (*models.UsersResponse, error) {
	if err := auth.Require(actor, auth.CapUserList); err != nil {
		return nil, err
	}
	if role != nil && !role.Valid() {
		return nil, apperrors.Validation("unknown role %q", *role)
	}
	if actor.Role == models.RoleTeacher {
		if role != nil && *role != models.RoleStudent {
			return nil, apperrors.Forbidden("teachers can only list students")
		}
		student := models.RoleStudent
		role = &student
	}

	page, limit, offset := pagination(page, limit)
	users, total, err := s.store.Users().List(ctx, models.UserFilter{
		Role:   role,
		Search: strings.TrimSpace(search),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &models.UsersResponse{Users: users, Total: total, Page: page, Limit: limit}, nil
}

// EnsureAdmin seeds the configured administrator when the store holds none.
func (s *userService) EnsureAdmin(ctx context.Context) error {
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		return seedAdmin(ctx, tx, s.admin, &s.base)
	})
}

func seedAdmin(ctx context.Context, tx repository.Store, cfg config.AdminConfig, b *base) error {
	count, err := tx.Users().CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	at := b.now()
	admin := &models.User{
		ID:        uuid.NewString(),
		Username:  cfg.Username,
		Email:     strings.ToLower(cfg.Email),
		FullName:  cfg.FullName,
		Role:      models.RoleAdmin,
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := admin.SetPassword(cfg.Password); err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	if err := tx.Users().Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", conflictFromDuplicate(err))
	}

	b.logger.Info().Str("username", admin.Username).Msg("Bootstrap admin created")
	return nil
}
