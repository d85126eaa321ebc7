package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/config"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository/memory"
	"github.com/SwetabhSingh17/APMS-sub001/internal/service/integration"
)

const (
	testTerm     = "2024-fall"
	testPassword = "password123"
)

var testAdmin = config.AdminConfig{
	Username: "admin",
	Email:    "admin@portal.test",
	Password: "admin12345",
	FullName: "Portal Admin",
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store repository.Store
	hash  []byte

	users         UserService
	topics        TopicService
	groups        GroupService
	projects      ProjectService
	evaluation    EvaluationService
	milestones    MilestoneService
	notifications NotificationService
	admin         AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memory.NewStore())
}

func newFixtureWithStore(t *testing.T, store repository.Store) *fixture {
	t.Helper()

	logger := zerolog.Nop()
	notifications := NewNotificationService(Deps{Store: store, Logger: logger})
	deps := Deps{
		Store:     store,
		Publisher: integration.NewLocalPublisher(notifications, logger),
		Logger:    logger,
	}
	portal := config.PortalConfig{MaxGroupSize: 3, CurrentTerm: testTerm}

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	return &fixture{
		t:             t,
		ctx:           context.Background(),
		store:         store,
		hash:          hash,
		users:         NewUserService(deps, testAdmin),
		topics:        NewTopicService(deps),
		groups:        NewGroupService(deps, portal),
		projects:      NewProjectService(deps, portal),
		evaluation:    NewEvaluationService(deps),
		milestones:    NewMilestoneService(deps),
		notifications: notifications,
		admin:         NewAdminService(deps, nil, testAdmin),
	}
}

// user stores an account directly, skipping the slow default bcrypt cost.
func (f *fixture) user(role models.Role, name string) *models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     name,
		Email:        name + "@portal.test",
		FullName:     name,
		PasswordHash: f.hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role == models.RoleStudent {
		enr := "ENR-" + name
		u.EnrollmentNumber = &enr
	}
	require.NoError(f.t, f.store.Users().Create(f.ctx, u))
	return u
}

func (f *fixture) approvedTopic(teacher, coordinator *models.User, title string) *models.ProjectTopic {
	f.t.Helper()

	topic, err := f.topics.Submit(f.ctx, teacher, &models.CreateTopicRequest{
		Title:       title,
		Description: "Build " + title,
		Technology:  "Go",
	})
	require.NoError(f.t, err)

	topic, err = f.topics.Approve(f.ctx, coordinator, topic.ID, nil)
	require.NoError(f.t, err)
	return topic
}

func (f *fixture) unread(u *models.User) []models.Notification {
	f.t.Helper()

	list, err := f.notifications.List(f.ctx, u, true, 0)
	require.NoError(f.t, err)
	return list
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	k, ok := apperrors.KindOf(err)
	require.True(t, ok, "untagged error: %v", err)
	assert.Equal(t, kind, k, "error: %v", err)
}

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)

	user, err := f.users.Register(f.ctx, &models.RegisterRequest{
		Username:         "alice",
		Email:            "Alice@Example.com",
		FullName:         "  Alice   Liddell ",
		Password:         "wonderland",
		Role:             models.RoleStudent,
		EnrollmentNumber: "S-001",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice Liddell", user.FullName)
	require.NotNil(t, user.EnrollmentNumber)

	got, err := f.users.Authenticate(f.ctx, &models.LoginRequest{Login: "ALICE@example.com", Password: "wonderland"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = f.users.Authenticate(f.ctx, &models.LoginRequest{Login: "alice", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	_, err = f.users.Authenticate(f.ctx, &models.LoginRequest{Login: "nobody", Password: "wonderland"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestUserService_RegisterRejectsDuplicatesAndPrivilegedRoles(t *testing.T) {
	f := newFixture(t)
	f.user(models.RoleStudent, "bob")

	_, err := f.users.Register(f.ctx, &models.RegisterRequest{
		Username: "BOB", Email: "other@portal.test", FullName: "Bob", Password: "password1",
		Role: models.RoleStudent, EnrollmentNumber: "S-2",
	})
	assertKind(t, err, apperrors.KindConflict)

	_, err = f.users.Register(f.ctx, &models.RegisterRequest{
		Username: "carol", Email: "carol@portal.test", FullName: "Carol", Password: "password1",
		Role: models.RoleAdmin,
	})
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.users.Register(f.ctx, &models.RegisterRequest{
		Username: "dave", Email: "dave@portal.test", FullName: "Dave", Password: "password1",
		Role: models.RoleStudent,
	})
	assertKind(t, err, apperrors.KindValidation)
}

func TestUserService_CreateUserRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	admin := f.user(models.RoleAdmin, "root")
	coordinator := f.user(models.RoleCoordinator, "coord")

	req := &models.CreateUserRequest{
		Username: "reviewer", Email: "reviewer@portal.test", FullName: "Reviewer",
		Password: "password1", Role: models.RoleCoordinator,
	}
	_, err := f.users.CreateUser(f.ctx, coordinator, req)
	assertKind(t, err, apperrors.KindAuthorization)

	created, err := f.users.CreateUser(f.ctx, admin, req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCoordinator, created.Role)
}

func TestUserService_ListRestrictsTeachersToStudents(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(models.RoleTeacher, "teach")
	coordinator := f.user(models.RoleCoordinator, "coord")
	student := f.user(models.RoleStudent, "stud")

	resp, err := f.users.List(f.ctx, teacher, nil, "", 1, 10)
	require.NoError(t, err)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, student.ID, resp.Users[0].ID)

	role := models.RoleCoordinator
	_, err = f.users.List(f.ctx, teacher, &role, "", 1, 10)
	assertKind(t, err, apperrors.KindAuthorization)

	resp, err = f.users.List(f.ctx, coordinator, nil, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)

	_, err = f.users.List(f.ctx, student, nil, "", 1, 10)
	assertKind(t, err, apperrors.KindAuthorization)
}

func TestUserService_EnsureAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.users.EnsureAdmin(f.ctx))
	require.NoError(t, f.users.EnsureAdmin(f.ctx))

	n, err := f.store.Users().CountByRole(f.ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	admin, err := f.users.Authenticate(f.ctx, &models.LoginRequest{Login: testAdmin.Username, Password: testAdmin.Password})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
}

func TestUserService_GetByIDUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.GetByID(f.ctx, "not-a-uuid")
	assertKind(t, err, apperrors.KindNotFound)

	_, err = f.users.GetByID(f.ctx, uuid.NewString())
	assertKind(t, err, apperrors.KindNotFound)
}

func TestPagination(t *testing.T) {
	tests := []struct {
		page      int
		limit     int
		wantPage  int
		wantLimit int
		wantOff   int
	}{
		{0, 0, 1, defaultPageSize, 0},
		{3, 10, 3, 10, 20},
		{2, 1000, 2, maxPageSize, maxPageSize},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.page, tt.limit), func(t *testing.T) {
			page, limit, offset := pagination(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOff, offset)
		})
	}
}
