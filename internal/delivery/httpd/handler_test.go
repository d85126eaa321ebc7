package httpd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/auth"
	"github.com/SwetabhSingh17/APMS-sub001/internal/config"
	"github.com/SwetabhSingh17/APMS-sub001/internal/export"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository/memory"
	"github.com/SwetabhSingh17/APMS-sub001/internal/service"
	"github.com/SwetabhSingh17/APMS-sub001/internal/service/integration"
	"github.com/SwetabhSingh17/APMS-sub001/pkg/hash"
)

var testAdmin = config.AdminConfig{
	Username: "admin",
	Email:    "admin@portal.test",
	Password: "admin12345",
	FullName: "Portal Admin",
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Error   string                 `json:"error"`
	Kind    string                 `json:"kind"`
	Message string                 `json:"message"`
	Fields  []apperrors.FieldError `json:"fields"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.NewStore()
	logger := zerolog.Nop()
	notifications := service.NewNotificationService(service.Deps{Store: store, Logger: logger})
	deps := service.Deps{
		Store:     store,
		Publisher: integration.NewLocalPublisher(notifications, logger),
		Logger:    logger,
	}
	portal := config.PortalConfig{MaxGroupSize: 4, CurrentTerm: "2024-fall"}

	users := service.NewUserService(deps, testAdmin)
	require.NoError(t, users.EnsureAdmin(context.Background()))

	services := Services{
		Users:         users,
		Topics:        service.NewTopicService(deps),
		Groups:        service.NewGroupService(deps, portal),
		Projects:      service.NewProjectService(deps, portal),
		Evaluation:    service.NewEvaluationService(deps),
		Milestones:    service.NewMilestoneService(deps),
		Notifications: notifications,
		Admin:         service.NewAdminService(deps, nil, testAdmin),
	}
	sessions := auth.NewSessionManager(auth.SessionConfig{Name: "portal_session", Secret: "test-secret", MaxAge: 3600})

	router := chi.NewRouter()
	NewHandler(services, sessions, store, 1<<20, logger).RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func (c *client) raw(method, path string, body interface{}) *http.Response {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	return resp
}

func (c *client) do(method, path string, body interface{}) (int, envelope) {
	c.t.Helper()

	resp := c.raw(method, path, body)
	defer resp.Body.Close()

	var env envelope
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

// expect performs the call, asserts the status and decodes data into out when out is non-nil.
func (c *client) expect(status int, method, path string, body, out interface{}) envelope {
	c.t.Helper()

	code, env := c.do(method, path, body)
	require.Equal(c.t, status, code, "%s %s: %s", method, path, env.Message)
	if out != nil {
		require.NoError(c.t, json.Unmarshal(env.Data, out))
	}
	return env
}

func (c *client) login(login, password string) models.User {
	c.t.Helper()

	var user models.User
	c.expect(http.StatusOK, http.MethodPost, "/api/auth/login", models.LoginRequest{Login: login, Password: password}, &user)
	return user
}

func (c *client) register(role models.Role, username, enrollment string) models.User {
	c.t.Helper()

	var user models.User
	c.expect(http.StatusCreated, http.MethodPost, "/api/auth/register", models.RegisterRequest{
		Username:         username,
		Email:            username + "@portal.test",
		FullName:         username,
		Password:         "password123",
		Role:             role,
		EnrollmentNumber: enrollment,
	}, &user)
	c.login(username, "password123")
	return user
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv)

	code, env := c.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthenticated", env.Kind)

	code, env = c.do(http.MethodPost, "/api/auth/login", models.LoginRequest{Login: "admin", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthenticated", env.Kind)

	admin := c.login("admin", testAdmin.Password)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	var me models.User
	c.expect(http.StatusOK, http.MethodGet, "/api/auth/me", nil, &me)
	assert.Equal(t, admin.ID, me.ID)

	c.expect(http.StatusOK, http.MethodPost, "/api/auth/logout", nil, nil)
	code, _ = c.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv)

	code, env := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "x",
		"email":    "not-an-email",
		"password": "short",
		"role":     "student",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(apperrors.KindValidation), env.Kind)

	fields := map[string]bool{}
	for _, f := range env.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
	assert.True(t, fields["enrollmentNumber"])

	code, env = c.do(http.MethodPost, "/api/auth/register", map[string]string{"unexpected": "field"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "invalid request body")

	c.register(models.RoleStudent, "first", "E-1")
	code, env = newClient(t, srv).do(http.MethodPost, "/api/auth/register", models.RegisterRequest{
		Username: "second", Email: "second@portal.test", FullName: "Second", Password: "password123",
		Role: models.RoleStudent, EnrollmentNumber: "E-1",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, string(apperrors.KindConflict), env.Kind)
}

func TestPortalWorkflow(t *testing.T) {
	srv := newTestServer(t)

	admin := newClient(t, srv)
	admin.login("admin", testAdmin.Password)
	admin.expect(http.StatusCreated, http.MethodPost, "/api/users", models.CreateUserRequest{
		Username: "coord", Email: "coord@portal.test", FullName: "Coordinator",
		Password: "password123", Role: models.RoleCoordinator,
	}, nil)

	coordinator := newClient(t, srv)
	coordinator.login("coord", "password123")

	teacher := newClient(t, srv)
	teacher.register(models.RoleTeacher, "teach", "")

	alice := newClient(t, srv)
	alice.register(models.RoleStudent, "alice", "E-100")
	bob := newClient(t, srv)
	bob.register(models.RoleStudent, "bob", "E-200")

	var topic models.ProjectTopic
	teacher.expect(http.StatusCreated, http.MethodPost, "/api/topics", models.CreateTopicRequest{
		Title: "Lab Booking", Description: "Reserve lab slots", Technology: "Go", ProjectType: "web",
	}, &topic)

	code, _ := alice.do(http.MethodGet, "/api/topics/pending", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = teacher.do(http.MethodPost, "/api/topics/"+topic.ID+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, code)

	var pending models.TopicsResponse
	coordinator.expect(http.StatusOK, http.MethodGet, "/api/topics/pending", nil, &pending)
	assert.Equal(t, 1, pending.Total)

	coordinator.expect(http.StatusOK, http.MethodPost, "/api/topics/"+topic.ID+"/approve",
		map[string]string{"feedback": "go ahead"}, &topic)
	assert.Equal(t, models.TopicStatusApproved, topic.Status)

	code, env := coordinator.do(http.MethodPost, "/api/topics/"+topic.ID+"/reject", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, string(apperrors.KindConflict), env.Kind)

	var approved models.TopicsResponse
	alice.expect(http.StatusOK, http.MethodGet, "/api/topics/approved?available=true&technology=go", nil, &approved)
	require.Len(t, approved.Topics, 1)

	var project models.StudentProject
	alice.expect(http.StatusCreated, http.MethodPost, "/api/projects", models.SelectTopicRequest{TopicID: topic.ID}, &project)

	code, env = bob.do(http.MethodPost, "/api/projects", models.SelectTopicRequest{TopicID: topic.ID})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, string(apperrors.KindConflict), env.Kind)

	alice.expect(http.StatusOK, http.MethodGet, "/api/topics/approved?available=true", nil, &approved)
	assert.Empty(t, approved.Topics)

	var details models.ProjectWithDetails
	teacher.expect(http.StatusOK, http.MethodPut, "/api/projects/"+project.ID+"/progress",
		map[string]int{"progress": 60}, &details)
	assert.Equal(t, 60, details.Progress)

	code, _ = bob.do(http.MethodGet, "/api/projects/"+project.ID, nil)
	assert.Equal(t, http.StatusForbidden, code)

	var milestone models.ProjectMilestone
	teacher.expect(http.StatusCreated, http.MethodPost, "/api/projects/"+project.ID+"/milestones",
		map[string]string{"title": "Prototype", "dueDate": "2030-01-15T00:00:00Z"}, &milestone)
	alice.expect(http.StatusOK, http.MethodPost, "/api/milestones/"+milestone.ID+"/complete", nil, &milestone)
	assert.Equal(t, models.MilestoneStatusCompleted, milestone.Status)

	teacher.expect(http.StatusOK, http.MethodPost, "/api/projects/"+project.ID+"/evaluate",
		map[string]interface{}{"marks": 88, "feedback": "well done"}, nil)

	var assessment models.ProjectAssessment
	alice.expect(http.StatusOK, http.MethodGet, "/api/projects/"+project.ID+"/assessment", nil, &assessment)
	assert.Equal(t, 88, assessment.Score)

	var inbox []models.Notification
	alice.expect(http.StatusOK, http.MethodGet, "/api/notifications?unread=true", nil, &inbox)
	assert.Len(t, inbox, 2)

	alice.expect(http.StatusOK, http.MethodPost, "/api/notifications/"+inbox[0].ID+"/read", nil, nil)
	code, _ = bob.do(http.MethodPost, "/api/notifications/"+inbox[1].ID+"/read", nil)
	assert.Equal(t, http.StatusNotFound, code)

	var marked map[string]int64
	alice.expect(http.StatusOK, http.MethodPost, "/api/notifications/read-all", nil, &marked)
	assert.Equal(t, int64(1), marked["updated"])

	var projects models.ProjectsResponse
	coordinator.expect(http.StatusOK, http.MethodGet, "/api/projects", nil, &projects)
	assert.Equal(t, 1, projects.Total)
}

func TestGroupEndpoints(t *testing.T) {
	srv := newTestServer(t)

	leader := newClient(t, srv)
	leader.register(models.RoleStudent, "leader", "E-1")
	member := newClient(t, srv)
	member.register(models.RoleStudent, "member", "E-2")

	var group models.GroupWithMembers
	leader.expect(http.StatusCreated, http.MethodPost, "/api/student-groups", models.CreateGroupRequest{
		Name: "Gophers", EnrollmentNumbers: []string{"E-2"},
	}, &group)
	assert.Len(t, group.Members, 2)

	var invites []models.GroupInvite
	member.expect(http.StatusOK, http.MethodGet, "/api/groups/invites", nil, &invites)
	require.Len(t, invites, 1)

	member.expect(http.StatusOK, http.MethodPost, "/api/groups/invite/"+group.ID+"/accept", nil, &group)
	assert.Equal(t, 2, group.AcceptedCount())

	code, _ := member.do(http.MethodPost, "/api/student-groups/"+group.ID+"/invite",
		models.InviteMembersRequest{EnrollmentNumbers: []string{"E-9"}})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = leader.do(http.MethodPost, "/api/student-groups/"+group.ID+"/invite",
		models.InviteMembersRequest{EnrollmentNumbers: []string{"E-9"}})
	assert.Equal(t, http.StatusNotFound, code)

	var mine []models.GroupWithMembers
	member.expect(http.StatusOK, http.MethodGet, "/api/student-groups/mine", nil, &mine)
	assert.Len(t, mine, 1)

	leader.expect(http.StatusOK, http.MethodGet, "/api/student-groups/"+group.ID, nil, nil)
}

func TestAdminEndpoints(t *testing.T) {
	srv := newTestServer(t)

	student := newClient(t, srv)
	student.register(models.RoleStudent, "stud", "E-1")
	code, _ := student.do(http.MethodPost, "/api/admin/export", nil)
	assert.Equal(t, http.StatusForbidden, code)

	admin := newClient(t, srv)
	admin.login("admin", testAdmin.Password)

	var snap models.Snapshot
	admin.expect(http.StatusOK, http.MethodPost, "/api/admin/export", nil, &snap)
	assert.Len(t, snap.Users, 2)

	resp := admin.raw(http.MethodPost, "/api/admin/export-excel", nil)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.ContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.True(t, bytes.HasPrefix(body, []byte("PK")))
	ok, err := hash.New(hash.SHA256).Verify(body, resp.Header.Get("X-Checksum-Sha256"))
	require.NoError(t, err)
	assert.True(t, ok)

	var imported models.ImportResponse
	admin.expect(http.StatusOK, http.MethodPost, "/api/admin/import", snap, &imported)
	assert.Equal(t, 2, imported.Users)

	code, _ = admin.do(http.MethodPost, "/api/admin/reset", models.ResetRequest{Password: "nope"})
	assert.Equal(t, http.StatusForbidden, code)

	admin.expect(http.StatusOK, http.MethodPost, "/api/admin/reset", models.ResetRequest{Password: testAdmin.Password}, nil)

	code, _ = admin.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = student.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	admin.login("admin", testAdmin.Password)
}
