package service

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/export"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/service/integration"
)

type recordingArchive struct {
	mu    sync.Mutex
	types []string
}

func (a *recordingArchive) Store(_ context.Context, at time.Time, ext, contentType string, _ []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.types = append(a.types, contentType)
	return integration.ExportKey(at, ext), nil
}

// populated builds a portal with one allocated, evaluated project and one two-member group.
func populated(t *testing.T) (*fixture, *models.User) {
	f := newFixture(t)
	admin := f.user(models.RoleAdmin, "root")
	teacher := f.user(models.RoleTeacher, "teach")
	coordinator := f.user(models.RoleCoordinator, "coord")
	student := f.user(models.RoleStudent, "stud")
	leader := f.user(models.RoleStudent, "lead")
	mate := f.user(models.RoleStudent, "mate")

	group, err := f.groups.Create(f.ctx, leader, &models.CreateGroupRequest{
		Name:              "Archivists",
		FacultyID:         teacher.ID,
		EnrollmentNumbers: []string{"ENR-mate"},
	})
	require.NoError(t, err)
	_, err = f.groups.AcceptInvite(f.ctx, mate, group.ID)
	require.NoError(t, err)

	topic := f.approvedTopic(teacher, coordinator, "Archive Me")
	project, err := f.projects.SelectTopic(f.ctx, student, &models.SelectTopicRequest{TopicID: topic.ID})
	require.NoError(t, err)
	_, err = f.evaluation.Evaluate(f.ctx, teacher, project.ID, &models.EvaluateRequest{Marks: intPtr(90)})
	require.NoError(t, err)
	return f, admin
}

func TestAdminService_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	coordinator := f.user(models.RoleCoordinator, "coord")

	_, err := f.admin.Export(f.ctx, coordinator)
	assertKind(t, err, apperrors.KindAuthorization)

	_, err = f.admin.ExportExcel(f.ctx, coordinator)
	assertKind(t, err, apperrors.KindAuthorization)

	_, err = f.admin.Import(f.ctx, coordinator, &models.Snapshot{Version: models.SnapshotVersion})
	assertKind(t, err, apperrors.KindAuthorization)

	assertKind(t, f.admin.Reset(f.ctx, coordinator, &models.ResetRequest{Password: testPassword}), apperrors.KindAuthorization)

	_, err = f.admin.Export(f.ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestAdminService_ExportImportRoundTrip(t *testing.T) {
	f, admin := populated(t)

	snap, err := f.admin.Export(f.ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, models.SnapshotVersion, snap.Version)
	assert.Len(t, snap.Users, 6)
	assert.Len(t, snap.Topics, 1)
	assert.Len(t, snap.Groups, 1)
	assert.Len(t, snap.Members, 2)
	assert.Len(t, snap.Projects, 1)
	assert.Len(t, snap.Assessments, 1)
	assert.NotEmpty(t, snap.Notifications)

	// state added after the export disappears on import
	f.user(models.RoleStudent, "late")

	resp, err := f.admin.Import(f.ctx, admin, snap)
	require.NoError(t, err)
	assert.Equal(t, &models.ImportResponse{Users: 6, Topics: 1, Groups: 1, Projects: 1}, resp)

	after, err := f.admin.Export(f.ctx, admin)
	require.NoError(t, err)
	assert.Len(t, after.Users, 6)
	assert.Equal(t, snap.Projects, after.Projects)
	assert.ElementsMatch(t, snap.Groups, after.Groups)
	assert.ElementsMatch(t, snap.Members, after.Members)
	assert.ElementsMatch(t, snap.Assessments, after.Assessments)

	_, err = f.users.Authenticate(f.ctx, &models.LoginRequest{Login: "stud", Password: testPassword})
	assert.NoError(t, err)
}

func TestAdminService_ImportRejectsBadSnapshots(t *testing.T) {
	f, admin := populated(t)

	snap, err := f.admin.Export(f.ctx, admin)
	require.NoError(t, err)

	wrongVersion := *snap
	wrongVersion.Version = 99
	_, err = f.admin.Import(f.ctx, admin, &wrongVersion)
	assertKind(t, err, apperrors.KindValidation)

	dangling := *snap
	dangling.Topics = nil
	_, err = f.admin.Import(f.ctx, admin, &dangling)
	assertKind(t, err, apperrors.KindValidation)

	unknown := "00000000-0000-0000-0000-000000000042"

	badReviewer := *snap
	badReviewer.Topics = append([]models.ProjectTopic(nil), snap.Topics...)
	badReviewer.Topics[0].ReviewedBy = &unknown
	_, err = f.admin.Import(f.ctx, admin, &badReviewer)
	assertKind(t, err, apperrors.KindValidation)

	badFaculty := *snap
	badFaculty.Groups = append([]models.StudentGroup(nil), snap.Groups...)
	badFaculty.Groups[0].FacultyID = &unknown
	_, err = f.admin.Import(f.ctx, admin, &badFaculty)
	assertKind(t, err, apperrors.KindValidation)

	badAssessor := *snap
	badAssessor.Assessments = append([]models.ProjectAssessment(nil), snap.Assessments...)
	badAssessor.Assessments[0].FacultyID = unknown
	_, err = f.admin.Import(f.ctx, admin, &badAssessor)
	assertKind(t, err, apperrors.KindValidation)

	noAdmin := *snap
	noAdmin.Users = nil
	for _, u := range snap.Users {
		if u.Role != models.RoleAdmin {
			noAdmin.Users = append(noAdmin.Users, u)
		}
	}
	_, err = f.admin.Import(f.ctx, admin, &noAdmin)
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.admin.Import(f.ctx, admin, nil)
	assertKind(t, err, apperrors.KindValidation)

	current, err := f.admin.Export(f.ctx, admin)
	require.NoError(t, err)
	assert.Len(t, current.Users, len(snap.Users))
}

func TestAdminService_ExportExcelArchives(t *testing.T) {
	f, admin := populated(t)
	archive := &recordingArchive{}
	svc := NewAdminService(Deps{Store: f.store, Logger: zerolog.Nop()}, archive, testAdmin)

	data, err := svc.ExportExcel(f.ctx, admin)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")), "xlsx is a zip archive")

	_, err = svc.Export(f.ctx, admin)
	require.NoError(t, err)

	assert.Equal(t, []string{export.ContentType, "application/json"}, archive.types)
}

func TestAdminService_Reset(t *testing.T) {
	f, admin := populated(t)

	err := f.admin.Reset(f.ctx, admin, &models.ResetRequest{Password: "not-my-password"})
	assertKind(t, err, apperrors.KindAuthorization)

	require.NoError(t, f.admin.Reset(f.ctx, admin, &models.ResetRequest{Password: testPassword}))

	users, _, err := f.store.Users().List(f.ctx, models.UserFilter{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, testAdmin.Username, users[0].Username)
	assert.Equal(t, models.RoleAdmin, users[0].Role)

	topics, total, err := f.store.Topics().List(f.ctx, models.TopicFilter{})
	require.NoError(t, err)
	assert.Empty(t, topics)
	assert.Zero(t, total)
}
