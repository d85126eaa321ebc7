package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

func TestGroupService_CreateInviteAccept(t *testing.T) {
	f := newFixture(t)
	teacher := f.user(models.RoleTeacher, "teach")
	leader := f.user(models.RoleStudent, "lead")
	member := f.user(models.RoleStudent, "mem")

	group, err := f.groups.Create(f.ctx, leader, &models.CreateGroupRequest{
		Name:              "Team Rocket",
		FacultyID:         teacher.ID,
		EnrollmentNumbers: []string{*member.EnrollmentNumber},
	})
	require.NoError(t, err)
	assert.Equal(t, leader.ID, group.LeaderID)
	assert.Equal(t, 3, group.MaxSize)
	require.Len(t, group.Members, 2)
	assert.Equal(t, 1, group.AcceptedCount())

	invites, err := f.groups.ListInvites(f.ctx, member)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	assert.Equal(t, group.ID, invites[0].GroupID)

	inbox := f.unread(member)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.EventGroupInvited, inbox[0].Type)

	joined, err := f.groups.AcceptInvite(f.ctx, member, group.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, joined.AcceptedCount())

	_, err = f.groups.AcceptInvite(f.ctx, member, group.ID)
	assertKind(t, err, apperrors.KindConflict)

	inbox = f.unread(leader)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.EventGroupJoined, inbox[0].Type)

	got, err := f.groups.Get(f.ctx, teacher, group.ID)
	require.NoError(t, err)
	assert.Equal(t, group.ID, got.ID)

	mine, err := f.groups.ListMine(f.ctx, member)
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestGroupService_SizeLimitCountsPendingInvites(t *testing.T) {
	f := newFixture(t)
	leader := f.user(models.RoleStudent, "lead")
	a := f.user(models.RoleStudent, "a")
	b := f.user(models.RoleStudent, "b")
	c := f.user(models.RoleStudent, "c")

	_, err := f.groups.Create(f.ctx, leader, &models.CreateGroupRequest{
		Name:              "Too Big",
		EnrollmentNumbers: []string{*a.EnrollmentNumber, *b.EnrollmentNumber, *c.EnrollmentNumber},
	})
	assertKind(t, err, apperrors.KindValidation)

	group, err := f.groups.Create(f.ctx, leader, &models.CreateGroupRequest{
		Name:              "Just Right",
		EnrollmentNumbers: []string{*a.EnrollmentNumber, *b.EnrollmentNumber},
	})
	require.NoError(t, err)

	_, err = f.groups.Invite(f.ctx, leader, group.ID, &models.InviteMembersRequest{
		EnrollmentNumbers: []string{*c.EnrollmentNumber},
	})
	assertKind(t, err, apperrors.KindConflict)

	require.NoError(t, f.groups.DeclineInvite(f.ctx, b, group.ID))

	updated, err := f.groups.Invite(f.ctx, leader, group.ID, &models.InviteMembersRequest{
		EnrollmentNumbers: []string{*c.EnrollmentNumber},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Members, 3)
}

func TestGroupService_InviteRules(t *testing.T) {
	f := newFixture(t)
	leader := f.user(models.RoleStudent, "lead")
	a := f.user(models.RoleStudent, "a")
	teacher := f.user(models.RoleTeacher, "teach")

	_, err := f.groups.Create(f.ctx, leader, &models.CreateGroupRequest{
		Name:              "Self",
		EnrollmentNumbers: []string{*leader.EnrollmentNumber},
	})
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.groups.Create(f.ctx, leader, &models.CreateGroupRequest{
		Name:              "Ghost",
		EnrollmentNumbers: []string{"NOPE"},
	})
	assertKind(t, err, apperrors.KindNotFound)

	_, err = f.groups.Create(f.ctx, leader, &models.CreateGroupRequest{
		Name:      "Wrong Faculty",
		FacultyID: a.ID,
	})
	assertKind(t, err, apperrors.KindValidation)

	group, err := f.groups.Create(f.ctx, leader, &models.CreateGroupRequest{Name: "Solo Start"})
	require.NoError(t, err)

	_, err = f.groups.Invite(f.ctx, a, group.ID, &models.InviteMembersRequest{
		EnrollmentNumbers: []string{*a.EnrollmentNumber},
	})
	assertKind(t, err, apperrors.KindAuthorization)

	_, err = f.groups.Invite(f.ctx, leader, group.ID, &models.InviteMembersRequest{
		EnrollmentNumbers: []string{*a.EnrollmentNumber, *a.EnrollmentNumber},
	})
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.groups.Invite(f.ctx, leader, group.ID, &models.InviteMembersRequest{
		EnrollmentNumbers: []string{*a.EnrollmentNumber},
	})
	require.NoError(t, err)
	_, err = f.groups.Invite(f.ctx, leader, group.ID, &models.InviteMembersRequest{
		EnrollmentNumbers: []string{*a.EnrollmentNumber},
	})
	assertKind(t, err, apperrors.KindConflict)

	_, err = f.groups.Create(f.ctx, leader, &models.CreateGroupRequest{Name: "Second"})
	assertKind(t, err, apperrors.KindConflict)

	_, err = f.groups.Create(f.ctx, teacher, &models.CreateGroupRequest{Name: "Faculty"})
	assertKind(t, err, apperrors.KindAuthorization)
}

func TestGroupService_OneAcceptedGroupPerStudent(t *testing.T) {
	f := newFixture(t)
	first := f.user(models.RoleStudent, "first")
	second := f.user(models.RoleStudent, "second")
	joiner := f.user(models.RoleStudent, "joiner")

	g1, err := f.groups.Create(f.ctx, first, &models.CreateGroupRequest{
		Name: "One", EnrollmentNumbers: []string{*joiner.EnrollmentNumber},
	})
	require.NoError(t, err)
	g2, err := f.groups.Create(f.ctx, second, &models.CreateGroupRequest{
		Name: "Two", EnrollmentNumbers: []string{*joiner.EnrollmentNumber},
	})
	require.NoError(t, err)

	_, err = f.groups.AcceptInvite(f.ctx, joiner, g1.ID)
	require.NoError(t, err)

	_, err = f.groups.AcceptInvite(f.ctx, joiner, g2.ID)
	assertKind(t, err, apperrors.KindConflict)

	assertKind(t, f.groups.DeclineInvite(f.ctx, joiner, g1.ID), apperrors.KindConflict)
	require.NoError(t, f.groups.DeclineInvite(f.ctx, joiner, g2.ID))

	_, err = f.groups.AcceptInvite(f.ctx, joiner, g2.ID)
	assertKind(t, err, apperrors.KindAuthorization)
}

func TestGroupService_GetVisibility(t *testing.T) {
	f := newFixture(t)
	leader := f.user(models.RoleStudent, "lead")
	outsider := f.user(models.RoleStudent, "out")
	coordinator := f.user(models.RoleCoordinator, "coord")

	group, err := f.groups.Create(f.ctx, leader, &models.CreateGroupRequest{Name: "Private"})
	require.NoError(t, err)

	_, err = f.groups.Get(f.ctx, outsider, group.ID)
	assertKind(t, err, apperrors.KindAuthorization)

	_, err = f.groups.Get(f.ctx, coordinator, group.ID)
	require.NoError(t, err)

	_, err = f.groups.Get(f.ctx, coordinator, "bad-id")
	assertKind(t, err, apperrors.KindNotFound)
}
