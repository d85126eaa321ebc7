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

type GroupService interface {
	Create(ctx context.Context, actor *models.User, req *models.CreateGroupRequest) (*models.GroupWithMembers, error)
	Invite(ctx context.Context, actor *models.User, groupID string, req *models.InviteMembersRequest) (*models.GroupWithMembers, error)
	AcceptInvite(ctx context.Context, actor *models.User, groupID string) (*models.GroupWithMembers, error)
	DeclineInvite(ctx context.Context, actor *models.User, groupID string) error
	Get(ctx context.Context, actor *models.User, groupID string) (*models.GroupWithMembers, error)
	ListMine(ctx context.Context, actor *models.User) ([]models.GroupWithMembers, error)
	ListInvites(ctx context.Context, actor *models.User) ([]models.GroupInvite, error)
}

type groupService struct {
	base
	portal config.PortalConfig
}

func NewGroupService(d Deps, portal config.PortalConfig) GroupService {
	if portal.MaxGroupSize < 1 {
		portal.MaxGroupSize = models.DefaultMaxGroupSize
	}
	return &groupService{base: newBase(d, "groups"), portal: portal}
}

func (s *groupService) Create(ctx context.Context, actor *models.User, req *models.CreateGroupRequest) (*models.GroupWithMembers, error) {
	if err := auth.Require(actor, auth.CapGroupCreate); err != nil {
		return nil, err
	}
	req.Name = validation.CleanString(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	numbers, err := normalizeEnrollments(req.EnrollmentNumbers)
	if err != nil {
		return nil, err
	}
	if actor.EnrollmentNumber != nil {
		for _, n := range numbers {
			if n == *actor.EnrollmentNumber {
				return nil, apperrors.Validation("the group leader cannot invite themselves")
			}
		}
	}
	if 1+len(numbers) > s.portal.MaxGroupSize {
		return nil, apperrors.Validation("a group can have at most %d members", s.portal.MaxGroupSize)
	}

	now := s.now()
	group := &models.StudentGroup{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		LeaderID:    actor.ID,
		MaxSize:     s.portal.MaxGroupSize,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var (
		result *models.GroupWithMembers
		events []models.Event
	)
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := lockStudent(ctx, tx, actor.ID); err != nil {
			return err
		}

		existing, err := tx.Groups().GetAcceptedGroupForUser(ctx, actor.ID)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if existing != nil {
			return apperrors.Conflict("you already belong to group %q", existing.Name)
		}
		if err := s.ensureNoSoloProject(ctx, tx, actor.ID); err != nil {
			return err
		}

		if req.FacultyID != "" {
			faculty, err := tx.Users().GetByID(ctx, req.FacultyID)
			if err != nil {
				return fmt.Errorf("failed to load faculty: %w", err)
			}
			if faculty == nil || faculty.Role != models.RoleTeacher {
				return apperrors.ValidationFields("facultyId: must reference a teacher",
					apperrors.FieldError{Field: "facultyId", Error: "must reference a teacher"})
			}
			group.FacultyID = &faculty.ID
		}

		invitees, err := resolveStudents(ctx, tx, numbers)
		if err != nil {
			return err
		}

		if err := tx.Groups().Create(ctx, group); err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}

		leader := &models.GroupMember{
			ID:          uuid.NewString(),
			GroupID:     group.ID,
			UserID:      actor.ID,
			Status:      models.MemberStatusAccepted,
			InvitedAt:   now,
			RespondedAt: &now,
		}
		if err := tx.Groups().AddMember(ctx, leader); err != nil {
			return conflictFromDuplicate(err)
		}

		ids, err := s.invite(ctx, tx, group.ID, invitees)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			events = append(events, s.event(models.EventGroupInvited, actor.ID, group.ID,
				fmt.Sprintf("%s invited you to join group %q", actor.FullName, group.Name), ids...))
		}

		result, err = withMembers(ctx, tx, group)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("group_id", group.ID).
		Str("actor_id", actor.ID).
		Int("invited", len(numbers)).
		Msg("Group created")

	s.publish(ctx, events...)
	return result, nil
}

// Invite adds pending members to an existing group. The group row is locked so that concurrent
// invitations cannot overshoot the size limit; pending invitations count against it.
func (s *groupService) Invite(ctx context.Context, actor *models.User, groupID string, req *models.InviteMembersRequest) (*models.GroupWithMembers, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	numbers, err := normalizeEnrollments(req.EnrollmentNumbers)
	if err != nil {
		return nil, err
	}
	if !validID(groupID) {
		return nil, apperrors.NotFound("group not found")
	}

	var (
		result *models.GroupWithMembers
		events []models.Event
	)
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		group, err := tx.Groups().LockByID(ctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to lock group: %w", err)
		}
		if group == nil {
			return apperrors.NotFound("group not found")
		}
		if group.LeaderID != actor.ID {
			return apperrors.Forbidden("only the group leader can invite members")
		}

		count, err := tx.Groups().CountMembers(ctx, group.ID)
		if err != nil {
			return fmt.Errorf("failed to count members: %w", err)
		}
		if count+len(numbers) > group.MaxSize {
			return apperrors.Conflict("group %q has %d of %d places taken", group.Name, count, group.MaxSize)
		}

		invitees, err := resolveStudents(ctx, tx, numbers)
		if err != nil {
			return err
		}
		for _, u := range invitees {
			member, err := tx.Groups().GetMember(ctx, group.ID, u.ID)
			if err != nil {
				return fmt.Errorf("failed to check member: %w", err)
			}
			if member != nil {
				return apperrors.Conflict("%s is already a member of or invited to this group", u.FullName)
			}
		}

		ids, err := s.invite(ctx, tx, group.ID, invitees)
		if err != nil {
			return err
		}
		events = append(events, s.event(models.EventGroupInvited, actor.ID, group.ID,
			fmt.Sprintf("%s invited you to join group %q", actor.FullName, group.Name), ids...))

		result, err = withMembers(ctx, tx, group)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("group_id", groupID).
		Str("actor_id", actor.ID).
		Int("invited", len(numbers)).
		Msg("Members invited")

	s.publish(ctx, events...)
	return result, nil
}

func (s *groupService) invite(ctx context.Context, tx repository.Store, groupID string, invitees []models.User) ([]string, error) {
	ids := make([]string, 0, len(invitees))
	for _, u := range invitees {
		m := &models.GroupMember{
			ID:        uuid.NewString(),
			GroupID:   groupID,
			UserID:    u.ID,
			Status:    models.MemberStatusPending,
			InvitedAt: s.now(),
		}
		if err := tx.Groups().AddMember(ctx, m); err != nil {
			return nil, conflictFromDuplicate(err)
		}
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (s *groupService) AcceptInvite(ctx context.Context, actor *models.User, groupID string) (*models.GroupWithMembers, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !validID(groupID) {
		return nil, apperrors.NotFound("group not found")
	}

	var (
		result *models.GroupWithMembers
		events []models.Event
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		// taken before any read, as in SelectTopic and Create
		if err := lockStudent(ctx, tx, actor.ID); err != nil {
			return err
		}

		group, member, err := s.invitation(ctx, tx, actor, groupID)
		if err != nil {
			return err
		}
		if member.Status == models.MemberStatusAccepted {
			return apperrors.Conflict("you have already joined group %q", group.Name)
		}

		other, err := tx.Groups().GetAcceptedGroupForUser(ctx, actor.ID)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if other != nil {
			return apperrors.Conflict("you already belong to group %q", other.Name)
		}
		if err := s.ensureNoSoloProject(ctx, tx, actor.ID); err != nil {
			return err
		}

		ok, err := tx.Groups().AcceptMember(ctx, group.ID, actor.ID, s.now())
		if err != nil {
			return conflictFromDuplicate(err)
		}
		if !ok {
			return apperrors.Conflict("invitation is no longer pending")
		}

		events = append(events, s.event(models.EventGroupJoined, actor.ID, group.ID,
			fmt.Sprintf("%s joined group %q", actor.FullName, group.Name), group.LeaderID))

		result, err = withMembers(ctx, tx, group)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("group_id", groupID).Str("actor_id", actor.ID).Msg("Invitation accepted")

	s.publish(ctx, events...)
	return result, nil
}

func (s *groupService) DeclineInvite(ctx context.Context, actor *models.User, groupID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !validID(groupID) {
		return apperrors.NotFound("group not found")
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		group, member, err := s.invitation(ctx, tx, actor, groupID)
		if err != nil {
			return err
		}
		if member.Status == models.MemberStatusAccepted {
			return apperrors.Conflict("you have already joined group %q", group.Name)
		}

		ok, err := tx.Groups().RemovePendingMember(ctx, group.ID, actor.ID)
		if err != nil {
			return fmt.Errorf("failed to decline invitation: %w", err)
		}
		if !ok {
			return apperrors.Conflict("invitation is no longer pending")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("group_id", groupID).Str("actor_id", actor.ID).Msg("Invitation declined")
	return nil
}

func (s *groupService) invitation(ctx context.Context, tx repository.Store, actor *models.User, groupID string) (*models.StudentGroup, *models.GroupMember, error) {
	group, err := tx.Groups().GetByID(ctx, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load group: %w", err)
	}
	if group == nil {
		return nil, nil, apperrors.NotFound("group not found")
	}

	member, err := tx.Groups().GetMember(ctx, groupID, actor.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load invitation: %w", err)
	}
	if member == nil {
		return nil, nil, apperrors.Forbidden("you were not invited to group %q", group.Name)
	}
	return group, member, nil
}

// ensureNoSoloProject stops a student who already holds an individual project this term from
// joining a group, which could otherwise give them a second project.
func (s *groupService) ensureNoSoloProject(ctx context.Context, tx repository.Store, userID string) error {
	project, err := tx.Projects().GetActiveForUser(ctx, userID, s.portal.CurrentTerm)
	if err != nil {
		return fmt.Errorf("failed to check projects: %w", err)
	}
	if project != nil {
		return apperrors.Conflict("you already have a project this term")
	}
	return nil
}

func (s *groupService) Get(ctx context.Context, actor *models.User, groupID string) (*models.GroupWithMembers, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !validID(groupID) {
		return nil, apperrors.NotFound("group not found")
	}

	group, err := s.store.Groups().GetByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	if group == nil {
		return nil, apperrors.NotFound("group not found")
	}

	result, err := withMembers(ctx, s.store, group)
	if err != nil {
		return nil, err
	}

	if !canViewGroup(actor, result) {
		return nil, apperrors.Forbidden("group is not visible to you")
	}
	return result, nil
}

func canViewGroup(actor *models.User, group *models.GroupWithMembers) bool {
	if actor.Is(models.RoleAdmin, models.RoleCoordinator) {
		return true
	}
	if group.FacultyID != nil && *group.FacultyID == actor.ID {
		return true
	}
	for _, m := range group.Members {
		if m.UserID == actor.ID {
			return true
		}
	}
	return false
}

func (s *groupService) ListMine(ctx context.Context, actor *models.User) ([]models.GroupWithMembers, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	groups, err := s.store.Groups().ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	result := make([]models.GroupWithMembers, 0, len(groups))
	for i := range groups {
		g, err := withMembers(ctx, s.store, &groups[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *g)
	}
	return result, nil
}

func (s *groupService) ListInvites(ctx context.Context, actor *models.User) ([]models.GroupInvite, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	invites, err := s.store.Groups().ListInvites(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invites, nil
}

func withMembers(ctx context.Context, store repository.Store, group *models.StudentGroup) (*models.GroupWithMembers, error) {
	members, err := store.Groups().ListMembers(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return &models.GroupWithMembers{StudentGroup: *group, Members: members}, nil
}

func normalizeEnrollments(numbers []string) ([]string, error) {
	seen := make(map[string]bool, len(numbers))
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if seen[n] {
			return nil, apperrors.Validation("enrollment number %s is listed more than once", n)
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

// resolveStudents maps enrollment numbers to students, preserving order.
func resolveStudents(ctx context.Context, tx repository.Store, numbers []string) ([]models.User, error) {
	if len(numbers) == 0 {
		return nil, nil
	}

	users, err := tx.Users().GetByEnrollmentNumbers(ctx, numbers)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve enrollment numbers: %w", err)
	}

	byNumber := make(map[string]models.User, len(users))
	for _, u := range users {
		byNumber[*u.EnrollmentNumber] = u
	}

	out := make([]models.User, 0, len(numbers))
	for _, n := range numbers {
		u, ok := byNumber[n]
		if !ok {
			return nil, apperrors.NotFound("no student with enrollment number %s", n)
		}
		if u.Role != models.RoleStudent {
			return nil, apperrors.Validation("enrollment number %s does not belong to a student", n)
		}
		out = append(out, u)
	}
	return out, nil
}
