package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository"
)

type groupRepository struct {
	s *Store
}

func (r *groupRepository) Create(ctx context.Context, group *models.StudentGroup) error {
	d, unlock := r.s.begin()
	defer unlock()

	d.groups[group.ID] = *group
	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*models.StudentGroup, error) {
	d, unlock := r.s.begin()
	defer unlock()

	g, ok := d.groups[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

// LockByID needs no extra locking: transactions already hold the store mutex.
func (r *groupRepository) LockByID(ctx context.Context, id string) (*models.StudentGroup, error) {
	return r.GetByID(ctx, id)
}

func (r *groupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	d, unlock := r.s.begin()
	defer unlock()

	if err := checkMember(d, member); err != nil {
		return err
	}
	d.members[member.ID] = *member
	return nil
}

func checkMember(d *dataset, member *models.GroupMember) error {
	for _, m := range d.members {
		if m.ID == member.ID {
			continue
		}
		if m.GroupID == member.GroupID && m.UserID == member.UserID {
			return &repository.DuplicateError{Constraint: repository.ConstraintMemberGroupUser}
		}
		if member.Status == models.MemberStatusAccepted && m.Status == models.MemberStatusAccepted && m.UserID == member.UserID {
			return &repository.DuplicateError{Constraint: repository.ConstraintMemberAcceptedUser}
		}
	}
	return nil
}

func findMember(d *dataset, groupID, userID string) (models.GroupMember, bool) {
	for _, m := range d.members {
		if m.GroupID == groupID && m.UserID == userID {
			return m, true
		}
	}
	return models.GroupMember{}, false
}

func (r *groupRepository) GetMember(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	d, unlock := r.s.begin()
	defer unlock()

	m, ok := findMember(d, groupID, userID)
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *groupRepository) CountMembers(ctx context.Context, groupID string) (int, error) {
	d, unlock := r.s.begin()
	defer unlock()

	n := 0
	for _, m := range d.members {
		if m.GroupID == groupID {
			n++
		}
	}
	return n, nil
}

func (r *groupRepository) AcceptMember(ctx context.Context, groupID, userID string, at time.Time) (bool, error) {
	d, unlock := r.s.begin()
	defer unlock()

	m, ok := findMember(d, groupID, userID)
	if !ok || m.Status != models.MemberStatusPending {
		return false, nil
	}

	m.Status = models.MemberStatusAccepted
	m.RespondedAt = &at
	if err := checkMember(d, &m); err != nil {
		return false, err
	}
	d.members[m.ID] = m
	return true, nil
}

func (r *groupRepository) RemovePendingMember(ctx context.Context, groupID, userID string) (bool, error) {
	d, unlock := r.s.begin()
	defer unlock()

	m, ok := findMember(d, groupID, userID)
	if !ok || m.Status != models.MemberStatusPending {
		return false, nil
	}
	delete(d.members, m.ID)
	return true, nil
}

func (r *groupRepository) ListMembers(ctx context.Context, groupID string) ([]models.GroupMemberDetails, error) {
	d, unlock := r.s.begin()
	defer unlock()

	members := make([]models.GroupMemberDetails, 0)
	for _, m := range d.members {
		if m.GroupID != groupID {
			continue
		}
		u := d.users[m.UserID]
		members = append(members, models.GroupMemberDetails{
			GroupMember:      m,
			Username:         u.Username,
			FullName:         u.FullName,
			EnrollmentNumber: u.EnrollmentNumber,
		})
	}

	sort.Slice(members, func(i, j int) bool {
		if !members[i].InvitedAt.Equal(members[j].InvitedAt) {
			return members[i].InvitedAt.Before(members[j].InvitedAt)
		}
		return members[i].Username < members[j].Username
	})
	return members, nil
}

func (r *groupRepository) GetAcceptedGroupForUser(ctx context.Context, userID string) (*models.StudentGroup, error) {
	d, unlock := r.s.begin()
	defer unlock()

	for _, m := range d.members {
		if m.UserID == userID && m.Status == models.MemberStatusAccepted {
			if g, ok := d.groups[m.GroupID]; ok {
				return &g, nil
			}
		}
	}
	return nil, nil
}

func (r *groupRepository) ListByUser(ctx context.Context, userID string) ([]models.StudentGroup, error) {
	d, unlock := r.s.begin()
	defer unlock()

	groups := make([]models.StudentGroup, 0)
	for _, m := range d.members {
		if m.UserID == userID && m.Status == models.MemberStatusAccepted {
			if g, ok := d.groups[m.GroupID]; ok {
				groups = append(groups, g)
			}
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CreatedAt.After(groups[j].CreatedAt)
	})
	return groups, nil
}

func (r *groupRepository) ListInvites(ctx context.Context, userID string) ([]models.GroupInvite, error) {
	d, unlock := r.s.begin()
	defer unlock()

	invites := make([]models.GroupInvite, 0)
	for _, m := range d.members {
		if m.UserID != userID || m.Status != models.MemberStatusPending {
			continue
		}
		g := d.groups[m.GroupID]
		invites = append(invites, models.GroupInvite{
			GroupID:    g.ID,
			GroupName:  g.Name,
			LeaderID:   g.LeaderID,
			LeaderName: d.users[g.LeaderID].FullName,
			InvitedAt:  m.InvitedAt,
		})
	}

	sort.Slice(invites, func(i, j int) bool {
		return invites[i].InvitedAt.After(invites[j].InvitedAt)
	})
	return invites, nil
}
