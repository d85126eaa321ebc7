package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

type snapshotRepository struct {
	s *Store
}

func sorted[T any](m map[string]T, created func(T) time.Time, id func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := created(out[i]), created(out[j])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return id(out[i]) < id(out[j])
	})
	return out
}

func (r *snapshotRepository) Dump(ctx context.Context) (*models.Snapshot, error) {
	d, unlock := r.s.begin()
	defer unlock()

	snap := &models.Snapshot{Version: models.SnapshotVersion}

	users := sorted(d.users, func(u models.User) time.Time { return u.CreatedAt }, func(u models.User) string { return u.ID })
	for _, u := range users {
		snap.Users = append(snap.Users, models.SnapshotUser{User: u, PasswordHash: string(u.PasswordHash)})
	}
	snap.Topics = sorted(d.topics,
		func(t models.ProjectTopic) time.Time { return t.CreatedAt }, func(t models.ProjectTopic) string { return t.ID })
	snap.Groups = sorted(d.groups,
		func(g models.StudentGroup) time.Time { return g.CreatedAt }, func(g models.StudentGroup) string { return g.ID })
	snap.Members = sorted(d.members,
		func(m models.GroupMember) time.Time { return m.InvitedAt }, func(m models.GroupMember) string { return m.ID })
	snap.Projects = sorted(d.projects,
		func(p models.StudentProject) time.Time { return p.CreatedAt }, func(p models.StudentProject) string { return p.ID })
	snap.Assessments = sorted(d.assessments,
		func(a models.ProjectAssessment) time.Time { return a.CreatedAt }, func(a models.ProjectAssessment) string { return a.ID })
	snap.Milestones = sorted(d.milestones,
		func(m models.ProjectMilestone) time.Time { return m.CreatedAt }, func(m models.ProjectMilestone) string { return m.ID })
	snap.Notifications = sorted(d.notifications,
		func(n models.Notification) time.Time { return n.CreatedAt }, func(n models.Notification) string { return n.ID })

	return snap, nil
}

func (r *snapshotRepository) Restore(ctx context.Context, snap *models.Snapshot) error {
	users := r.s.Users()
	for _, u := range snap.Users {
		user := u.User
		user.PasswordHash = []byte(u.PasswordHash)
		if err := users.Create(ctx, &user); err != nil {
			return err
		}
	}

	d, unlock := r.s.begin()
	for _, t := range snap.Topics {
		d.topics[t.ID] = t
	}
	for _, g := range snap.Groups {
		d.groups[g.ID] = g
	}
	unlock()

	groups := r.s.Groups()
	for i := range snap.Members {
		if err := groups.AddMember(ctx, &snap.Members[i]); err != nil {
			return err
		}
	}

	d, unlock = r.s.begin()
	defer unlock()

	for i := range snap.Projects {
		if err := checkProject(d, &snap.Projects[i]); err != nil {
			return err
		}
		d.projects[snap.Projects[i].ID] = snap.Projects[i]
	}
	for _, a := range snap.Assessments {
		d.assessments[a.ID] = a
	}
	for _, m := range snap.Milestones {
		d.milestones[m.ID] = m
	}
	for _, n := range snap.Notifications {
		d.notifications[n.ID] = n
	}
	return nil
}

func (r *snapshotRepository) Truncate(ctx context.Context) error {
	d, unlock := r.s.begin()
	defer unlock()

	*d = *newDataset()
	return nil
}
