package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository"
)

type projectRepository struct {
	s *Store
}

func checkProject(d *dataset, p *models.StudentProject) error {
	for _, existing := range d.projects {
		if existing.ID == p.ID {
			continue
		}
		switch {
		case existing.TopicID == p.TopicID:
			return &repository.DuplicateError{Constraint: repository.ConstraintProjectTopic}
		case p.GroupID != nil && existing.GroupID != nil && *existing.GroupID == *p.GroupID && existing.Term == p.Term:
			return &repository.DuplicateError{Constraint: repository.ConstraintProjectGroupTerm}
		case p.GroupID == nil && existing.GroupID == nil && existing.StudentID == p.StudentID && existing.Term == p.Term:
			return &repository.DuplicateError{Constraint: repository.ConstraintProjectStudentTerm}
		}
	}
	return nil
}

func (r *projectRepository) Allocate(ctx context.Context, project *models.StudentProject) (bool, error) {
	d, unlock := r.s.begin()
	defer unlock()

	t, ok := d.topics[project.TopicID]
	if !ok || t.Status != models.TopicStatusApproved {
		return false, nil
	}
	if err := checkProject(d, project); err != nil {
		return false, err
	}

	d.projects[project.ID] = *project
	return true, nil
}

func withDetails(d *dataset, p models.StudentProject) models.ProjectWithDetails {
	t := d.topics[p.TopicID]
	return models.ProjectWithDetails{StudentProject: p, TopicTitle: t.Title, TeacherID: t.SubmittedBy}
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*models.ProjectWithDetails, error) {
	d, unlock := r.s.begin()
	defer unlock()

	p, ok := d.projects[id]
	if !ok {
		return nil, nil
	}
	details := withDetails(d, p)
	return &details, nil
}

func (r *projectRepository) find(match func(models.StudentProject) bool) *models.StudentProject {
	d, unlock := r.s.begin()
	defer unlock()

	for _, p := range d.projects {
		if match(p) {
			return &p
		}
	}
	return nil
}

func (r *projectRepository) GetByTopic(ctx context.Context, topicID string) (*models.StudentProject, error) {
	return r.find(func(p models.StudentProject) bool { return p.TopicID == topicID }), nil
}

func (r *projectRepository) GetActiveForUser(ctx context.Context, userID, term string) (*models.StudentProject, error) {
	d, unlock := r.s.begin()
	groups := acceptedGroups(d, userID)
	unlock()

	return r.find(func(p models.StudentProject) bool {
		return p.Term == term && holds(p, userID, groups)
	}), nil
}

func (r *projectRepository) GetActiveForGroup(ctx context.Context, groupID, term string) (*models.StudentProject, error) {
	return r.find(func(p models.StudentProject) bool {
		return p.GroupID != nil && *p.GroupID == groupID && p.Term == term
	}), nil
}

func (r *projectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.ProjectWithDetails, int, error) {
	d, unlock := r.s.begin()
	defer unlock()

	var groups map[string]bool
	if filter.MemberID != "" {
		groups = acceptedGroups(d, filter.MemberID)
	}

	projects := make([]models.ProjectWithDetails, 0)
	for _, p := range d.projects {
		details := withDetails(d, p)
		if filter.TeacherID != "" && details.TeacherID != filter.TeacherID {
			continue
		}
		if filter.MemberID != "" && !holds(p, filter.MemberID, groups) {
			continue
		}
		projects = append(projects, details)
	}

	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].CreatedAt.Equal(projects[j].CreatedAt) {
			return projects[i].CreatedAt.After(projects[j].CreatedAt)
		}
		return projects[i].ID < projects[j].ID
	})

	return page(projects, filter.Limit, filter.Offset), len(projects), nil
}

func (r *projectRepository) UpdateProgress(ctx context.Context, id string, progress int, status models.ProjectStatus, at time.Time) error {
	d, unlock := r.s.begin()
	defer unlock()

	p, ok := d.projects[id]
	if !ok {
		return nil
	}
	p.Progress = progress
	p.Status = status
	p.UpdatedAt = at
	d.projects[id] = p
	return nil
}

func acceptedGroups(d *dataset, userID string) map[string]bool {
	groups := make(map[string]bool)
	for _, m := range d.members {
		if m.UserID == userID && m.Status == models.MemberStatusAccepted {
			groups[m.GroupID] = true
		}
	}
	return groups
}

// holds reports whether userID owns p directly or through one of groups.
func holds(p models.StudentProject, userID string, groups map[string]bool) bool {
	if p.GroupID == nil {
		return p.StudentID == userID
	}
	return groups[*p.GroupID]
}
