package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/auth"
	"github.com/SwetabhSingh17/APMS-sub001/internal/config"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository"
)

type ProjectService interface {
	SelectTopic(ctx context.Context, actor *models.User, req *models.SelectTopicRequest) (*models.StudentProject, error)
	UpdateProgress(ctx context.Context, actor *models.User, projectID string, req *models.UpdateProgressRequest) (*models.ProjectWithDetails, error)
	Get(ctx context.Context, actor *models.User, projectID string) (*models.ProjectWithDetails, error)
	List(ctx context.Context, actor *models.User, page, limit int) (*models.ProjectsResponse, error)
}

type projectService struct {
	base
	term string
}

func NewProjectService(d Deps, portal config.PortalConfig) ProjectService {
	return &projectService{base: newBase(d, "projects"), term: portal.CurrentTerm}
}

// SelectTopic allocates an approved topic to the student, or to the student's group when they lead one.
// The checks below only produce precise messages; the store's unique keys decide concurrent selections.
func (s *projectService) SelectTopic(ctx context.Context, actor *models.User, req *models.SelectTopicRequest) (*models.StudentProject, error) {
	if err := auth.Require(actor, auth.CapProjectSelect); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var (
		project *models.StudentProject
		events  []models.Event
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := lockStudent(ctx, tx, actor.ID); err != nil {
			return err
		}

		topic, err := tx.Topics().GetByID(ctx, req.TopicID)
		if err != nil {
			return fmt.Errorf("failed to load topic: %w", err)
		}
		if topic == nil {
			return apperrors.NotFound("topic not found")
		}
		if topic.Status != models.TopicStatusApproved {
			return apperrors.Conflict("topic is %s, only approved topics can be selected", topic.Status)
		}

		group, err := tx.Groups().GetAcceptedGroupForUser(ctx, actor.ID)
		if err != nil {
			return fmt.Errorf("failed to load group: %w", err)
		}

		var existing *models.StudentProject
		if group != nil {
			if group.LeaderID != actor.ID {
				return apperrors.Forbidden("only the leader of group %q can select a topic", group.Name)
			}
			existing, err = tx.Projects().GetActiveForGroup(ctx, group.ID, s.term)
		} else {
			existing, err = tx.Projects().GetActiveForUser(ctx, actor.ID, s.term)
		}
		if err != nil {
			return fmt.Errorf("failed to check projects: %w", err)
		}
		if existing != nil {
			return apperrors.Conflict("a project has already been selected for term %s", s.term)
		}

		claimed, err := tx.Projects().GetByTopic(ctx, topic.ID)
		if err != nil {
			return fmt.Errorf("failed to check topic: %w", err)
		}
		if claimed != nil {
			return apperrors.Conflict("topic has already been selected")
		}

		now := s.now()
		project = &models.StudentProject{
			ID:        uuid.NewString(),
			TopicID:   topic.ID,
			StudentID: actor.ID,
			Term:      s.term,
			Progress:  0,
			Status:    models.ProjectStatusInProgress,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if group != nil {
			project.GroupID = &group.ID
		}

		ok, err := tx.Projects().Allocate(ctx, project)
		if err != nil {
			return conflictFromDuplicate(err)
		}
		if !ok {
			return apperrors.Conflict("topic is no longer approved")
		}

		events = append(events, s.event(models.EventProjectAllocated, actor.ID, project.ID,
			fmt.Sprintf("%s selected your topic %q", actor.FullName, topic.Title), topic.SubmittedBy))
		return nil
	})
	if err != nil {
		// a unique violation surfaced at commit
		var dup *repository.DuplicateError
		if errors.As(err, &dup) && !apperrors.Is(err, apperrors.KindConflict) {
			return nil, conflictFromDuplicate(err)
		}
		return nil, err
	}

	s.logger.Info().
		Str("project_id", project.ID).
		Str("topic_id", project.TopicID).
		Str("actor_id", actor.ID).
		Str("term", s.term).
		Msg("Topic allocated")

	// notifications are written on this goroutine when the in-process publisher is configured
	s.publish(ctx, events...)
	return project, nil
}

func (s *projectService) UpdateProgress(ctx context.Context, actor *models.User, projectID string, req *models.UpdateProgressRequest) (*models.ProjectWithDetails, error) {
	if err := auth.Require(actor, auth.CapProjectProgress); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var (
		project *models.ProjectWithDetails
		events  []models.Event
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		project, err = loadProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if project.TeacherID != actor.ID {
			return apperrors.Forbidden("only the teacher who owns the topic can update progress")
		}

		progress := *req.Progress
		if progress < 0 || progress > 100 {
			return apperrors.ValidationFields("progress: must be between 0 and 100",
				apperrors.FieldError{Field: "progress", Error: "must be between 0 and 100"})
		}

		status := models.ProjectStatusInProgress
		if progress == 100 {
			status = models.ProjectStatusCompleted
		}
		now := s.now()
		if err := tx.Projects().UpdateProgress(ctx, project.ID, progress, status, now); err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}
		project.Progress, project.Status, project.UpdatedAt = progress, status, now

		holders, err := projectHolders(ctx, tx, &project.StudentProject)
		if err != nil {
			return err
		}
		events = append(events, s.event(models.EventProjectProgress, actor.ID, project.ID,
			fmt.Sprintf("Progress on %q is now %d%%", project.TopicTitle, progress), holders...))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("project_id", project.ID).
		Str("actor_id", actor.ID).
		Int("progress", project.Progress).
		Msg("Project progress updated")

	s.publish(ctx, events...)
	return project, nil
}

func (s *projectService) Get(ctx context.Context, actor *models.User, projectID string) (*models.ProjectWithDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	project, err := loadProject(ctx, s.store, projectID)
	if err != nil {
		return nil, err
	}
	if err := canViewProject(ctx, s.store, actor, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) List(ctx context.Context, actor *models.User, page, limit int) (*models.ProjectsResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	page, limit, offset := pagination(page, limit)
	filter := models.ProjectFilter{Limit: limit, Offset: offset}
	switch {
	case auth.Can(actor.Role, auth.CapProjectListAll):
	case actor.Role == models.RoleTeacher:
		filter.TeacherID = actor.ID
	default:
		filter.MemberID = actor.ID
	}

	projects, total, err := s.store.Projects().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return &models.ProjectsResponse{Projects: projects, Total: total, Page: page, Limit: limit}, nil
}

func loadProject(ctx context.Context, store repository.Store, id string) (*models.ProjectWithDetails, error) {
	if !validID(id) {
		return nil, apperrors.NotFound("project not found")
	}
	project, err := store.Projects().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if project == nil {
		return nil, apperrors.NotFound("project not found")
	}
	return project, nil
}

// projectHolders lists the students a project belongs to: the selecting student, or every accepted
// member of the group it is bound to.
func projectHolders(ctx context.Context, store repository.Store, p *models.StudentProject) ([]string, error) {
	if p.GroupID == nil {
		return []string{p.StudentID}, nil
	}

	members, err := store.Groups().ListMembers(ctx, *p.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if m.Status == models.MemberStatusAccepted {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

func holdsProject(ctx context.Context, store repository.Store, actor *models.User, p *models.StudentProject) (bool, error) {
	holders, err := projectHolders(ctx, store, p)
	if err != nil {
		return false, err
	}
	for _, id := range holders {
		if id == actor.ID {
			return true, nil
		}
	}
	return false, nil
}

// canViewProject admits reviewers, the teacher who owns the topic and the students holding the project.
func canViewProject(ctx context.Context, store repository.Store, actor *models.User, p *models.ProjectWithDetails) error {
	if auth.Can(actor.Role, auth.CapProjectListAll) || p.TeacherID == actor.ID {
		return nil
	}
	ok, err := holdsProject(ctx, store, actor, &p.StudentProject)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden("project is not visible to you")
	}
	return nil
}
