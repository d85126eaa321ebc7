package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/auth"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository"
	"github.com/SwetabhSingh17/APMS-sub001/internal/validation"
)

type MilestoneService interface {
	Create(ctx context.Context, actor *models.User, projectID string, req *models.CreateMilestoneRequest) (*models.ProjectMilestone, error)
	Complete(ctx context.Context, actor *models.User, milestoneID string) (*models.ProjectMilestone, error)
	List(ctx context.Context, actor *models.User, projectID string) ([]models.ProjectMilestone, error)
}

type milestoneService struct {
	base
}

func NewMilestoneService(d Deps) MilestoneService {
	return &milestoneService{base: newBase(d, "milestones")}
}

func (s *milestoneService) Create(ctx context.Context, actor *models.User, projectID string, req *models.CreateMilestoneRequest) (*models.ProjectMilestone, error) {
	if err := auth.Require(actor, auth.CapMilestoneManage); err != nil {
		return nil, err
	}
	req.Title = validation.CleanString(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var milestone *models.ProjectMilestone
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		project, err := loadProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if project.TeacherID != actor.ID {
			return apperrors.Forbidden("only the teacher who owns the topic can add milestones")
		}

		now := s.now()
		milestone = &models.ProjectMilestone{
			ID:        uuid.NewString(),
			ProjectID: project.ID,
			Title:     req.Title,
			DueDate:   req.DueDate.UTC(),
			Status:    models.MilestoneStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Milestones().Create(ctx, milestone); err != nil {
			return fmt.Errorf("failed to create milestone: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("milestone_id", milestone.ID).
		Str("project_id", milestone.ProjectID).
		Str("actor_id", actor.ID).
		Msg("Milestone created")
	return milestone, nil
}

// Complete can be done by the owning teacher or by any student holding the project.
func (s *milestoneService) Complete(ctx context.Context, actor *models.User, milestoneID string) (*models.ProjectMilestone, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !validID(milestoneID) {
		return nil, apperrors.NotFound("milestone not found")
	}

	var milestone *models.ProjectMilestone
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		milestone, err = tx.Milestones().GetByID(ctx, milestoneID)
		if err != nil {
			return fmt.Errorf("failed to load milestone: %w", err)
		}
		if milestone == nil {
			return apperrors.NotFound("milestone not found")
		}

		project, err := loadProject(ctx, tx, milestone.ProjectID)
		if err != nil {
			return err
		}
		if project.TeacherID != actor.ID {
			holds, err := holdsProject(ctx, tx, actor, &project.StudentProject)
			if err != nil {
				return err
			}
			if !holds {
				return apperrors.Forbidden("only the project's teacher or students can complete milestones")
			}
		}

		now := s.now()
		ok, err := tx.Milestones().Complete(ctx, milestone.ID, now)
		if err != nil {
			return fmt.Errorf("failed to complete milestone: %w", err)
		}
		if !ok {
			return apperrors.Conflict("milestone is already completed")
		}
		milestone.Status, milestone.CompletedAt, milestone.UpdatedAt = models.MilestoneStatusCompleted, &now, now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("milestone_id", milestone.ID).
		Str("actor_id", actor.ID).
		Msg("Milestone completed")
	return milestone, nil
}

func (s *milestoneService) List(ctx context.Context, actor *models.User, projectID string) ([]models.ProjectMilestone, error) {
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

	milestones, err := s.store.Milestones().ListByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return milestones, nil
}
