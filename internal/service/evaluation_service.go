package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/auth"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository"
)

type EvaluationService interface {
	Evaluate(ctx context.Context, actor *models.User, projectID string, req *models.EvaluateRequest) (*models.ProjectAssessment, error)
	GetAssessment(ctx context.Context, actor *models.User, projectID string) (*models.ProjectAssessment, error)
}

type evaluationService struct {
	base
}

func NewEvaluationService(d Deps) EvaluationService {
	return &evaluationService{base: newBase(d, "evaluation")}
}

// Evaluate records the teacher's marks. Evaluating again replaces the previous marks and feedback.
func (s *evaluationService) Evaluate(ctx context.Context, actor *models.User, projectID string, req *models.EvaluateRequest) (*models.ProjectAssessment, error) {
	if err := auth.Require(actor, auth.CapProjectEvaluate); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var (
		assessment *models.ProjectAssessment
		events     []models.Event
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		project, err := loadProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if project.TeacherID != actor.ID {
			return apperrors.Forbidden("only the teacher who owns the topic can evaluate this project")
		}

		marks := *req.Marks
		if marks < models.MinScore || marks > models.MaxScore {
			return apperrors.ValidationFields(
				fmt.Sprintf("marks: must be between %d and %d", models.MinScore, models.MaxScore),
				apperrors.FieldError{Field: "marks", Error: fmt.Sprintf("must be between %d and %d", models.MinScore, models.MaxScore)})
		}

		now := s.now()
		assessment = &models.ProjectAssessment{
			ID:        uuid.NewString(),
			ProjectID: project.ID,
			FacultyID: actor.ID,
			Score:     marks,
			Feedback:  strings.TrimSpace(req.Feedback),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Assessments().Upsert(ctx, assessment); err != nil {
			return fmt.Errorf("failed to save assessment: %w", conflictFromDuplicate(err))
		}

		holders, err := projectHolders(ctx, tx, &project.StudentProject)
		if err != nil {
			return err
		}
		events = append(events, s.event(models.EventProjectEvaluated, actor.ID, project.ID,
			fmt.Sprintf("Your project %q was evaluated: %d/%d", project.TopicTitle, marks, models.MaxScore), holders...))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("project_id", assessment.ProjectID).
		Str("actor_id", actor.ID).
		Int("marks", assessment.Score).
		Msg("Project evaluated")

	s.publish(ctx, events...)
	return assessment, nil
}

func (s *evaluationService) GetAssessment(ctx context.Context, actor *models.User, projectID string) (*models.ProjectAssessment, error) {
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

	assessment, err := s.store.Assessments().GetByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	if assessment == nil {
		return nil, apperrors.NotFound("project has not been evaluated yet")
	}
	return assessment, nil
}
