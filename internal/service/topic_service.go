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
	"github.com/SwetabhSingh17/APMS-sub001/internal/validation"
)

type TopicService interface {
	Submit(ctx context.Context, actor *models.User, req *models.CreateTopicRequest) (*models.ProjectTopic, error)
	Approve(ctx context.Context, actor *models.User, id string, req *models.ReviewTopicRequest) (*models.ProjectTopic, error)
	Reject(ctx context.Context, actor *models.User, id string, req *models.ReviewTopicRequest) (*models.ProjectTopic, error)
	ListByStatus(ctx context.Context, actor *models.User, status models.TopicStatus, filter models.TopicFilter, page, limit int) (*models.TopicsResponse, error)
	ListMine(ctx context.Context, actor *models.User, page, limit int) (*models.TopicsResponse, error)
	Get(ctx context.Context, actor *models.User, id string) (*models.ProjectTopic, error)
	Update(ctx context.Context, actor *models.User, id string, req *models.UpdateTopicRequest) (*models.ProjectTopic, error)
	Delete(ctx context.Context, actor *models.User, id string) error
}

type topicService struct {
	base
}

func NewTopicService(d Deps) TopicService {
	return &topicService{base: newBase(d, "topics")}
}

func (s *topicService) Submit(ctx context.Context, actor *models.User, req *models.CreateTopicRequest) (*models.ProjectTopic, error) {
	if err := auth.Require(actor, auth.CapTopicSubmit); err != nil {
		return nil, err
	}
	req.Title = validation.CleanString(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Technology = validation.CleanString(req.Technology)
	req.ProjectType = validation.CleanString(req.ProjectType)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	complexity := req.Complexity
	if complexity == "" {
		complexity = models.ComplexityMedium
	}

	now := s.now()
	topic := &models.ProjectTopic{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Technology:  req.Technology,
		ProjectType: req.ProjectType,
		Complexity:  complexity,
		SubmittedBy: actor.ID,
		Status:      models.TopicStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var events []models.Event
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Topics().Create(ctx, topic); err != nil {
			return fmt.Errorf("failed to create topic: %w", err)
		}

		reviewers, err := usersWithRole(ctx, tx, models.RoleCoordinator)
		if err != nil {
			return err
		}
		events = append(events, s.event(models.EventTopicSubmitted, actor.ID, topic.ID,
			fmt.Sprintf("New topic %q is awaiting review", topic.Title), reviewers...))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("topic_id", topic.ID).
		Str("actor_id", actor.ID).
		Msg("Topic submitted")

	s.publish(ctx, events...)
	return topic, nil
}

func (s *topicService) Approve(ctx context.Context, actor *models.User, id string, req *models.ReviewTopicRequest) (*models.ProjectTopic, error) {
	return s.review(ctx, actor, id, models.TopicStatusApproved, req)
}

func (s *topicService) Reject(ctx context.Context, actor *models.User, id string, req *models.ReviewTopicRequest) (*models.ProjectTopic, error) {
	return s.review(ctx, actor, id, models.TopicStatusRejected, req)
}

// review moves a pending topic to its final status. A topic that was already reviewed is a conflict.
func (s *topicService) review(ctx context.Context, actor *models.User, id string, status models.TopicStatus, req *models.ReviewTopicRequest) (*models.ProjectTopic, error) {
	if err := auth.Require(actor, auth.CapTopicReview); err != nil {
		return nil, err
	}
	if req == nil {
		req = &models.ReviewTopicRequest{}
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, apperrors.NotFound("topic not found")
	}

	feedback := req.Feedback
	if feedback != nil {
		trimmed := validation.CleanString(*feedback)
		feedback = &trimmed
		if trimmed == "" {
			feedback = nil
		}
	}

	var (
		topic  *models.ProjectTopic
		events []models.Event
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Topics().Review(ctx, id, status, feedback, actor.ID, s.now())
		if err != nil {
			return fmt.Errorf("failed to review topic: %w", err)
		}

		topic, err = tx.Topics().GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load topic: %w", err)
		}
		if topic == nil {
			return apperrors.NotFound("topic not found")
		}
		if !ok {
			return apperrors.Conflict("topic has already been %s", topic.Status)
		}

		eventType, verb := models.EventTopicApproved, "approved"
		if status == models.TopicStatusRejected {
			eventType, verb = models.EventTopicRejected, "rejected"
		}
		events = append(events, s.event(eventType, actor.ID, topic.ID,
			fmt.Sprintf("Your topic %q was %s", topic.Title, verb), topic.SubmittedBy))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("topic_id", topic.ID).
		Str("actor_id", actor.ID).
		Str("status", string(status)).
		Msg("Topic reviewed")

	s.publish(ctx, events...)
	return topic, nil
}

// ListByStatus applies the role projection: students only see approved topics, teachers see every
// approved topic but only their own pending or rejected ones, reviewers see everything.
func (s *topicService) ListByStatus(ctx context.Context, actor *models.User, status models.TopicStatus, filter models.TopicFilter, page, limit int) (*models.TopicsResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !models.IsValidTopicStatus(string(status)) {
		return nil, apperrors.Validation("unknown topic status %q", status)
	}

	if status != models.TopicStatusApproved {
		switch {
		case auth.Can(actor.Role, auth.CapTopicListAll):
		case actor.Role == models.RoleTeacher:
			filter.SubmittedBy = actor.ID
		default:
			return nil, apperrors.Forbidden("only approved topics are visible to %ss", actor.Role)
		}
		filter.Available = false
	}
	filter.Status = &status

	return s.list(ctx, filter, page, limit)
}

func (s *topicService) ListMine(ctx context.Context, actor *models.User, page, limit int) (*models.TopicsResponse, error) {
	if err := auth.Require(actor, auth.CapTopicSubmit); err != nil {
		return nil, err
	}
	return s.list(ctx, models.TopicFilter{SubmittedBy: actor.ID}, page, limit)
}

func (s *topicService) list(ctx context.Context, filter models.TopicFilter, page, limit int) (*models.TopicsResponse, error) {
	page, limit, offset := pagination(page, limit)
	filter.Limit, filter.Offset = limit, offset

	topics, total, err := s.store.Topics().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}

	return &models.TopicsResponse{Topics: topics, Total: total, Page: page, Limit: limit}, nil
}

func (s *topicService) Get(ctx context.Context, actor *models.User, id string) (*models.ProjectTopic, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	topic, err := s.load(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if !canViewTopic(actor, topic) {
		return nil, apperrors.Forbidden("topic is not visible to you")
	}
	return topic, nil
}

func canViewTopic(actor *models.User, topic *models.ProjectTopic) bool {
	switch {
	case topic.Status == models.TopicStatusApproved:
		return true
	case auth.Can(actor.Role, auth.CapTopicListAll):
		return true
	default:
		return topic.SubmittedBy == actor.ID
	}
}

func (s *topicService) load(ctx context.Context, store repository.Store, id string) (*models.ProjectTopic, error) {
	if !validID(id) {
		return nil, apperrors.NotFound("topic not found")
	}
	topic, err := store.Topics().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic: %w", err)
	}
	if topic == nil {
		return nil, apperrors.NotFound("topic not found")
	}
	return topic, nil
}

// editable checks that actor submitted topic and that it has not been reviewed yet.
func editable(actor *models.User, topic *models.ProjectTopic) error {
	if topic.SubmittedBy != actor.ID {
		return apperrors.Forbidden("only the submitting teacher can change this topic")
	}
	if topic.Status != models.TopicStatusPending {
		return apperrors.Forbidden("topic can no longer be changed once %s", topic.Status)
	}
	return nil
}

func (s *topicService) Update(ctx context.Context, actor *models.User, id string, req *models.UpdateTopicRequest) (*models.ProjectTopic, error) {
	if err := auth.Require(actor, auth.CapTopicSubmit); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var topic *models.ProjectTopic
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		topic, err = s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := editable(actor, topic); err != nil {
			return err
		}

		if req.Title != nil {
			topic.Title = validation.CleanString(*req.Title)
		}
		if req.Description != nil {
			topic.Description = strings.TrimSpace(*req.Description)
		}
		if req.Technology != nil {
			topic.Technology = validation.CleanString(*req.Technology)
		}
		if req.ProjectType != nil {
			topic.ProjectType = validation.CleanString(*req.ProjectType)
		}
		if req.Complexity != nil {
			topic.Complexity = *req.Complexity
		}
		if topic.Title == "" || strings.TrimSpace(topic.Description) == "" || topic.Technology == "" {
			return apperrors.Validation("title, description and technology cannot be empty")
		}
		topic.UpdatedAt = s.now()

		ok, err := tx.Topics().UpdatePending(ctx, topic)
		if err != nil {
			return fmt.Errorf("failed to update topic: %w", err)
		}
		if !ok {
			return apperrors.Conflict("topic was reviewed while it was being edited")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("topic_id", topic.ID).Str("actor_id", actor.ID).Msg("Topic updated")
	return topic, nil
}

func (s *topicService) Delete(ctx context.Context, actor *models.User, id string) error {
	if err := auth.Require(actor, auth.CapTopicSubmit); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		topic, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := editable(actor, topic); err != nil {
			return err
		}

		ok, err := tx.Topics().DeletePending(ctx, id, actor.ID)
		if err != nil {
			return fmt.Errorf("failed to delete topic: %w", err)
		}
		if !ok {
			return apperrors.Conflict("topic was reviewed while it was being deleted")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("topic_id", id).Str("actor_id", actor.ID).Msg("Topic deleted")
	return nil
}

func usersWithRole(ctx context.Context, tx repository.Store, role models.Role) ([]string, error) {
	users, _, err := tx.Users().List(ctx, models.UserFilter{Role: &role})
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", role, err)
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}
