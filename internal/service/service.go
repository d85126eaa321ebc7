package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository"
	"github.com/SwetabhSingh17/APMS-sub001/internal/service/integration"
	"github.com/SwetabhSingh17/APMS-sub001/internal/validation"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Store     repository.Store
	Publisher integration.EventPublisher
	Validator *validation.Validator
	Logger    zerolog.Logger
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

type base struct {
	store     repository.Store
	publisher integration.EventPublisher
	validator *validation.Validator
	logger    zerolog.Logger
	now       func() time.Time
}

func newBase(d Deps, component string) base {
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	v := d.Validator
	if v == nil {
		v = validation.New()
	}
	return base{
		store:     d.Store,
		publisher: d.Publisher,
		validator: v,
		logger:    d.Logger.With().Str("component", component).Logger(),
		now:       now,
	}
}

func (b *base) event(t models.EventType, actorID, subjectID, message string, recipients ...string) models.Event {
	return models.Event{
		ID:         uuid.NewString(),
		Type:       t,
		ActorID:    actorID,
		SubjectID:  subjectID,
		Recipients: recipients,
		Message:    message,
		OccurredAt: b.now(),
	}
}

// publish runs after commit. A delivery failure is logged: the state change it describes already happened.
func (b *base) publish(ctx context.Context, events ...models.Event) {
	if b.publisher == nil {
		return
	}
	for _, e := range events {
		if err := b.publisher.Publish(ctx, e); err != nil {
			b.logger.Error().Err(err).
				Str("event_id", e.ID).
				Str("event_type", string(e.Type)).
				Msg("Failed to publish event")
		}
	}
}

func requireActor(actor *models.User) error {
	if actor == nil {
		return apperrors.ErrUnauthenticated
	}
	return nil
}

// validID treats a malformed identifier as a reference to nothing.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func pagination(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit, (page - 1) * limit
}

var duplicateMessages = map[string]string{
	repository.ConstraintUserUsername:       "username is already taken",
	repository.ConstraintUserEmail:          "email is already registered",
	repository.ConstraintUserEnrollment:     "enrollment number is already registered",
	repository.ConstraintMemberGroupUser:    "student is already a member of or invited to this group",
	repository.ConstraintMemberAcceptedUser: "student already belongs to a group",
	repository.ConstraintProjectTopic:       "topic has already been selected",
	repository.ConstraintProjectGroupTerm:   "group already has a project this term",
	repository.ConstraintProjectStudentTerm: "student already has a project this term",
	repository.ConstraintAssessmentProject:  "project already has an assessment",
}

// conflictFromDuplicate turns a unique violation into a conflict error and passes anything else through.
func conflictFromDuplicate(err error) error {
	var dup *repository.DuplicateError
	if !errors.As(err, &dup) {
		return err
	}
	msg, ok := duplicateMessages[dup.Constraint]
	if !ok {
		msg = "record already exists"
	}
	return apperrors.Wrap(apperrors.KindConflict, err, "%s", msg)
}

// lockStudent serialises the transactions that give a student a project or a group.
func lockStudent(ctx context.Context, tx repository.Store, userID string) error {
	user, err := tx.Users().LockByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}
	if user == nil {
		return apperrors.ErrUnauthenticated
	}
	return nil
}
