package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Unique constraint and index names from migrations/000001_init.up.sql.
const (
	ConstraintUserUsername       = "uq_users_username"
	ConstraintUserEmail          = "uq_users_email"
	ConstraintUserEnrollment     = "uq_users_enrollment_number"
	ConstraintMemberGroupUser    = "uq_group_members_group_user"
	ConstraintMemberAcceptedUser = "uq_group_members_accepted_user"
	ConstraintProjectTopic       = "uq_student_projects_topic"
	ConstraintProjectGroupTerm   = "uq_student_projects_group_term"
	ConstraintProjectStudentTerm = "uq_student_projects_student_term"
	ConstraintAssessmentProject  = "uq_project_assessments_project"
	pqUniqueViolation            = "23505"
	pqForeignKeyViolation        = "23503"
)

var (
	ErrDuplicate         = errors.New("duplicate key")
	ErrDanglingReference = errors.New("dangling reference")
)

// DuplicateError reports a unique constraint violation raised by the store.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate key violates unique constraint %q", e.Constraint)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// IsDuplicate reports whether err is a unique violation of constraint.
func IsDuplicate(err error, constraint string) bool {
	var dup *DuplicateError
	return errors.As(err, &dup) && dup.Constraint == constraint
}

// ReferenceError reports a foreign key violation raised by the store.
type ReferenceError struct {
	Constraint string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("insert or update violates foreign key constraint %q", e.Constraint)
}

func (e *ReferenceError) Is(target error) bool {
	return target == ErrDanglingReference
}

func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return &DuplicateError{Constraint: pqErr.Constraint}
	case pqForeignKeyViolation:
		return &ReferenceError{Constraint: pqErr.Constraint}
	}
	return err
}
