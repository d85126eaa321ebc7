package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	dup := mapError(&pq.Error{Code: pqUniqueViolation, Constraint: ConstraintProjectTopic})
	assert.ErrorIs(t, dup, ErrDuplicate)
	assert.True(t, IsDuplicate(fmt.Errorf("restore project: %w", dup), ConstraintProjectTopic))

	ref := mapError(&pq.Error{Code: pqForeignKeyViolation, Constraint: "project_topics_reviewed_by_fkey"})
	assert.ErrorIs(t, ref, ErrDanglingReference)
	assert.NotErrorIs(t, ref, ErrDuplicate)

	other := &pq.Error{Code: "23502"}
	assert.Same(t, other, mapError(other))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapError(plain))
}
