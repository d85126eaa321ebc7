package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantOK   bool
	}{
		{"validation", Validation("title is required"), KindValidation, true},
		{"forbidden", Forbidden("teacher role required"), KindAuthorization, true},
		{"not found", NotFound("topic %s not found", "abc"), KindNotFound, true},
		{"conflict", Conflict("topic already selected"), KindConflict, true},
		{"wrapped with fmt", fmt.Errorf("select topic: %w", Conflict("taken")), KindConflict, true},
		{"plain error", errors.New("boom"), "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := KindOf(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Wrap(KindConflict, cause, "topic %q already selected", "Compilers")

	assert.True(t, Is(err, KindConflict))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, `topic "Compilers" already selected`, err.Error())
}

func TestValidationFields(t *testing.T) {
	err := ValidationFields("invalid request", FieldError{Field: "title", Error: "this field is required"})

	var appErr *Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, KindValidation, appErr.Kind)
	assert.Len(t, appErr.Fields, 1)
	assert.Equal(t, "title", appErr.Fields[0].Field)
}
