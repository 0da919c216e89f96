package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("disk I/O error")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"unauthenticated", ErrUnauthenticated, KindUnauthenticated},
		{"wrapped unauthenticated", fmt.Errorf("list: %w", ErrUnauthenticated), KindUnauthenticated},
		{"validation", Required("tasks", "title"), KindValidation},
		{"not found", NotFound("tasks", "abc"), KindNotFound},
		{"remote", Remote("tasks", "delete", cause), KindRemote},
		{"plain", cause, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestRemote_Unwraps(t *testing.T) {
	cause := errors.New("constraint failed")
	err := Remote("tags", "create", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrRemote)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "tags create: constraint failed", err.Error())
	assert.NoError(t, Remote("tags", "create", nil))
}

func TestValidationError_Message(t *testing.T) {
	assert.Equal(t, "tasks: title is required", Required("tasks", "title").Error())
	assert.Equal(t, `tasks: status has invalid value "done"`, Invalid("tasks", "status", "done").Error())

	var verr *ValidationError
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", Required("projects", "name")), &verr))
	assert.Equal(t, "name", verr.Field)
}
