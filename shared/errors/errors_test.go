package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   error
		status int
	}{
		{"validation", Validation("Text is required"), ErrValidation, http.StatusBadRequest},
		{"not found", NotFound("Thread not found"), ErrNotFound, http.StatusNotFound},
		{"forbidden", Forbidden(), ErrForbidden, http.StatusForbidden},
		{"unavailable", Unavailable(context.DeadlineExceeded), ErrStorageUnavailable, http.StatusServiceUnavailable},
		{"wrapped not found", fmt.Errorf("append reply: %w", NotFound("Thread not found")), ErrNotFound, http.StatusNotFound},
		{"plain", errors.New("boom"), nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.kind != nil {
				assert.ErrorIs(t, tt.err, tt.kind)
			}
			assert.Equal(t, tt.status, StatusCode(tt.err))
		})
	}
}

func TestUnavailableKeepsCause(t *testing.T) {
	err := Unavailable(context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "storage unavailable")
}

func TestForbiddenMessage(t *testing.T) {
	assert.Equal(t, "incorrect password", Forbidden().Error())
}
