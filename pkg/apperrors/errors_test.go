package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
	})

	t.Run("domain error preserved", func(t *testing.T) {
		err := NewValidationError("title is required", map[string]any{"field": "title"})
		de := ToDomainError(err)
		require.NotNil(t, de)
		assert.Equal(t, "VALIDATION_FAILED", de.Code)
		assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	})

	t.Run("wrapped domain error unwrapped", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", NewAuthorizationError("admin role required"))
		de := ToDomainError(err)
		require.NotNil(t, de)
		assert.Equal(t, "FORBIDDEN", de.Code)
	})

	t.Run("pgx no rows becomes not found", func(t *testing.T) {
		de := ToDomainError(pgx.ErrNoRows)
		require.NotNil(t, de)
		assert.Equal(t, "NOT_FOUND", de.Code)
		assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	})

	t.Run("unknown error becomes internal", func(t *testing.T) {
		de := ToDomainError(errors.New("boom"))
		require.NotNil(t, de)
		assert.Equal(t, "INTERNAL_ERROR", de.Code)
		assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	})
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(pgx.ErrNoRows))
	assert.True(t, IsNotFound(NewNotFound("service request", nil)))
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", NewNotFound("company", nil))))
	assert.False(t, IsNotFound(NewValidationError("bad", nil)))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.False(t, IsNotFound(nil))
}

func TestDomainErrorMessage(t *testing.T) {
	plain := NewConflict("username already taken", nil)
	assert.Equal(t, "username already taken", plain.Error())

	wrapped := NewStorageFailure("saving attachment", errors.New("disk full"))
	assert.Contains(t, wrapped.Error(), "saving attachment")
	assert.Contains(t, wrapped.Error(), "disk full")
	assert.Equal(t, "disk full", errors.Unwrap(ToDomainError(wrapped)).Error())
}
