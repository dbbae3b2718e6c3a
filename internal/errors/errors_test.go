package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError(t *testing.T) {
	cause := stderrors.New("no rows")
	err := NotFound("Job not found", cause)

	assert.Equal(t, "NOT_FOUND: Job not found: no rows", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.NotEmpty(t, err.StackTrace())
}

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("get job: %w", InvalidInput("title is required", nil))

	assert.Equal(t, ErrTypeInvalidInput, TypeOf(wrapped))
	assert.Equal(t, ErrTypeInternal, TypeOf(stderrors.New("boom")))
}
