package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrNotFound, "student not found"))
	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "student not found", appErr.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Nil(t, FromError(nil))
}

func TestWithDetailsCopiesMap(t *testing.T) {
	details := map[string]string{"perPage": "max"}
	appErr := WithDetails(ErrValidation, details)
	details["perPage"] = "changed"

	assert.Equal(t, "max", appErr.Details["perPage"])
	assert.Nil(t, ErrValidation.Details)
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("list: %w", Wrap(errors.New("down"), ErrInternal.Code, ErrInternal.Status, "failed to list"))
	assert.True(t, HasCode(err, ErrInternal.Code))
	assert.False(t, HasCode(err, ErrValidation.Code))
	assert.False(t, HasCode(errors.New("plain"), ErrInternal.Code))
}
