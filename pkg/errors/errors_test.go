package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromErrorPassesThroughAppError(t *testing.T) {
	require.Same(t, ErrUnauthorized, FromError(ErrUnauthorized))

	wrapped := fmt.Errorf("handler: %w", ErrCodeMismatch)
	require.Same(t, ErrCodeMismatch, FromError(wrapped))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	plain := stderrors.New("boom")
	appErr := FromError(plain)
	require.Equal(t, ErrInternalServer.Code, appErr.Code)
	require.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	require.ErrorIs(t, appErr, plain)
}

func TestWithInternalCopies(t *testing.T) {
	cause := stderrors.New("db down")
	appErr := ErrInternalServer.WithInternal(cause)

	require.NotSame(t, ErrInternalServer, appErr)
	require.Nil(t, ErrInternalServer.Internal)
	require.ErrorIs(t, appErr, cause)
	require.Contains(t, appErr.Error(), "db down")
}

func TestNewBadRequest(t *testing.T) {
	appErr := NewBadRequest("q is required")
	require.Equal(t, ErrBadRequest.Code, appErr.Code)
	require.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	require.Equal(t, "q is required", appErr.Message)
}
