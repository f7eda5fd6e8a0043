package handlers

import (
	"errors"
	"net/http"

	iauth "github.com/connecthq/connect/internal/auth"
	"github.com/connecthq/connect/internal/services"
	appErrors "github.com/connecthq/connect/pkg/errors"
)

// serviceError translates service-layer sentinels into client-facing errors.
// Anything unrecognised falls through and renders as a 500.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return appErrors.New("USER_NOT_FOUND", "User not found.", http.StatusNotFound)
	case errors.Is(err, services.ErrUsernameTaken):
		return appErrors.ErrUsernameTaken
	case errors.Is(err, services.ErrEmailTaken):
		return appErrors.ErrEmailTaken
	case errors.Is(err, services.ErrEmailNotVerified):
		return appErrors.ErrEmailNotVerified
	case errors.Is(err, services.ErrInvalidCredentials):
		return appErrors.ErrInvalidCredentials
	case errors.Is(err, services.ErrVerificationNotFound):
		return appErrors.New("VERIFICATION_NOT_FOUND", "No verification code was requested for this email.", http.StatusNotFound)
	case errors.Is(err, services.ErrCodeMismatch):
		return appErrors.ErrCodeMismatch
	case errors.Is(err, services.ErrAttemptsExhausted):
		return appErrors.ErrAttemptsExhausted
	case errors.Is(err, services.ErrPostNotFound):
		return appErrors.New("POST_NOT_FOUND", "Post not found.", http.StatusNotFound)
	case errors.Is(err, services.ErrTitleTooLong):
		return appErrors.NewBadRequest("Title must be at most 30 characters.")
	case errors.Is(err, services.ErrSelfFollow):
		return appErrors.NewBadRequest("You cannot follow yourself.")
	case errors.Is(err, services.ErrNoResults):
		return appErrors.New("NO_RESULTS", "Nothing to show here yet.", http.StatusNotFound)
	case errors.Is(err, services.ErrSamePassword):
		return appErrors.NewBadRequest("New password must be different from the current one.")
	case errors.Is(err, services.ErrPasswordMismatch):
		return appErrors.NewBadRequest("Password you entered is wrong. Please try again.")
	case errors.Is(err, iauth.ErrInvalidToken), errors.Is(err, iauth.ErrTokenRevoked):
		return appErrors.ErrUnauthorized
	default:
		return err
	}
}
