package api

import (
	"errors"
	"net/http"

	"github.com/medfellows/quizforge-api/internal/api/shared"
	"github.com/medfellows/quizforge-api/internal/service"
	"github.com/medfellows/quizforge-api/internal/service/auth"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, service.ErrQuestionNotFound),
		errors.Is(err, service.ErrSubjectNotFound),
		errors.Is(err, service.ErrTopicNotFound),
		errors.Is(err, service.ErrNoQuestions),
		errors.Is(err, service.ErrNoExplanation):
		return http.StatusNotFound

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	// Handle nil error
	if err == nil {
		return "An unexpected error occurred"
	}

	// Map specific error types to user-friendly messages
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"

	// Not found errors
	case errors.Is(err, service.ErrQuestionNotFound):
		return "Question not found"

	case errors.Is(err, service.ErrSubjectNotFound):
		return "Subject not found"

	case errors.Is(err, service.ErrTopicNotFound):
		return "Topic not found"

	case errors.Is(err, service.ErrNoQuestions):
		return "No questions linked to this topic"

	case errors.Is(err, service.ErrNoExplanation):
		return "No description to remove."

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps an internal error to a safe HTTP response and logs
// the full error. An explicit userMessage overrides the mapped safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}
