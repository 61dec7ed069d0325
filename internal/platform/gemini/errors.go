package gemini

import "errors"

// Errors returned by the Gemini adapters.
var (
	// ErrInvalidConfig indicates the client was constructed with missing or
	// invalid configuration.
	ErrInvalidConfig = errors.New("invalid gemini configuration")

	// ErrEmptyInput indicates the caller supplied no text to work with.
	ErrEmptyInput = errors.New("input text cannot be empty")

	// ErrInvalidResponse indicates the model's response could not be used
	// (empty, malformed JSON, missing required fields).
	ErrInvalidResponse = errors.New("invalid response from model")

	// ErrContentBlocked indicates the model refused the content on safety
	// grounds. Never retried.
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// ErrCancelled indicates the caller's cancellation probe fired between
	// generation sub-steps.
	ErrCancelled = errors.New("generation cancelled")
)
