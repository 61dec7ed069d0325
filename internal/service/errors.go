package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrQuestionNotFound indicates the requested question does not exist
	// in the question bank. API layer should map this to HTTP 404 Not Found.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrSubjectNotFound indicates no subject with the given name exists
	// under the category. API layer should map this to HTTP 404 Not Found.
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrTopicNotFound indicates no topic with the given name exists under
	// the subject. API layer should map this to HTTP 404 Not Found.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrNoQuestions indicates a resolved scope contains no questions.
	ErrNoQuestions = errors.New("no questions found")

	// ErrNoExplanation indicates the question has no stored explanation to
	// return or delete. API layer should map this to HTTP 404 Not Found.
	ErrNoExplanation = errors.New("question has no explanation")
)
