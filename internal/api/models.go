package api

// Common request/response structures

// TokenRequest defines the payload for the admin token endpoint.
type TokenRequest struct {
	Password string `json:"password" validate:"required,min=1"`
}

// TokenResponse defines the successful response for the admin token endpoint.
type TokenResponse struct {
	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// SingleExplanationRequest starts explanation generation for one question.
type SingleExplanationRequest struct {
	QuestionID int64 `json:"questionId" validate:"required,gt=0"`
}

// BulkExplanationRequest starts explanation generation across a topic, or
// across every unexplained question of a subject when GenerateAll is set.
type BulkExplanationRequest struct {
	CategoryID  int64  `json:"categoryId"  validate:"required,gt=0"`
	SubjectName string `json:"subjectName" validate:"required"`
	TopicName   string `json:"topicName"   validate:"required_unless=GenerateAll true"`
	GenerateAll bool   `json:"generateAll"`
}

// TaskStartedResponse acknowledges an accepted background task.
type TaskStartedResponse struct {
	Status string `json:"status"`
	TaskID string `json:"taskId"`
}

// SubjectsRequest looks up the subjects of one exam category.
type SubjectsRequest struct {
	CategoryID int64 `json:"categoryId" validate:"required,gt=0"`
}

// TopicsRequest looks up the topics of one subject.
type TopicsRequest struct {
	SubjectID int64 `json:"subjectId" validate:"required,gt=0"`
}

// QuestionsByTopicRequest fetches the questions linked to one topic.
type QuestionsByTopicRequest struct {
	TopicID int64 `json:"topicId" validate:"required,gt=0"`
}

// QuestionExplanationRequest fetches one question with its explanation.
type QuestionExplanationRequest struct {
	QuestionID int64 `json:"questionId" validate:"required,gt=0"`
}

// TopicScopeRequest names a topic by category, subject and topic name. Used
// by the explanation listing and bulk-deletion endpoints.
type TopicScopeRequest struct {
	CategoryID  int64  `json:"categoryId"  validate:"required,gt=0"`
	SubjectName string `json:"subjectName" validate:"required"`
	TopicName   string `json:"topicName"   validate:"required"`
}

// DeleteExplanationRequest clears the stored explanation of one question.
type DeleteExplanationRequest struct {
	QuestionID int64 `json:"questionId" validate:"required,gt=0"`
}

// DataResponse wraps list payloads the way the question endpoints return them.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// StatusMessageResponse reports the outcome of a mutating operation.
type StatusMessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
