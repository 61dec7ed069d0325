package api

import (
	"fmt"
	"net/http"

	"github.com/medfellows/quizforge-api/internal/api/shared"
	"github.com/medfellows/quizforge-api/internal/config"
	"github.com/medfellows/quizforge-api/internal/domain"
	"github.com/medfellows/quizforge-api/internal/service"
)

// QuestionHandler serves the read and maintenance endpoints over the
// external question bank.
type QuestionHandler struct {
	questions  *service.QuestionService
	categories []config.CategoryConfig
}

// NewQuestionHandler creates a new QuestionHandler with the given dependencies.
func NewQuestionHandler(
	questions *service.QuestionService,
	categories []config.CategoryConfig,
) *QuestionHandler {
	return &QuestionHandler{
		questions:  questions,
		categories: categories,
	}
}

// Categories handles GET /api/categories. The exam category list is fixed
// configuration, not database content.
func (h *QuestionHandler) Categories(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{Data: h.categories})
}

// Subjects handles POST /api/subjects.
func (h *QuestionHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	var req SubjectsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	subjects, err := h.questions.Subjects(r.Context(), req.CategoryID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to query subjects")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{Data: subjects})
}

// Topics handles POST /api/topics.
func (h *QuestionHandler) Topics(w http.ResponseWriter, r *http.Request) {
	var req TopicsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	topics, err := h.questions.Topics(r.Context(), req.SubjectID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to query topics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{Data: topics})
}

// QuestionsByTopic handles POST /api/questions/by-topic.
func (h *QuestionHandler) QuestionsByTopic(w http.ResponseWriter, r *http.Request) {
	var req QuestionsByTopicRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	questions, err := h.questions.QuestionsByTopic(r.Context(), req.TopicID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch questions")
		return
	}
	if questions == nil {
		questions = []domain.Question{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{Data: questions})
}

// Explanation handles POST /api/questions/explanation, returning one
// question with its options and stored explanation.
func (h *QuestionHandler) Explanation(w http.ResponseWriter, r *http.Request) {
	var req QuestionExplanationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	question, err := h.questions.QuestionWithExplanation(r.Context(), req.QuestionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{Data: question})
}

// ExplanationsByTopic handles POST /api/questions/explanations, listing
// every explained question under the named topic.
func (h *QuestionHandler) ExplanationsByTopic(w http.ResponseWriter, r *http.Request) {
	var req TopicScopeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	questions, err := h.questions.ExplanationsByTopic(
		r.Context(), req.CategoryID, req.SubjectName, req.TopicName)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{Data: questions})
}

// DeleteExplanation handles POST /api/questions/explanation/delete.
func (h *QuestionHandler) DeleteExplanation(w http.ResponseWriter, r *http.Request) {
	var req DeleteExplanationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.questions.DeleteExplanation(r.Context(), req.QuestionID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, StatusMessageResponse{
		Status:  "success",
		Message: fmt.Sprintf("Description removed for questionId=%d", req.QuestionID),
	})
}

// DeleteExplanationsByTopic handles POST /api/questions/explanations/delete.
func (h *QuestionHandler) DeleteExplanationsByTopic(w http.ResponseWriter, r *http.Request) {
	var req TopicScopeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	count, err := h.questions.DeleteExplanationsByTopic(
		r.Context(), req.CategoryID, req.SubjectName, req.TopicName)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, StatusMessageResponse{
		Status:  "success",
		Message: fmt.Sprintf("Descriptions removed from %d questions.", count),
	})
}
