package api

import (
	"net/http"

	"github.com/medfellows/quizforge-api/internal/api/shared"
	"github.com/medfellows/quizforge-api/internal/platform/logger"
	"github.com/medfellows/quizforge-api/internal/task"
)

// maxUploadBytes bounds the multipart form memory for PDF uploads.
const maxUploadBytes = 32 << 20

// GenerationHandler starts the background generation tasks.
type GenerationHandler struct {
	manager *task.Manager
}

// NewGenerationHandler creates a new GenerationHandler with the given dependencies.
func NewGenerationHandler(manager *task.Manager) *GenerationHandler {
	return &GenerationHandler{manager: manager}
}

// StartSingle handles POST /api/tasks/explanations/single. It queues
// explanation generation for one question and returns immediately.
func (h *GenerationHandler) StartSingle(w http.ResponseWriter, r *http.Request) {
	var req SingleExplanationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	taskID := h.manager.StartSingleExplanation(req.QuestionID)

	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskStartedResponse{
		Status: "started",
		TaskID: taskID,
	})
}

// StartBulk handles POST /api/tasks/explanations. With generateAll set the
// task covers every unexplained question of the subject; otherwise it covers
// the named topic.
func (h *GenerationHandler) StartBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkExplanationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	taskID := h.manager.StartBulkExplanation(
		req.CategoryID, req.SubjectName, req.TopicName, req.GenerateAll)

	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskStartedResponse{
		Status: "started",
		TaskID: taskID,
	})
}

// StartMCQGeneration handles POST /api/tasks/mcq-generation. It expects a
// multipart form with the document under the "pdf" field.
func (h *GenerationHandler) StartMCQGeneration(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "No PDF uploaded")
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warn("failed to close uploaded file", "error", err)
		}
	}()

	if header.Filename == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "No PDF selected")
		return
	}

	taskID, err := h.manager.StartMCQGeneration(file, header.Filename)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to store uploaded document", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskStartedResponse{
		Status: "started",
		TaskID: taskID,
	})
}
