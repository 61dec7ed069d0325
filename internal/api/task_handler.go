package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medfellows/quizforge-api/internal/api/shared"
	"github.com/medfellows/quizforge-api/internal/task"
)

// recentResultCount is how many trailing results the details endpoint returns.
const recentResultCount = 5

// TaskHandler serves the status and lifecycle endpoints of the task engine.
type TaskHandler struct {
	manager *task.Manager
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(manager *task.Manager) *TaskHandler {
	return &TaskHandler{manager: manager}
}

// taskListResponse is the envelope for task listing endpoints.
type taskListResponse struct {
	Status string      `json:"status"`
	Tasks  interface{} `json:"tasks"`
	Count  int         `json:"count"`
}

// taskDetails extends a task record with a bounded view of its results.
type taskDetails struct {
	task.Record
	RecentResults []task.Result `json:"recent_results"`
	TotalResults  int           `json:"total_results"`
}

// List handles GET /api/tasks. An optional status query parameter narrows
// the listing to one lifecycle state.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := task.Status(r.URL.Query().Get("status"))

	records := h.manager.List(filter)
	summaries := make([]task.Record, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, summarize(rec))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskListResponse{
		Status: "success",
		Tasks:  summaries,
		Count:  len(summaries),
	})
}

// Running handles GET /api/tasks/running, reporting active tasks together
// with their worker liveness.
func (h *TaskHandler) Running(w http.ResponseWriter, r *http.Request) {
	running := h.manager.Running()
	shared.RespondWithJSON(w, r, http.StatusOK, taskListResponse{
		Status: "success",
		Tasks:  running,
		Count:  len(running),
	})
}

// Status handles GET /api/tasks/{taskID}. The response omits the full result
// list; pollers that need it use the details endpoint.
func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")

	rec, ok := h.manager.Status(id)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summarize(rec))
}

// Details handles GET /api/tasks/{taskID}/details, returning the record with
// its most recent results and a total result count.
func (h *TaskHandler) Details(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")

	rec, ok := h.manager.Status(id)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}

	recent := rec.Results
	if len(recent) > recentResultCount {
		recent = recent[len(recent)-recentResultCount:]
	}
	if recent == nil {
		recent = []task.Result{}
	}

	details := taskDetails{
		Record:        summarize(rec),
		RecentResults: recent,
		TotalResults:  len(rec.Results),
	}

	shared.RespondWithJSON(w, r, http.StatusOK, struct {
		Status string      `json:"status"`
		Task   taskDetails `json:"task"`
	}{Status: "success", Task: details})
}

// Cancel handles POST /api/tasks/{taskID}/cancel.
func (h *TaskHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")

	if !h.manager.Cancel(id) {
		shared.RespondWithError(w, r, http.StatusNotFound,
			"Task not found or could not be cancelled")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskStartedResponse{
		Status: "cancelled",
		TaskID: id,
	})
}

// CancelAll handles POST /api/tasks/cancel-all.
func (h *TaskHandler) CancelAll(w http.ResponseWriter, r *http.Request) {
	count := h.manager.CancelAll()
	shared.RespondWithJSON(w, r, http.StatusOK, StatusMessageResponse{
		Status:  "success",
		Message: fmt.Sprintf("Cancelled %d running tasks", count),
	})
}

// Purge handles POST /api/tasks/purge, dropping terminal records from memory.
func (h *TaskHandler) Purge(w http.ResponseWriter, r *http.Request) {
	count := h.manager.PurgeTerminal()
	shared.RespondWithJSON(w, r, http.StatusOK, struct {
		Status       string `json:"status"`
		Message      string `json:"message"`
		ClearedCount int    `json:"cleared_count"`
	}{
		Status:       "success",
		Message:      fmt.Sprintf("Cleared %d completed tasks", count),
		ClearedCount: count,
	})
}

// summarize strips the unbounded result list from a record, keeping
// latest_result and results_count for cheap polling.
func summarize(rec task.Record) task.Record {
	rec.Results = nil
	return rec
}
