package api

import (
	"net/http"

	"github.com/medfellows/quizforge-api/internal/api/shared"
	"github.com/medfellows/quizforge-api/internal/config"
	"github.com/medfellows/quizforge-api/internal/redact"
	"github.com/medfellows/quizforge-api/internal/service"
)

// HealthHandler probes the question bank connection.
type HealthHandler struct {
	questions *service.QuestionService
	dbConfig  config.DatabaseConfig
}

// NewHealthHandler creates a new HealthHandler with the given dependencies.
func NewHealthHandler(questions *service.QuestionService, dbConfig config.DatabaseConfig) *HealthHandler {
	return &HealthHandler{
		questions: questions,
		dbConfig:  dbConfig,
	}
}

// healthResponse reports database reachability and how it is reached.
type healthResponse struct {
	Status        string `json:"status"`
	Database      string `json:"database"`
	Error         string `json:"error,omitempty"`
	BridgeEnabled bool   `json:"bridge_enabled"`
	BridgeURL     string `json:"bridge_url,omitempty"`
}

// Check handles GET /health. The endpoint is unauthenticated so that load
// balancers and uptime monitors can reach it.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		BridgeEnabled: h.dbConfig.UseBridge,
	}
	if h.dbConfig.UseBridge {
		resp.BridgeURL = h.dbConfig.BridgeURL
	}

	if err := h.questions.HealthCheck(r.Context()); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "disconnected"
		resp.Error = redact.Error(err)
		shared.RespondWithJSON(w, r, http.StatusInternalServerError, resp)
		return
	}

	resp.Status = "healthy"
	resp.Database = "connected"
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
