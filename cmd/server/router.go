package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medfellows/quizforge-api/internal/api"
	apimiddleware "github.com/medfellows/quizforge-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	// Create API handlers using the application's services
	authHandler := api.NewAuthHandler(app.jwtService, app.verifier, app.config.Auth.AdminPasswordHash)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	questionHandler := api.NewQuestionHandler(app.questions, app.config.Categories)
	taskHandler := api.NewTaskHandler(app.taskManager)
	generationHandler := api.NewGenerationHandler(app.taskManager)
	healthHandler := api.NewHealthHandler(app.questions, app.config.Database)

	// Authentication endpoint (public)
	r.Post("/auth/token", authHandler.Token)

	// Protected routes
	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		// Question bank reads
		r.Get("/categories", questionHandler.Categories)
		r.Post("/subjects", questionHandler.Subjects)
		r.Post("/topics", questionHandler.Topics)
		r.Post("/questions/by-topic", questionHandler.QuestionsByTopic)
		r.Post("/questions/explanation", questionHandler.Explanation)
		r.Post("/questions/explanations", questionHandler.ExplanationsByTopic)

		// Explanation maintenance
		r.Post("/questions/explanation/delete", questionHandler.DeleteExplanation)
		r.Post("/questions/explanations/delete", questionHandler.DeleteExplanationsByTopic)

		// Task starts
		r.Post("/tasks/explanations/single", generationHandler.StartSingle)
		r.Post("/tasks/explanations", generationHandler.StartBulk)
		r.Post("/tasks/mcq-generation", generationHandler.StartMCQGeneration)

		// Task lifecycle
		r.Get("/tasks", taskHandler.List)
		r.Get("/tasks/running", taskHandler.Running)
		r.Get("/tasks/{taskID}", taskHandler.Status)
		r.Get("/tasks/{taskID}/details", taskHandler.Details)
		r.Post("/tasks/{taskID}/cancel", taskHandler.Cancel)
		r.Post("/tasks/cancel-all", taskHandler.CancelAll)
		r.Post("/tasks/purge", taskHandler.Purge)
	})

	// Health check endpoint (public, probes the question bank)
	r.Get("/health", healthHandler.Check)

	return r
}
