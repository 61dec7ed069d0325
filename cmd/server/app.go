package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/medfellows/quizforge-api/internal/config"
	"github.com/medfellows/quizforge-api/internal/platform/bridge"
	"github.com/medfellows/quizforge-api/internal/platform/excel"
	"github.com/medfellows/quizforge-api/internal/platform/gemini"
	"github.com/medfellows/quizforge-api/internal/platform/logger"
	"github.com/medfellows/quizforge-api/internal/platform/objstore"
	"github.com/medfellows/quizforge-api/internal/platform/pdfutil"
	"github.com/medfellows/quizforge-api/internal/platform/postgres"
	"github.com/medfellows/quizforge-api/internal/service"
	"github.com/medfellows/quizforge-api/internal/service/auth"
	"github.com/medfellows/quizforge-api/internal/task"
)

// application holds the wired dependencies of the running server.
type application struct {
	config      *config.Config
	logger      *slog.Logger
	questions   *service.QuestionService
	jwtService  auth.JWTService
	verifier    auth.PasswordVerifier
	taskManager *task.Manager
	closers     []func() error
}

// buildApplication loads configuration and wires every component of the
// server: the query executor, the question service, the LLM client, the
// artifact pipeline collaborators, and the task engine. Previously
// snapshotted tasks are restored before the server accepts requests.
func buildApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"bridge_enabled", cfg.Database.UseBridge)

	app := &application{
		config: cfg,
		logger: appLogger,
	}

	// Query executor: HTTP bridge by default, direct connection otherwise.
	var executor service.QueryExecutor
	if cfg.Database.UseBridge {
		executor = bridge.New(cfg.Database)
	} else {
		direct, err := postgres.Open(ctx, cfg.Database.DirectURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.closers = append(app.closers, direct.Close)
		executor = direct
	}

	app.questions = service.NewQuestionService(executor, appLogger)

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	app.verifier = auth.NewBcryptVerifier()

	llm, err := gemini.NewClient(ctx, appLogger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	uploader, err := objstore.NewUploader(cfg.Storage, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage uploader: %w", err)
	}

	app.taskManager = task.NewManager(cfg.Task, task.Dependencies{
		Questions: app.questions,
		Explainer: llm,
		Generator: llm,
		Extractor: pdfutil.NewExtractor(),
		Exporter:  excel.NewExporter(),
		Uploader:  uploader,
	}, appLogger)

	if err := app.taskManager.Restore(); err != nil {
		appLogger.Warn("failed to restore task snapshot", "error", err)
	}

	return app, nil
}

// cleanup stops background work and releases held resources. Called after
// the HTTP server has drained.
func (app *application) cleanup() {
	cancelled := app.taskManager.CancelAll()
	if cancelled > 0 {
		app.logger.Info("cancelled running tasks for shutdown", "count", cancelled)
	}
	app.taskManager.Wait()

	for _, closeFn := range app.closers {
		if err := closeFn(); err != nil {
			app.logger.Error("cleanup failed", "error", err)
		}
	}
}
