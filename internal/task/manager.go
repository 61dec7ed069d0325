package task

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medfellows/quizforge-api/internal/config"
	"github.com/medfellows/quizforge-api/internal/domain"
	"github.com/medfellows/quizforge-api/internal/platform/logger"
)

// cancelRequestedMessage is recorded on a task when a caller asks for
// cancellation; the terminal message is set later by the worker when it
// observes the flag.
const cancelRequestedMessage = "Cancellation requested by user."

// QuestionSource loads questions from the question bank and stores
// generated explanations back.
type QuestionSource interface {
	// Question loads one question with its answer options.
	Question(ctx context.Context, questionID int64) (domain.Question, error)

	// QuestionsForScope resolves a category/subject/topic scope to its
	// questions. With generateAll set it returns every question under the
	// subject still lacking an explanation; that set may be empty.
	QuestionsForScope(ctx context.Context, categoryID int64, subjectName, topicName string, generateAll bool) ([]domain.Question, error)

	// SaveExplanation persists a generated explanation.
	SaveExplanation(ctx context.Context, questionID int64, explanation string) error
}

// ExplanationGenerator produces a board-style explanation for one
// formatted question. It consults the cancellation probe between its
// internal sub-steps and may abort early.
type ExplanationGenerator interface {
	GenerateExplanation(ctx context.Context, formattedQuestion string, cancelled func() bool) (string, error)
}

// ItemGenerator turns source-text windows into MCQs and answers the cheap
// relevance probe. GenerateItems returns an empty result, not an error,
// when its retries are exhausted.
type ItemGenerator interface {
	GenerateItems(ctx context.Context, sourceText string) ([]domain.MCQBlock, error)
	IsRelevant(ctx context.Context, sampleText string) (bool, error)
}

// DocumentExtractor pulls plain text out of an uploaded document.
type DocumentExtractor interface {
	ExtractText(path string) (string, error)
}

// Exporter writes generated MCQ blocks to a downloadable artifact.
type Exporter interface {
	Export(blocks []domain.MCQBlock, path string) error
}

// Uploader stores an artifact externally and returns its download URL.
type Uploader interface {
	Upload(ctx context.Context, filePath, objectName string) (string, error)
}

// Dependencies bundles the collaborators a Manager drives.
type Dependencies struct {
	Questions QuestionSource
	Explainer ExplanationGenerator
	Generator ItemGenerator
	Extractor DocumentExtractor
	Exporter  Exporter
	Uploader  Uploader
}

// RunningTask is the liveness view of one task that still has a worker.
type RunningTask struct {
	TaskID       string  `json:"task_id"`
	Status       Status  `json:"status"`
	Progress     int     `json:"progress"`
	Total        int     `json:"total"`
	WorkerAlive  bool    `json:"worker_alive"`
	LatestResult *Result `json:"latest_result,omitempty"`
}

// Manager is the task facade: it starts workers, exposes status reads, and
// routes cancellation requests to the registry.
type Manager struct {
	logger    *slog.Logger
	cfg       config.TaskConfig
	store     *Store
	registry  *Registry
	limiter   *RateLimiter
	snapshots *Snapshotter
	deps      Dependencies
	wg        sync.WaitGroup
}

// NewManager wires a Manager from its configuration and collaborators.
func NewManager(cfg config.TaskConfig, deps Dependencies, log *slog.Logger) *Manager {
	m := &Manager{
		logger:    log,
		cfg:       cfg,
		store:     NewStore(),
		registry:  NewRegistry(),
		limiter:   NewRateLimiter(time.Duration(cfg.RateLimitSeconds * float64(time.Second))),
		snapshots: NewSnapshotter(cfg.SnapshotPath),
		deps:      deps,
	}

	m.store.SetChangeHook(func(seq uint64, records []Record) {
		if err := m.snapshots.Save(seq, records); err != nil {
			log.Warn("task snapshot write failed", "error", err)
		}
	})

	return m
}

// Restore reloads the reduced task projections persisted by a previous
// process. Restored tasks stay visible in listings in whatever state they
// were last snapshotted in; they are never re-attached to a worker. Called
// once at startup, before any task starts.
func (m *Manager) Restore() error {
	records, err := m.snapshots.Restore()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	m.store.Load(records)
	m.logger.Info("restored task snapshot", "task_count", len(records))
	return nil
}

// StartSingleExplanation starts a task generating one explanation for one
// question and returns its task id immediately.
func (m *Manager) StartSingleExplanation(questionID int64) string {
	id := uuid.New().String()
	m.store.Create(Record{
		ID:        id,
		Type:      TypeSingleExplanation,
		Params:    map[string]any{"question_id": questionID},
		Status:    StatusQueued,
		StartedAt: time.Now(),
	})
	m.spawn(id, func(ctx context.Context) {
		m.runSingleExplanation(ctx, id, questionID)
	})
	return id
}

// StartBulkExplanation starts a fan-out task generating explanations for
// every question in the given scope and returns its task id immediately.
func (m *Manager) StartBulkExplanation(categoryID int64, subjectName, topicName string, generateAll bool) string {
	id := uuid.New().String()
	m.store.Create(Record{
		ID:   id,
		Type: TypeBulkExplanation,
		Params: map[string]any{
			"category_id":  categoryID,
			"subject_name": subjectName,
			"topic_name":   topicName,
			"generate_all": generateAll,
		},
		Status:    StatusQueued,
		StartedAt: time.Now(),
	})
	m.spawn(id, func(ctx context.Context) {
		m.runBulkExplanation(ctx, id, categoryID, subjectName, topicName, generateAll)
	})
	return id
}

// StartMCQGeneration stores the uploaded PDF under the upload directory
// and starts the generation pipeline for it. Unlike the other starts it
// can fail synchronously, on the file copy.
func (m *Manager) StartMCQGeneration(file io.Reader, filename string) (string, error) {
	id := uuid.New().String()

	if err := os.MkdirAll(m.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	pdfPath := filepath.Join(m.cfg.UploadDir, fmt.Sprintf("%s_%s", id, filepath.Base(filename)))
	dst, err := os.Create(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to store uploaded file: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(pdfPath)
		return "", fmt.Errorf("failed to store uploaded file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(pdfPath)
		return "", fmt.Errorf("failed to store uploaded file: %w", err)
	}

	m.store.Create(Record{
		ID:        id,
		Type:      TypeMCQGeneration,
		Params:    map[string]any{"filename": filename},
		Status:    StatusQueued,
		Stage:     "Queued",
		StartedAt: time.Now(),
	})
	m.spawn(id, func(ctx context.Context) {
		m.runMCQGeneration(ctx, id, pdfPath, filename)
	})
	return id, nil
}

// Status returns a copy of the task's record, or false if the id is
// unknown.
func (m *Manager) Status(id string) (Record, bool) {
	return m.store.Get(id)
}

// Cancel requests cooperative cancellation of a live task. It reports
// whether a live worker existed; already-terminal tasks cannot be
// cancelled.
func (m *Manager) Cancel(id string) bool {
	if !m.registry.RequestCancel(id) {
		return false
	}
	m.store.Mutate(id, func(rec *Record) {
		rec.Status = StatusCancelling
		rec.Error = cancelRequestedMessage
	})
	m.logger.Info("task cancellation requested", "task_id", id)
	return true
}

// CancelAll requests cancellation of every live task and returns the
// count affected.
func (m *Manager) CancelAll() int {
	count := 0
	for _, id := range m.registry.LiveIDs() {
		if m.Cancel(id) {
			count++
		}
	}
	return count
}

// List returns all task records, optionally filtered by status, ordered by
// status priority with ties in insertion order.
func (m *Manager) List(filter Status) []Record {
	return m.store.List(filter)
}

// Running returns the liveness view of tasks that still have a registry
// entry.
func (m *Manager) Running() []RunningTask {
	ids := m.registry.LiveIDs()
	out := make([]RunningTask, 0, len(ids))
	for _, id := range ids {
		rec, ok := m.store.Get(id)
		if !ok {
			continue
		}
		out = append(out, RunningTask{
			TaskID:       id,
			Status:       rec.Status,
			Progress:     rec.Progress,
			Total:        rec.Total,
			WorkerAlive:  m.registry.Alive(id),
			LatestResult: rec.LatestResult,
		})
	}
	return out
}

// PurgeTerminal removes every completed, failed, or cancelled task record
// and returns the count removed.
func (m *Manager) PurgeTerminal() int {
	return m.store.Purge(func(rec Record) bool {
		return rec.Status.Terminal()
	})
}

// Wait blocks until every running worker has reached its terminal state.
// Used during graceful shutdown; combined with cooperative cancellation it
// bounds shutdown to one external call per live task.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// spawn registers the task and runs fn on a dedicated goroutine. The
// worker context carries the manager's logger; it deliberately does not
// inherit any request context, because tasks outlive their requests.
func (m *Manager) spawn(id string, fn func(ctx context.Context)) {
	done := make(chan struct{})
	m.registry.Register(id, done)

	ctx := logger.WithContext(context.Background(), m.logger.With("task_id", id))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(done)
		fn(ctx)
	}()
}

// setProcessing marks the task as actively executing.
func (m *Manager) setProcessing(id string) {
	m.store.Mutate(id, func(rec *Record) {
		rec.Status = StatusProcessing
	})
}

// finish records a terminal transition and removes the task's registry
// entry. The store ignores the mutation if the record is already terminal.
func (m *Manager) finish(id string, status Status, errMsg string) {
	now := time.Now()
	m.store.Mutate(id, func(rec *Record) {
		rec.Status = status
		rec.Error = errMsg
		rec.CompletedAt = &now
	})
	m.registry.Unregister(id)
}

func (m *Manager) failTask(ctx context.Context, id string, err error) {
	logger.FromContext(ctx).Error("task failed", "error", err)
	m.finish(id, StatusFailed, err.Error())
}

func (m *Manager) cancelTask(ctx context.Context, id, reason string) {
	logger.FromContext(ctx).Info("task cancelled", "reason", reason)
	m.finish(id, StatusCancelled, reason)
}
