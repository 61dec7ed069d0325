package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medfellows/quizforge-api/internal/config"
	"github.com/medfellows/quizforge-api/internal/domain"
)

// --- fakes -----------------------------------------------------------------

type fakeQuestions struct {
	mu        sync.Mutex
	questions map[int64]domain.Question
	scoped    []domain.Question
	scopeErr  error
	saveErr   map[int64]error
	saved     map[int64]string
}

func newFakeQuestions() *fakeQuestions {
	return &fakeQuestions{
		questions: make(map[int64]domain.Question),
		saveErr:   make(map[int64]error),
		saved:     make(map[int64]string),
	}
}

func (f *fakeQuestions) Question(ctx context.Context, id int64) (domain.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok {
		return domain.Question{}, fmt.Errorf("question with ID %d not found", id)
	}
	return q, nil
}

func (f *fakeQuestions) QuestionsForScope(ctx context.Context, categoryID int64, subject, topic string, all bool) ([]domain.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scopeErr != nil {
		return nil, f.scopeErr
	}
	return f.scoped, nil
}

func (f *fakeQuestions) SaveExplanation(ctx context.Context, id int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.saveErr[id]; err != nil {
		return err
	}
	f.saved[id] = text
	return nil
}

func (f *fakeQuestions) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type fakeExplainer struct {
	mu      sync.Mutex
	calls   int
	failFor map[int64]error
	gate    chan struct{} // when set, every call blocks until the gate closes
	started chan struct{} // receives one signal per call begin
	result  func(q string) string
}

func newFakeExplainer() *fakeExplainer {
	return &fakeExplainer{
		failFor: make(map[int64]error),
		result:  func(q string) string { return "## Explanation\nGenerated." },
	}
}

func (f *fakeExplainer) GenerateExplanation(ctx context.Context, formatted string, cancelled func() bool) (string, error) {
	f.mu.Lock()
	f.calls++
	started := f.started
	gate := f.gate
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if cancelled != nil && cancelled() {
		return "", errors.New("generation cancelled")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for id, err := range f.failFor {
		if strings.Contains(formatted, fmt.Sprintf("stem-%d", id)) {
			return "", err
		}
	}
	return f.result(formatted), nil
}

func (f *fakeExplainer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeGenerator struct {
	mu       sync.Mutex
	relevant bool
	relErr   error
	blocks   [][]domain.MCQBlock // per-window responses, cycled
	window   int
	genErr   error
}

func (f *fakeGenerator) GenerateItems(ctx context.Context, text string) ([]domain.MCQBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.genErr != nil {
		return nil, f.genErr
	}
	if len(f.blocks) == 0 {
		return nil, nil
	}
	blocks := f.blocks[f.window%len(f.blocks)]
	f.window++
	return blocks, nil
}

func (f *fakeGenerator) IsRelevant(ctx context.Context, sample string) (bool, error) {
	return f.relevant, f.relErr
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(path string) (string, error) {
	return f.text, f.err
}

type fakeExporter struct {
	mu       sync.Mutex
	exported []domain.MCQBlock
	err      error
}

func (f *fakeExporter) Export(blocks []domain.MCQBlock, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.exported = blocks
	return nil
}

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	url   string
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, filePath, objectName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url + objectName, nil
}

func (f *fakeUploader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// --- helpers ---------------------------------------------------------------

type managerFixture struct {
	manager   *Manager
	questions *fakeQuestions
	explainer *fakeExplainer
	generator *fakeGenerator
	extractor *fakeExtractor
	exporter  *fakeExporter
	uploader  *fakeUploader
}

func testTaskConfig(t *testing.T) config.TaskConfig {
	t.Helper()
	dir := t.TempDir()
	return config.TaskConfig{
		FanoutWorkers:    2,
		RateLimitSeconds: 0.001,
		SnapshotPath:     filepath.Join(dir, "tasks.json"),
		UploadDir:        filepath.Join(dir, "uploads"),
		WindowSize:       10,
		WindowStep:       5,
		MaxWindows:       4,
	}
}

func newFixture(t *testing.T, cfg config.TaskConfig) *managerFixture {
	t.Helper()
	f := &managerFixture{
		questions: newFakeQuestions(),
		explainer: newFakeExplainer(),
		generator: &fakeGenerator{relevant: true},
		extractor: &fakeExtractor{},
		exporter:  &fakeExporter{},
		uploader:  &fakeUploader{url: "https://storage.example.com/"},
	}
	f.manager = NewManager(cfg, Dependencies{
		Questions: f.questions,
		Explainer: f.explainer,
		Generator: f.generator,
		Extractor: f.extractor,
		Exporter:  f.exporter,
		Uploader:  f.uploader,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func testQuestion(id int64) domain.Question {
	return domain.Question{
		ID:   id,
		Text: fmt.Sprintf("stem-%d", id),
		Options: []domain.Option{
			{QuestionID: id, Text: "right", Correct: true},
			{QuestionID: id, Text: "wrong"},
		},
	}
}

func waitTerminal(t *testing.T, m *Manager, id string) Record {
	t.Helper()
	var rec Record
	require.Eventually(t, func() bool {
		var ok bool
		rec, ok = m.Status(id)
		return ok && rec.Status.Terminal()
	}, 5*time.Second, 2*time.Millisecond, "task %s never reached a terminal state", id)
	return rec
}

// --- single-item runner ----------------------------------------------------

func TestSingleExplanation_Succeeds(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	f.questions.questions[42] = testQuestion(42)

	id := f.manager.StartSingleExplanation(42)
	rec := waitTerminal(t, f.manager, id)

	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, 1, rec.Progress)
	assert.Equal(t, 1, rec.Total)
	require.Len(t, rec.Results, 1)
	assert.Equal(t, int64(42), rec.Results[0].QuestionID)
	assert.Equal(t, "right", rec.Results[0].CorrectAnswer)
	assert.NotEmpty(t, rec.Results[0].Explanation)
	assert.Equal(t, rec.Results[0].Explanation, f.questions.saved[42])
	require.NotNil(t, rec.CompletedAt)
}

func TestSingleExplanation_UnknownQuestionFails(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))

	id := f.manager.StartSingleExplanation(7)
	rec := waitTerminal(t, f.manager, id)

	assert.Equal(t, StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "not found")
	assert.Empty(t, rec.Results)
}

func TestSingleExplanation_SaveFailureFails(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	f.questions.questions[42] = testQuestion(42)
	f.questions.saveErr[42] = errors.New("bridge unavailable")

	id := f.manager.StartSingleExplanation(42)
	rec := waitTerminal(t, f.manager, id)

	assert.Equal(t, StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "bridge unavailable")
}

func TestSingleExplanation_CancelDuringGeneration(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	f.questions.questions[42] = testQuestion(42)
	f.explainer.started = make(chan struct{}, 1)
	f.explainer.gate = make(chan struct{})

	id := f.manager.StartSingleExplanation(42)
	<-f.explainer.started

	require.True(t, f.manager.Cancel(id))
	rec, _ := f.manager.Status(id)
	assert.Equal(t, StatusCancelling, rec.Status)
	assert.Equal(t, cancelRequestedMessage, rec.Error)

	close(f.explainer.gate)
	rec = waitTerminal(t, f.manager, id)

	assert.Equal(t, StatusCancelled, rec.Status)
	assert.Empty(t, rec.Results)
	assert.Equal(t, 0, f.questions.savedCount(), "cancelled task must not write to the question bank")
}

// --- terminal-state properties --------------------------------------------

func TestTerminalStateIsImmutable(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	f.questions.questions[42] = testQuestion(42)

	id := f.manager.StartSingleExplanation(42)
	rec := waitTerminal(t, f.manager, id)
	require.Equal(t, StatusCompleted, rec.Status)

	// Cancelling a finished task is refused and changes nothing.
	assert.False(t, f.manager.Cancel(id))
	after, _ := f.manager.Status(id)
	assert.Equal(t, StatusCompleted, after.Status)
	assert.Empty(t, after.Error)
}

func TestStatus_UnknownID(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	_, ok := f.manager.Status("no-such-task")
	assert.False(t, ok)
}

// --- fan-out runner --------------------------------------------------------

func TestBulkExplanation_AllItemsProduceEntries(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	for i := int64(1); i <= 5; i++ {
		f.questions.scoped = append(f.questions.scoped, testQuestion(i))
	}
	// Two of the five fail at generation; the batch still completes.
	f.explainer.failFor[2] = errors.New("model overloaded")
	f.explainer.failFor[4] = errors.New("model overloaded")

	id := f.manager.StartBulkExplanation(8, "Anatomia", "Czaszka", false)
	rec := waitTerminal(t, f.manager, id)

	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, 5, rec.Total)
	assert.Equal(t, 5, rec.Progress)
	require.Len(t, rec.Results, 5)

	succeeded, failed := 0, 0
	seen := map[int64]bool{}
	for _, res := range rec.Results {
		seen[res.QuestionID] = true
		if res.Error == "" {
			succeeded++
		} else {
			failed++
		}
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 2, failed)
	assert.Len(t, seen, 5, "every item appears exactly once")
	assert.Equal(t, 3, f.questions.savedCount())
}

func TestBulkExplanation_ScopeErrorFails(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	f.questions.scopeErr = errors.New("subject not found")

	id := f.manager.StartBulkExplanation(8, "Nope", "Topic", false)
	rec := waitTerminal(t, f.manager, id)

	assert.Equal(t, StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "subject not found")
}

func TestBulkExplanation_ZeroWorkCompletes(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	f.questions.scoped = nil

	id := f.manager.StartBulkExplanation(8, "Anatomia", "", true)
	rec := waitTerminal(t, f.manager, id)

	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, noQualifyingWorkMessage, rec.Error)
	assert.Zero(t, rec.Total)
	assert.Empty(t, rec.Results)
}

func TestBulkExplanation_CancelMidRun(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	for i := int64(1); i <= 5; i++ {
		f.questions.scoped = append(f.questions.scoped, testQuestion(i))
	}
	f.explainer.started = make(chan struct{}, 8)
	f.explainer.gate = make(chan struct{})

	id := f.manager.StartBulkExplanation(8, "Anatomia", "Czaszka", false)

	// Wait until both pool workers are inside the expensive call.
	<-f.explainer.started
	<-f.explainer.started

	require.True(t, f.manager.Cancel(id))
	close(f.explainer.gate)

	rec := waitTerminal(t, f.manager, id)
	assert.Equal(t, StatusCancelled, rec.Status)
	assert.LessOrEqual(t, len(rec.Results), rec.Total)

	// No residual registrations once terminal.
	f.manager.Wait()
	assert.Equal(t, 0, f.manager.CancelAll())
}

// --- pipeline runner -------------------------------------------------------

func mcqBlock(topic string, questions ...string) domain.MCQBlock {
	block := domain.MCQBlock{Topic: topic}
	for _, q := range questions {
		block.Questions = append(block.Questions, domain.MCQ{
			Question:    q,
			Options:     map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
			Answer:      "A",
			Explanation: "because",
		})
	}
	return block
}

func startPipeline(t *testing.T, f *managerFixture) string {
	t.Helper()
	id, err := f.manager.StartMCQGeneration(strings.NewReader("%PDF-1.4 payload"), "notes.pdf")
	require.NoError(t, err)
	return id
}

func TestMCQGeneration_Succeeds(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	f.extractor.text = strings.Repeat("word ", 30)
	f.generator.blocks = [][]domain.MCQBlock{
		{mcqBlock("Sepsis", "Q1", "Q2")},
		{mcqBlock("Shock", "Q3")},
	}

	id := startPipeline(t, f)
	rec := waitTerminal(t, f.manager, id)

	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, "Generation complete.", rec.Stage)
	assert.Equal(t, "https://storage.example.com/notes_mcqs.xlsx", rec.DownloadURL)
	assert.Equal(t, 1, f.uploader.callCount())

	// 30 words, window 10 step 5 -> 5 windows, capped at 4.
	assert.Equal(t, 4, f.generator.window)
}

func TestMCQGeneration_IrrelevantDocumentFailsFast(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	f.extractor.text = strings.Repeat("word ", 30)
	f.generator.relevant = false

	id := startPipeline(t, f)
	rec := waitTerminal(t, f.manager, id)

	assert.Equal(t, StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "not clinically relevant")
	assert.Zero(t, f.generator.window, "no window reaches generation")
	assert.Zero(t, f.uploader.callCount(), "no upload for an irrelevant document")
}

func TestMCQGeneration_ExtractionFailureFails(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	f.extractor.err = errors.New("no extractable text in document")

	id := startPipeline(t, f)
	rec := waitTerminal(t, f.manager, id)

	assert.Equal(t, StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "no extractable text")
}

func TestMCQGeneration_DeduplicatesByQuestionText(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	f.extractor.text = strings.Repeat("word ", 30)
	// The same question text appears in two windows; only the first survives.
	f.generator.blocks = [][]domain.MCQBlock{
		{mcqBlock("Sepsis", "Duplicate question?", "Unique one?")},
		{mcqBlock("Sepsis again", "Duplicate question?")},
	}

	id := startPipeline(t, f)
	rec := waitTerminal(t, f.manager, id)
	require.Equal(t, StatusCompleted, rec.Status)

	total := 0
	duplicates := 0
	for _, block := range f.exporter.exported {
		for _, q := range block.Questions {
			total++
			if q.Question == "Duplicate question?" {
				duplicates++
			}
		}
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, duplicates)
}

func TestMCQGeneration_ExhaustedWindowsCompleteWithNote(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	f.extractor.text = strings.Repeat("word ", 30)
	f.generator.blocks = nil // every window yields nothing

	id := startPipeline(t, f)
	rec := waitTerminal(t, f.manager, id)

	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Contains(t, rec.Error, "No questions could be generated")
	assert.Zero(t, f.uploader.callCount())
}

func TestMCQGeneration_CleansUpFiles(t *testing.T) {
	cfg := testTaskConfig(t)
	f := newFixture(t, cfg)
	f.extractor.text = strings.Repeat("word ", 30)
	f.generator.blocks = [][]domain.MCQBlock{{mcqBlock("Sepsis", "Q1")}}

	id := startPipeline(t, f)
	waitTerminal(t, f.manager, id)
	f.manager.Wait()

	entries, err := os.ReadDir(cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "uploaded PDF is removed after the run")
}

// --- listing, purge, snapshot restore --------------------------------------

func TestListOrdersActiveBeforeTerminal(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	f.questions.questions[1] = testQuestion(1)

	doneID := f.manager.StartSingleExplanation(1)
	waitTerminal(t, f.manager, doneID)

	f.explainer.started = make(chan struct{}, 1)
	f.explainer.gate = make(chan struct{})
	f.questions.questions[2] = testQuestion(2)
	activeID := f.manager.StartSingleExplanation(2)
	<-f.explainer.started

	list := f.manager.List("")
	require.Len(t, list, 2)
	assert.Equal(t, activeID, list[0].ID, "processing sorts before completed")
	assert.Equal(t, doneID, list[1].ID)

	close(f.explainer.gate)
	waitTerminal(t, f.manager, activeID)
}

func TestRunningView(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	f.questions.questions[1] = testQuestion(1)
	f.explainer.started = make(chan struct{}, 1)
	f.explainer.gate = make(chan struct{})

	id := f.manager.StartSingleExplanation(1)
	<-f.explainer.started

	running := f.manager.Running()
	require.Len(t, running, 1)
	assert.Equal(t, id, running[0].TaskID)
	assert.True(t, running[0].WorkerAlive)

	close(f.explainer.gate)
	waitTerminal(t, f.manager, id)
	f.manager.Wait()
	assert.Empty(t, f.manager.Running())
}

func TestPurgeTerminal(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	f.questions.questions[1] = testQuestion(1)

	id := f.manager.StartSingleExplanation(1)
	waitTerminal(t, f.manager, id)
	failedID := f.manager.StartSingleExplanation(99)
	waitTerminal(t, f.manager, failedID)

	assert.Equal(t, 2, f.manager.PurgeTerminal())
	assert.Empty(t, f.manager.List(""))
	assert.Equal(t, 0, f.manager.PurgeTerminal())
}

func TestRestartRestoresReducedProjection(t *testing.T) {
	cfg := testTaskConfig(t)

	f := newFixture(t, cfg)
	f.questions.questions[42] = testQuestion(42)
	id := f.manager.StartSingleExplanation(42)
	before := waitTerminal(t, f.manager, id)
	f.manager.Wait()
	require.Equal(t, StatusCompleted, before.Status)

	// Same snapshot path, fresh process.
	restarted := newFixture(t, cfg)
	require.NoError(t, restarted.manager.Restore())

	list := restarted.manager.List("")
	require.Len(t, list, 1)
	restored := list[0]

	assert.Equal(t, id, restored.ID)
	assert.Equal(t, before.Status, restored.Status)
	assert.Equal(t, before.Progress, restored.Progress)
	assert.Equal(t, before.Total, restored.Total)
	assert.Empty(t, restored.Results, "results payloads are not persisted")
	assert.Equal(t, 1, restored.ResultCount)
	assert.True(t, restored.Restored)
}

func TestRestoreWithoutSnapshotIsNoOp(t *testing.T) {
	f := newFixture(t, testTaskConfig(t))
	require.NoError(t, f.manager.Restore())
	assert.Empty(t, f.manager.List(""))
}
