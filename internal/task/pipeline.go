package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/medfellows/quizforge-api/internal/domain"
	"github.com/medfellows/quizforge-api/internal/platform/logger"
	"github.com/medfellows/quizforge-api/internal/platform/pdfutil"
)

// runMCQGeneration drives the strictly sequential PDF-to-MCQ pipeline:
// extract text, window it, gate on the first window's relevance, generate
// items for a bounded prefix of windows, deduplicate, export to a
// workbook, and upload it. Cancellation is checked once per window
// boundary; windows run sequentially so no finer granularity exists.
func (m *Manager) runMCQGeneration(ctx context.Context, id, pdfPath, filename string) {
	log := logger.FromContext(ctx)

	excelName := strings.TrimSuffix(filepath.Base(filename), ".pdf") + "_mcqs.xlsx"
	excelPath := filepath.Join(os.TempDir(), excelName)
	defer func() {
		if err := os.Remove(pdfPath); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove uploaded file", "path", pdfPath, "error", err)
		}
		if err := os.Remove(excelPath); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove exported workbook", "path", excelPath, "error", err)
		}
	}()

	m.setProcessing(id)
	m.setStage(id, "Extracting text...")

	text, err := m.deps.Extractor.ExtractText(pdfPath)
	if err != nil {
		m.failTask(ctx, id, err)
		return
	}

	windows := pdfutil.SlidingWindowChunks(text, m.cfg.WindowSize, m.cfg.WindowStep)
	if len(windows) == 0 {
		m.failTask(ctx, id, fmt.Errorf("document contains no processable text"))
		return
	}

	m.setStage(id, "Checking relevance...")
	relevant, err := m.deps.Generator.IsRelevant(ctx, windows[0])
	if err != nil {
		m.failTask(ctx, id, err)
		return
	}
	if !relevant {
		m.failTask(ctx, id, fmt.Errorf("document is not clinically relevant"))
		return
	}

	limit := m.cfg.MaxWindows
	if limit > len(windows) {
		limit = len(windows)
	}

	var blocks []domain.MCQBlock
	for i := 0; i < limit; i++ {
		if m.registry.IsCancelled(id) {
			m.cancelTask(ctx, id, "Task was cancelled.")
			return
		}

		m.setStage(id, fmt.Sprintf("Processing window %d of %d...", i+1, len(windows)))
		m.limiter.Throttle()

		generated, err := m.deps.Generator.GenerateItems(ctx, windows[i])
		if err != nil {
			m.failTask(ctx, id, err)
			return
		}
		blocks = append(blocks, generated...)
	}

	m.setStage(id, "Exporting questions to Excel...")
	final := domain.DeduplicateMCQs(blocks)
	if domain.QuestionCount(final) == 0 {
		m.finish(id, StatusCompleted, "No questions could be generated from the document.")
		return
	}

	if err := m.deps.Exporter.Export(final, excelPath); err != nil {
		m.failTask(ctx, id, err)
		return
	}

	m.setStage(id, "Uploading artifact...")
	url, err := m.deps.Uploader.Upload(ctx, excelPath, excelName)
	if err != nil {
		m.failTask(ctx, id, err)
		return
	}

	m.store.Mutate(id, func(rec *Record) {
		rec.DownloadURL = url
		rec.Stage = "Generation complete."
	})
	m.finish(id, StatusCompleted, "")
	log.Info("MCQ generation completed",
		"question_count", domain.QuestionCount(final),
		"download_url", url)
}

func (m *Manager) setStage(id, stage string) {
	m.store.Mutate(id, func(rec *Record) {
		rec.Stage = stage
	})
}
