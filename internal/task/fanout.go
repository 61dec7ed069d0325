package task

import (
	"context"
	"time"

	"github.com/medfellows/quizforge-api/internal/domain"

	"github.com/medfellows/quizforge-api/internal/platform/logger"
)

// noQualifyingWorkMessage marks the zero-work case, which completes
// successfully rather than failing.
const noQualifyingWorkMessage = "All questions already explained."

type fanoutJob struct {
	index    int
	question domain.Question
}

// runBulkExplanation resolves the scope to its questions and fans them out
// over a bounded worker pool. Results are appended in completion order,
// not submission order; per-item failures are isolated to their result
// entry and the batch continues. Cancellation is checked after each item
// completion; once observed, pending submissions are abandoned and the
// task terminates without waiting for in-flight items.
func (m *Manager) runBulkExplanation(
	ctx context.Context,
	id string,
	categoryID int64,
	subjectName string,
	topicName string,
	generateAll bool,
) {
	m.setProcessing(id)

	questions, err := m.deps.Questions.QuestionsForScope(ctx, categoryID, subjectName, topicName, generateAll)
	if err != nil {
		m.failTask(ctx, id, err)
		return
	}
	if len(questions) == 0 {
		m.finish(id, StatusCompleted, noQualifyingWorkMessage)
		return
	}

	total := len(questions)
	m.store.Mutate(id, func(rec *Record) {
		rec.Total = total
	})

	poolCtx, stopPool := context.WithCancel(ctx)
	defer stopPool()

	jobs := make(chan fanoutJob)
	outcomes := make(chan Result, total)

	width := m.cfg.FanoutWorkers
	if width < 1 {
		width = 1
	}
	for w := 0; w < width; w++ {
		go func() {
			for {
				select {
				case <-poolCtx.Done():
					return
				case job, ok := <-jobs:
					if !ok {
						return
					}
					outcomes <- m.explainOne(poolCtx, id, job)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, q := range questions {
			select {
			case <-poolCtx.Done():
				return
			case jobs <- fanoutJob{index: i + 1, question: q}:
			}
		}
	}()

	log := logger.FromContext(ctx)
	for completed := 0; completed < total; completed++ {
		result := <-outcomes

		m.store.Mutate(id, func(rec *Record) {
			rec.appendResult(result)
		})
		if result.Error == "" {
			log.Info("question explained",
				"question_id", result.QuestionID,
				"progress", completed+1,
				"total", total)
		} else {
			log.Warn("question failed",
				"question_id", result.QuestionID,
				"error", result.Error)
		}

		if m.registry.IsCancelled(id) {
			stopPool()
			m.cancelTask(ctx, id, "Task was cancelled.")
			return
		}
	}

	m.finish(id, StatusCompleted, "")
}

// explainOne processes a single fan-out item on a pool worker. Failures
// are returned as error results, never propagated; the batch outlives any
// one item.
func (m *Manager) explainOne(ctx context.Context, id string, job fanoutJob) Result {
	q := job.question
	result := Result{Index: job.index, QuestionID: q.ID}

	if m.registry.IsCancelled(id) {
		result.Error = "task cancelled"
		return result
	}

	if err := q.Validate(); err != nil {
		result.Error = err.Error()
		return result
	}

	m.limiter.Throttle()

	probe := func() bool { return m.registry.IsCancelled(id) }
	explanation, err := m.deps.Explainer.GenerateExplanation(ctx, domain.FormatBoardQuestion(q), probe)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if m.registry.IsCancelled(id) {
		result.Error = "task cancelled after explanation generation"
		return result
	}

	if err := m.deps.Questions.SaveExplanation(ctx, q.ID, explanation); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Question = q.Text
	result.Options = q.OptionTexts()
	if correct, ok := q.CorrectOption(); ok {
		result.CorrectAnswer = correct.Text
	}
	result.Explanation = explanation
	result.CompletedAt = time.Now().Format("2006-01-02 15:04:05")
	return result
}
