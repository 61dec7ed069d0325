package task

import (
	"context"
	"time"

	"github.com/medfellows/quizforge-api/internal/domain"
)

// runSingleExplanation executes one explanation generation end-to-end,
// checkpointing cancellation immediately before and after the one
// expensive AI call.
func (m *Manager) runSingleExplanation(ctx context.Context, id string, questionID int64) {
	m.setProcessing(id)

	q, err := m.deps.Questions.Question(ctx, questionID)
	if err != nil {
		m.failTask(ctx, id, err)
		return
	}

	if m.registry.IsCancelled(id) {
		m.cancelTask(ctx, id, "Task was cancelled.")
		return
	}

	probe := func() bool { return m.registry.IsCancelled(id) }
	m.limiter.Throttle()
	explanation, err := m.deps.Explainer.GenerateExplanation(ctx, domain.FormatBoardQuestion(q), probe)
	if m.registry.IsCancelled(id) {
		m.cancelTask(ctx, id, "Task was cancelled after explanation generation.")
		return
	}
	if err != nil {
		m.failTask(ctx, id, err)
		return
	}

	if err := m.deps.Questions.SaveExplanation(ctx, questionID, explanation); err != nil {
		m.failTask(ctx, id, err)
		return
	}

	result := Result{
		Index:       1,
		QuestionID:  q.ID,
		Question:    q.Text,
		Options:     q.OptionTexts(),
		Explanation: explanation,
		CompletedAt: time.Now().Format("2006-01-02 15:04:05"),
	}
	if correct, ok := q.CorrectOption(); ok {
		result.CorrectAnswer = correct.Text
	}

	m.store.Mutate(id, func(rec *Record) {
		rec.appendResult(result)
		rec.Total = 1
	})
	m.finish(id, StatusCompleted, "")
}
