package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common validation errors for Question
var (
	ErrEmptyQuestionText = errors.New("question text cannot be empty")
	ErrNoOptions         = errors.New("question has no answer options")
	ErrNoCorrectOption   = errors.New("question has no correct answer option")
)

// answerLabels maps option positions to the letters used in board-style
// answer choices (A., B., C., ...).
const answerLabels = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Option represents one answer option of an exam question.
type Option struct {
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct"`
}

// Question represents a stored exam question together with its answer
// options and the generated explanation, if any.
type Question struct {
	ID          int64    `json:"question_id"`
	Text        string   `json:"question"`
	Explanation string   `json:"explanation,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

// CorrectOption returns the question's correct answer option.
// The second return value is false when no option is marked correct.
func (q Question) CorrectOption() (Option, bool) {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt, true
		}
	}
	return Option{}, false
}

// OptionTexts returns the texts of all answer options in stored order.
func (q Question) OptionTexts() []string {
	texts := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		texts = append(texts, opt.Text)
	}
	return texts
}

// Validate checks that the question carries enough data to be explained.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuestionText
	}
	if len(q.Options) == 0 {
		return ErrNoOptions
	}
	if _, ok := q.CorrectOption(); !ok {
		return ErrNoCorrectOption
	}
	return nil
}

// HasExplanation reports whether the question already has a non-blank
// explanation stored.
func (q Question) HasExplanation() bool {
	return strings.TrimSpace(q.Explanation) != ""
}

// FormatBoardQuestion renders a question with its options and answer
// choices into the textual form expected by the board-style explanation
// generator: the question stem terminated by a colon, numbered options,
// lettered answer choices, and a marker for the correct letter.
func FormatBoardQuestion(q Question) string {
	var b strings.Builder

	stem := strings.TrimSpace(q.Text)
	b.WriteString(stem)
	if !strings.HasSuffix(stem, ":") {
		b.WriteString(":")
	}

	if len(q.Options) > 0 {
		b.WriteString("\n\n")
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "%d) %s;\n", i+1, opt.Text)
		}
	}

	if len(q.Options) > 1 {
		b.WriteString("\nPrawidłowa odpowiedź to: ")

		correctIndex := -1
		for i, opt := range q.Options {
			if opt.Correct {
				correctIndex = i
				break
			}
		}

		// Answer choices are capped at five letters regardless of option count.
		choiceCount := len(q.Options)
		if choiceCount > 5 {
			choiceCount = 5
		}
		choices := make([]string, 0, choiceCount)
		for i := 0; i < choiceCount; i++ {
			choices = append(choices, fmt.Sprintf("%c. %d", answerLabels[i], i+1))
		}
		b.WriteString(strings.Join(choices, " "))
		b.WriteString(".")

		if correctIndex >= 0 && correctIndex < len(answerLabels) {
			fmt.Fprintf(&b, " (Correct: %c)", answerLabels[correctIndex])
		}
	}

	return b.String()
}
