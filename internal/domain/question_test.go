package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestion_CorrectOption(t *testing.T) {
	q := Question{
		ID:   42,
		Text: "Which vessel supplies the SA node?",
		Options: []Option{
			{QuestionID: 42, Text: "Left circumflex artery"},
			{QuestionID: 42, Text: "Right coronary artery", Correct: true},
			{QuestionID: 42, Text: "Left anterior descending artery"},
		},
	}

	opt, ok := q.CorrectOption()
	require.True(t, ok)
	assert.Equal(t, "Right coronary artery", opt.Text)

	q.Options[1].Correct = false
	_, ok = q.CorrectOption()
	assert.False(t, ok)
}

func TestQuestion_Validate(t *testing.T) {
	valid := Question{
		ID:   1,
		Text: "A question",
		Options: []Option{
			{Text: "yes", Correct: true},
			{Text: "no"},
		},
	}

	tests := []struct {
		name    string
		mutate  func(q *Question)
		wantErr error
	}{
		{
			name:    "valid question",
			mutate:  func(q *Question) {},
			wantErr: nil,
		},
		{
			name:    "blank text",
			mutate:  func(q *Question) { q.Text = "   " },
			wantErr: ErrEmptyQuestionText,
		},
		{
			name:    "no options",
			mutate:  func(q *Question) { q.Options = nil },
			wantErr: ErrNoOptions,
		},
		{
			name: "no correct option",
			mutate: func(q *Question) {
				q.Options = []Option{{Text: "yes"}, {Text: "no"}}
			},
			wantErr: ErrNoCorrectOption,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid
			q.Options = append([]Option(nil), valid.Options...)
			tt.mutate(&q)

			err := q.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestFormatBoardQuestion(t *testing.T) {
	q := Question{
		ID:   7,
		Text: "First-line treatment for anaphylaxis is",
		Options: []Option{
			{Text: "IV hydrocortisone"},
			{Text: "IM adrenaline", Correct: true},
			{Text: "Oral antihistamine"},
		},
	}

	formatted := FormatBoardQuestion(q)

	assert.True(t, strings.HasPrefix(formatted, "First-line treatment for anaphylaxis is:"),
		"stem should be terminated with a colon")
	assert.Contains(t, formatted, "1) IV hydrocortisone;")
	assert.Contains(t, formatted, "2) IM adrenaline;")
	assert.Contains(t, formatted, "A. 1 B. 2 C. 3.")
	assert.Contains(t, formatted, "(Correct: B)")
}

func TestFormatBoardQuestion_StemAlreadyTerminated(t *testing.T) {
	q := Question{Text: "Pick one:", Options: []Option{{Text: "a", Correct: true}}}

	formatted := FormatBoardQuestion(q)

	assert.False(t, strings.Contains(formatted, "::"), "colon must not be doubled")
	// A single option produces no answer-choice line.
	assert.NotContains(t, formatted, "Prawid")
}

func TestFormatBoardQuestion_ChoicesCappedAtFive(t *testing.T) {
	q := Question{Text: "Choose"}
	for i := 0; i < 7; i++ {
		q.Options = append(q.Options, Option{Text: "opt"})
	}
	q.Options[6].Correct = true

	formatted := FormatBoardQuestion(q)

	assert.Contains(t, formatted, "E. 5.")
	assert.NotContains(t, formatted, "F. 6")
	assert.Contains(t, formatted, "(Correct: G)")
}
