package domain

import (
	"errors"
	"fmt"
	"strings"
)

// OptionKeys lists the option letters every generated MCQ must provide.
var OptionKeys = []string{"A", "B", "C", "D"}

// Common validation errors for generated MCQs
var (
	ErrEmptyMCQQuestion = errors.New("MCQ question text cannot be empty")
	ErrMissingMCQOption = errors.New("MCQ is missing a required option")
	ErrEmptyMCQAnswer   = errors.New("MCQ answer cannot be empty")
)

// MCQ is one generated multiple-choice question with four lettered
// options, the correct letter, and an explanation of the answer.
type MCQ struct {
	Question    string            `json:"question"`
	Options     map[string]string `json:"options"`
	Answer      string            `json:"answer"`
	Explanation string            `json:"explanation"`
}

// Validate checks that a generated MCQ has the required shape.
func (m MCQ) Validate() error {
	if strings.TrimSpace(m.Question) == "" {
		return ErrEmptyMCQQuestion
	}
	for _, key := range OptionKeys {
		if _, ok := m.Options[key]; !ok {
			return fmt.Errorf("%w: option %s", ErrMissingMCQOption, key)
		}
	}
	if strings.TrimSpace(m.Answer) == "" {
		return ErrEmptyMCQAnswer
	}
	return nil
}

// MCQBlock groups the MCQs generated from one source-text window under the
// topic the generator extracted for that window.
type MCQBlock struct {
	Topic     string `json:"topic"`
	Questions []MCQ  `json:"questions"`
}

// QuestionCount returns the total number of questions across blocks.
func QuestionCount(blocks []MCQBlock) int {
	n := 0
	for _, block := range blocks {
		n += len(block.Questions)
	}
	return n
}

// DeduplicateMCQs removes questions whose exact question text has already
// been seen in an earlier block or earlier in the same block. The first
// occurrence wins and block order is preserved; blocks left with no
// questions are dropped.
func DeduplicateMCQs(blocks []MCQBlock) []MCQBlock {
	seen := make(map[string]struct{})
	unique := make([]MCQBlock, 0, len(blocks))

	for _, block := range blocks {
		kept := make([]MCQ, 0, len(block.Questions))
		for _, q := range block.Questions {
			if _, dup := seen[q.Question]; dup {
				continue
			}
			seen[q.Question] = struct{}{}
			kept = append(kept, q)
		}
		if len(kept) > 0 {
			unique = append(unique, MCQBlock{Topic: block.Topic, Questions: kept})
		}
	}

	return unique
}

// ExtractTitle derives a topic name from raw source text when the
// generator did not supply one. It prefers markdown headings, then
// heading-like lines near the top of the text, then the first substantial
// line, and falls back to a fixed placeholder.
func ExtractTitle(text string) string {
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.ReplaceAll(trimmed, "#", ""))
		}
	}

	head := lines
	if len(head) > 10 {
		head = head[:10]
	}

	topicWords := []string{"chapter", "section", "topic", "disease", "syndrome", "treatment", "diagnosis"}
	for _, line := range head {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) <= 10 || len(trimmed) >= 100 {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, word := range topicWords {
			if strings.Contains(lower, word) {
				return trimmed
			}
		}
	}

	for _, line := range head {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 20 && len(trimmed) < 150 {
			return trimmed
		}
	}

	return "Unknown Topic"
}
