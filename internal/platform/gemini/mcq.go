package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/medfellows/quizforge-api/internal/domain"
)

const (
	maxMCQTokens       = 4000
	maxRelevanceTokens = 10
	// Only a prefix of the sample is sent to the relevance probe.
	relevanceSampleLimit = 2000
)

// mcqResponse is the JSON shape the MCQ prompt pins down.
type mcqResponse struct {
	Topic     string       `json:"topic"`
	Questions []domain.MCQ `json:"questions"`
}

// GenerateItems generates MCQs for one source-text window. The call is
// attempted up to the configured number of times with a fixed backoff
// between attempts; a window that exhausts its attempts yields an empty
// result rather than an error, so one bad window never fails a whole
// pipeline run.
func (c *Client) GenerateItems(ctx context.Context, sourceText string) ([]domain.MCQBlock, error) {
	if strings.TrimSpace(sourceText) == "" {
		return nil, ErrEmptyInput
	}

	maxAttempts := c.config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := time.Duration(c.config.RetryBackoffSeconds) * time.Second

	prompt := fmt.Sprintf(mcqUserPrompt, sourceText)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c.logger.InfoContext(ctx, "generating MCQs",
			"model", c.config.GenerationModel,
			"attempt", attempt,
			"max_attempts", maxAttempts)

		text, err := c.call(ctx, c.config.GenerationModel, mcqSystemPrompt,
			prompt, true, maxMCQTokens)
		if err == nil {
			block, parseErr := parseMCQResponse(text, sourceText)
			if parseErr == nil {
				c.logger.InfoContext(ctx, "MCQ generation succeeded",
					"attempt", attempt,
					"questions", len(block.Questions))
				return []domain.MCQBlock{block}, nil
			}
			err = parseErr
		}

		c.logger.WarnContext(ctx, "MCQ generation attempt failed",
			"attempt", attempt, "error", err)

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			c.sleep(backoff)
		}
	}

	c.logger.WarnContext(ctx, "MCQ generation exhausted all attempts",
		"max_attempts", maxAttempts)
	return nil, nil
}

// parseMCQResponse decodes and validates one model response. A missing
// topic falls back to a title extracted from the source text.
func parseMCQResponse(text, sourceText string) (domain.MCQBlock, error) {
	var decoded mcqResponse
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &decoded); err != nil {
		return domain.MCQBlock{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if len(decoded.Questions) == 0 {
		return domain.MCQBlock{}, fmt.Errorf("%w: no questions generated", ErrInvalidResponse)
	}

	for i, q := range decoded.Questions {
		if err := q.Validate(); err != nil {
			return domain.MCQBlock{}, fmt.Errorf("%w: question %d: %v", ErrInvalidResponse, i+1, err)
		}
	}

	topic := strings.TrimSpace(decoded.Topic)
	if topic == "" {
		topic = domain.ExtractTitle(sourceText)
	}

	return domain.MCQBlock{Topic: topic, Questions: decoded.Questions}, nil
}

// IsRelevant asks the relevance model whether the sample text is suitable
// source material. Errors default to relevant so a flaky probe does not
// block content unnecessarily.
func (c *Client) IsRelevant(ctx context.Context, sampleText string) (bool, error) {
	sample := sampleText
	if len(sample) > relevanceSampleLimit {
		sample = sample[:relevanceSampleLimit]
	}

	prompt := fmt.Sprintf(relevanceUserPrompt, sample)
	text, err := c.call(ctx, c.config.RelevanceModel, relevanceSystemPrompt,
		prompt, false, maxRelevanceTokens)
	if err != nil {
		c.logger.WarnContext(ctx, "relevance check failed, defaulting to relevant",
			"error", err)
		return true, nil
	}

	answer := strings.ToUpper(strings.TrimSpace(text))
	c.logger.InfoContext(ctx, "relevance check completed", "answer", answer)
	return answer == "YES", nil
}
