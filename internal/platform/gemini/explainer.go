package gemini

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	maxKeywordTokens     = 1000
	maxResearchTokens    = 16384
	maxExplanationTokens = 15000

	maxKeywords       = 8
	researchCacheSize = 100

	// keywordFallback stands in when the keyword stage fails so the final
	// generation still gets a usable search focus.
	keywordFallback = "general medical condition"
)

// GenerateExplanation produces a board-style Markdown explanation for a
// formatted exam question. Generation runs in stages: extract search
// keywords, research the topic (cached across questions that share a
// keyword set), then write the explanation grounded in that evidence. The
// cancelled probe is consulted between stages so a long generation can be
// abandoned without waiting for every remaining call; an in-flight API call
// itself cannot be interrupted. Keyword and research failures degrade the
// output rather than fail it; only the final generation call is fatal.
func (c *Client) GenerateExplanation(
	ctx context.Context,
	formattedQuestion string,
	cancelled func() bool,
) (string, error) {
	if strings.TrimSpace(formattedQuestion) == "" {
		return "", ErrEmptyInput
	}
	if cancelled == nil {
		cancelled = func() bool { return false }
	}

	if cancelled() {
		return "", ErrCancelled
	}

	c.logger.InfoContext(ctx, "generating board-style explanation",
		"model", c.config.ExplanationModel,
		"question_length", len(formattedQuestion))

	keywords := c.extractKeywords(ctx, formattedQuestion)
	if cancelled() {
		return "", ErrCancelled
	}

	research := c.researchTopic(ctx, formattedQuestion, keywords)
	if cancelled() {
		return "", ErrCancelled
	}

	prompt := fmt.Sprintf(explanationUserPrompt,
		formattedQuestion, strings.Join(keywords, ", "), research)
	text, err := c.call(ctx, c.config.ExplanationModel, explanationSystemPrompt,
		prompt, false, maxExplanationTokens)
	if err != nil {
		c.logger.ErrorContext(ctx, "explanation generation failed", "error", err)
		return "", fmt.Errorf("failed to generate explanation: %w", err)
	}

	if cancelled() {
		return "", ErrCancelled
	}

	explanation := stripCodeFence(text)
	c.logger.InfoContext(ctx, "explanation generated",
		"keyword_count", len(keywords),
		"explanation_length", len(explanation))
	return explanation, nil
}

// extractKeywords asks the generation model for a comma-separated list of
// medical search terms. Failures fall back to a generic term so the
// pipeline keeps moving.
func (c *Client) extractKeywords(ctx context.Context, formattedQuestion string) []string {
	text, err := c.call(ctx, c.config.GenerationModel, keywordSystemPrompt,
		fmt.Sprintf(keywordUserPrompt, formattedQuestion), false, maxKeywordTokens)
	if err != nil {
		c.logger.WarnContext(ctx, "keyword extraction failed, using fallback term",
			"error", err)
		return []string{keywordFallback}
	}

	var keywords []string
	for _, part := range strings.Split(stripCodeFence(text), ",") {
		if term := strings.TrimSpace(part); term != "" {
			keywords = append(keywords, term)
		}
	}
	if len(keywords) == 0 {
		return []string{keywordFallback}
	}
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

// researchTopic gathers evidence for the question with a second model call.
// Results are cached per question and keyword set so a retried or
// re-requested question does not pay for the research twice. A failed
// research call yields a placeholder instead of an error.
func (c *Client) researchTopic(ctx context.Context, formattedQuestion string, keywords []string) string {
	key := researchKey(formattedQuestion, keywords)
	if cached, ok := c.research.get(key); ok {
		c.logger.DebugContext(ctx, "using cached research")
		return cached
	}

	text, err := c.call(ctx, c.config.GenerationModel, researchSystemPrompt,
		fmt.Sprintf(researchUserPrompt, formattedQuestion, strings.Join(keywords, ", ")),
		false, maxResearchTokens)
	if err != nil {
		c.logger.WarnContext(ctx, "research stage failed, generating without evidence",
			"error", err)
		return fmt.Sprintf("Research unavailable: %v", err)
	}

	c.research.put(key, text)
	return text
}

func researchKey(question string, keywords []string) string {
	sorted := append([]string(nil), keywords...)
	sort.Strings(sorted)
	return question + "\x00" + strings.Join(sorted, ",")
}

// researchCache is a bounded FIFO cache of research stage results.
type researchCache struct {
	mu      sync.Mutex
	max     int
	order   []string
	entries map[string]string
}

func newResearchCache(max int) *researchCache {
	return &researchCache{max: max, entries: make(map[string]string)}
}

func (rc *researchCache) get(key string) (string, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	v, ok := rc.entries[key]
	return v, ok
}

func (rc *researchCache) put(key, value string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if _, ok := rc.entries[key]; ok {
		rc.entries[key] = value
		return
	}
	if len(rc.entries) >= rc.max && len(rc.order) > 0 {
		oldest := rc.order[0]
		rc.order = rc.order[1:]
		delete(rc.entries, oldest)
	}
	rc.entries[key] = value
	rc.order = append(rc.order, key)
}

// stripCodeFence removes a surrounding markdown code fence if the model
// wrapped its output in one.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```markdown")
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
