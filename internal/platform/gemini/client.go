package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/medfellows/quizforge-api/internal/config"
)

// modelCaller issues one generation request and returns the response text.
// Abstracted so tests can exercise the retry and parsing logic without a
// live API.
type modelCaller func(ctx context.Context, model, system, prompt string, jsonResponse bool, maxTokens int32) (string, error)

// Client wraps the Gemini API behind the application's three generator
// roles (explanation, MCQ, relevance).
type Client struct {
	logger *slog.Logger
	config config.LLMConfig
	genai  *genai.Client

	call     modelCaller
	sleep    func(time.Duration)
	research *researchCache
}

// NewClient creates a Gemini client from the LLM configuration.
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}
	if cfg.ExplanationModel == "" || cfg.GenerationModel == "" || cfg.RelevanceModel == "" {
		return nil, fmt.Errorf("%w: model names cannot be empty", ErrInvalidConfig)
	}

	apiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	c := &Client{
		logger:   logger,
		config:   cfg,
		genai:    apiClient,
		sleep:    time.Sleep,
		research: newResearchCache(researchCacheSize),
	}
	c.call = c.generate
	return c, nil
}

// generate performs one GenerateContent request against the given model.
func (c *Client) generate(
	ctx context.Context,
	model, system, prompt string,
	jsonResponse bool,
	maxTokens int32,
) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: maxTokens,
	}
	if system != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	if jsonResponse {
		genConfig.ResponseMIMEType = "application/json"
		genConfig.Temperature = genai.Ptr[float32](0.3)
	} else {
		genConfig.Temperature = genai.Ptr[float32](0.0)
	}

	resp, err := c.genai.Models.GenerateContent(ctx, model, genai.Text(prompt), genConfig)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", ErrContentBlocked
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response text", ErrInvalidResponse)
	}
	return text, nil
}
