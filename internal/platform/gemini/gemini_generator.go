package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/trellisdata/trellis/internal/config"
	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/generation"
)

// Generator implements the generation.Generator interface using Google's
// Gemini API. It is stateless per call: one rendered input in, one raw
// payload out. Retry policy lives with the caller, not here.
type Generator struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string
}

// NewGenerator creates a Gemini-backed generator from the LLM configuration.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger: logger,
		config: cfg,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Ensure Generator implements the generation.Generator interface
var _ generation.Generator = (*Generator)(nil)

// Complete sends one prompt to the Gemini API and returns the raw payload.
// The run policy parameters are passed through to the API unchanged; the
// engine never interprets them.
func (g *Generator) Complete(
	ctx context.Context,
	prompt string,
	policy domain.RunPolicy,
) (*generation.Completion, error) {
	if prompt == "" {
		return nil, fmt.Errorf("%w: empty prompt", generation.ErrClientFault)
	}

	timeout := time.Duration(g.config.RequestTimeoutSeconds) * time.Second
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:      policy.Temperature,
		TopP:             policy.TopP,
		StopSequences:    policy.StopSequences,
		ResponseMIMEType: "application/json",
	}
	if policy.MaxOutputTokens > 0 {
		genCfg.MaxOutputTokens = policy.MaxOutputTokens
	}

	started := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genCfg)
	if err != nil {
		classified := classifyError(err)
		g.logger.ErrorContext(ctx, "gemini call failed",
			"model", g.model,
			"elapsed_ms", time.Since(started).Milliseconds(),
			"error", err)
		return nil, classified
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrClientFault)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: content blocked by safety filters", generation.ErrClientFault)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty response text", generation.ErrClientFault)
	}

	completion := &generation.Completion{Payload: text}
	if resp.UsageMetadata != nil {
		completion.Usage = &generation.Usage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		}
	}

	g.logger.DebugContext(ctx, "gemini call succeeded",
		"model", g.model,
		"elapsed_ms", time.Since(started).Milliseconds(),
		"payload_length", len(text))

	return completion, nil
}
