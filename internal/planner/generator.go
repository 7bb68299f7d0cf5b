package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

// Generator produces the raw text of a plan for a goal.
type Generator interface {
	Generate(ctx context.Context, goal string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, goal string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, goal string) (string, error) {
	return f(ctx, goal)
}

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("planner not configured: no API key")

// DefaultModel is used when OpenAIConfig.Model is empty.
const DefaultModel = "gpt-4o-mini"

// OpenAIConfig configures an OpenAIGenerator.
type OpenAIConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint, for OpenAI-compatible servers.
	BaseURL string
	Model   string
}

// OpenAIGenerator asks an OpenAI-compatible chat completion API for a plan in
// JSON mode.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIGenerator creates a generator. It returns ErrNotConfigured when
// cfg.APIKey is empty.
func NewOpenAIGenerator(cfg OpenAIConfig, logger *slog.Logger) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger.Debug("initializing planner", "model", cfg.Model, "base_url", clientCfg.BaseURL)
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Generate requests a plan for goal and returns the message content.
func (g *OpenAIGenerator) Generate(ctx context.Context, goal string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(goal)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	g.logger.Debug("plan received",
		"model", g.model,
		"finish_reason", resp.Choices[0].FinishReason,
		"tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}
