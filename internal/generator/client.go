package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/study-coach/backend/internal/logger"
)

// LLMClient is the interface every chat backend satisfies.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

const (
	ProviderMock      = "mock"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderCLI       = "cli"
)

// Config selects and configures the LLM backend.
type Config struct {
	Provider        string
	Model           string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	CLIPath         string
	MaxTokens       int
}

// New builds the client for cfg.Provider. An empty provider means mock.
func New(cfg Config, log *logger.Logger) (LLMClient, error) {
	switch cfg.Provider {
	case "", ProviderMock:
		log.Info("LLM client using mock replies")
		return NewMockClient(), nil
	case ProviderAnthropic:
		model := cfg.Model
		if model == "" {
			model = "claude-sonnet-4-5-20250929"
		}
		log.Info("LLM client using Anthropic API", "model", model)
		return NewAPIClient(cfg.AnthropicAPIKey, model, cfg.MaxTokens, log), nil
	case ProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		log.Info("LLM client using OpenAI-compatible API", "model", model, "base_url", cfg.OpenAIBaseURL)
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, model, cfg.MaxTokens), nil
	case ProviderCLI:
		cliPath := cfg.CLIPath
		if cliPath == "" {
			cliPath = "claude"
		}
		log.Info("LLM client using local CLI", "path", cliPath)
		return NewCLIClient(cliPath), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// ── APIClient: Anthropic SDK ───────────────────────────────

type APIClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	log       *logger.Logger
}

func NewAPIClient(apiKey, model string, maxTokens int, log *logger.Logger) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &APIClient{client: &client, model: model, maxTokens: maxTokens, log: log}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(c.maxTokens),
		Temperature: param.NewOpt(0.4),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			c.log.Warn("retrying Anthropic API call", "in", sleepDuration, "attempt", attempt+1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(sleepDuration):
			}
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		c.log.Warn("Anthropic API attempt failed", "attempt", attempt+1, "error", err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient: Local Development ─────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &LLMResponse{
		Content:      "[Mock] Break the topic into one small example and explain each line out loud. Then try a quiz question on it.",
		PromptTokens: len(systemPrompt) / 4,
		OutputTokens: 24,
	}, nil
}
