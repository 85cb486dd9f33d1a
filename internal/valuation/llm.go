package valuation

import (
	"context"
	"errors"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultModel     = string(anthropic.ModelClaudeSonnet4_20250514)
	DefaultMaxTokens = 8192
)

type LLMCaller interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

type CallerConfig struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

type AnthropicCaller struct {
	messages  AnthropicMessager
	model     string
	maxTokens int64
}

func NewAnthropicCaller(cfg CallerConfig) (*AnthropicCaller, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("anthropic api key not configured")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &AnthropicCaller{messages: newAnthropicClient(key), model: cfg.Model, maxTokens: cfg.MaxTokens}, nil
}

var ErrLLMDisabled = errors.New("llm disabled by B2G_NO_LLM")

// NewAnthropicCallerFromEnv reads ANTHROPIC_API_KEY. B2G_NO_LLM forces the
// fallback path even when a key is present. Empty model and non-positive
// maxTokens use the defaults.
func NewAnthropicCallerFromEnv(model string, maxTokens int64) (*AnthropicCaller, error) {
	if LLMDisabled() {
		return nil, ErrLLMDisabled
	}
	return NewAnthropicCaller(CallerConfig{
		APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		Model:     model,
		MaxTokens: maxTokens,
	})
}

func (a *AnthropicCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0.4),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

// LLMDisabled reports whether B2G_NO_LLM asks for fallback-only reports.
func LLMDisabled() bool {
	return envEnabled("B2G_NO_LLM")
}

func envEnabled(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
