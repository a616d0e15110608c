// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/pkg/metrics"
)

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Options configures provider clients.
type Options struct {
	APIKey  string
	BaseURL string
}

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, opts Options) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(opts.APIKey)
	case ProviderOpenAI:
		return NewOpenAIClient(opts.APIKey, opts.BaseURL)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}

// Completer turns a single prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to the Completer interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete implements Completer.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrEmptyCompletion is returned when the provider answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

type promptCompleter struct {
	client      Client
	model       string
	temperature float64
	maxTokens   int
}

// NewCompleter sends each prompt as a single user message to client.
func NewCompleter(client Client, modelName string, temperature float64) Completer {
	return &promptCompleter{
		client:      client,
		model:       modelName,
		temperature: temperature,
		maxTokens:   4096,
	}
}

func (c *promptCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	resp, err := c.client.Complete(ctx, &CompletionRequest{
		Model:       c.model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		metrics.RecordCompletion(c.client.Name(), "", "error", time.Since(start).Seconds(), 0, 0)
		return "", model.NewCapabilityError("completion", err)
	}

	metrics.RecordCompletion(c.client.Name(), resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", model.NewCapabilityError("completion", ErrEmptyCompletion)
	}
	return content, nil
}

// Timeout bounds every call to c by d. Expiry surfaces as a capability error.
func Timeout(c Completer, d time.Duration) Completer {
	if d <= 0 {
		return c
	}
	return Func(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		out, err := c.Complete(ctx, prompt)
		if err != nil && ctx.Err() != nil {
			var capErr *model.CapabilityError
			if !errors.As(err, &capErr) {
				return "", model.NewCapabilityError("completion", ctx.Err())
			}
		}
		return out, err
	})
}
