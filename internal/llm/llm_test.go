package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emilianodz/multiagent-orch-system/internal/model"
)

func TestOpenAIClientComplete(t *testing.T) {
	var got struct {
		Model       string        `json:"model"`
		Messages    []ChatMessage `json:"messages"`
		Temperature float64       `json:"temperature"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",`+
			`"choices":[{"index":0,"message":{"role":"assistant","content":"  pong  "},"finish_reason":"stop"}],`+
			`"usage":{"prompt_tokens":4,"completion_tokens":1,"total_tokens":5}}`)
	}))
	defer srv.Close()

	client, err := NewOpenAIClient("sk-test", srv.URL+"/v1")
	require.NoError(t, err)

	out, err := NewCompleter(client, "gpt-4o-mini", 0.5).Complete(context.Background(), "ping")

	require.NoError(t, err)
	assert.Equal(t, "pong", out)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, []ChatMessage{{Role: "user", Content: "ping"}}, got.Messages)
	assert.InDelta(t, 0.5, got.Temperature, 1e-6)
}

func TestAnthropicClientComplete(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5",`+
			`"content":[{"type":"text","text":"Hello"},{"type":"text","text":" there"}],`+
			`"stop_reason":"end_turn","usage":{"input_tokens":7,"output_tokens":2}}`)
	}))
	defer srv.Close()

	client, err := NewAnthropicClient("sk-ant-test", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hi"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello there", resp.Content)
	assert.Equal(t, 7, resp.TokensIn)
	assert.Equal(t, 2, resp.TokensOut)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, "claude-haiku-4-5", got.Model)
	assert.Equal(t, 4096, got.MaxTokens)
	require.Len(t, got.System, 1)
	assert.Equal(t, "be brief", got.System[0].Text)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(ProviderOpenAI, Options{})
	assert.Error(t, err)

	_, err = NewClient(ProviderAnthropic, Options{})
	assert.Error(t, err)

	_, err = NewClient("mystery", Options{APIKey: "k"})
	assert.ErrorContains(t, err, "unknown LLM provider")
}

type stubClient struct {
	resp *CompletionResponse
	err  error
}

func (s stubClient) Complete(context.Context, *CompletionRequest) (*CompletionResponse, error) {
	return s.resp, s.err
}
func (s stubClient) Name() string     { return "stub" }
func (s stubClient) Models() []string { return nil }

func TestCompleterWrapsFailures(t *testing.T) {
	_, err := NewCompleter(stubClient{err: errors.New("boom")}, "", 0).Complete(context.Background(), "x")
	var ce *model.CapabilityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "completion", ce.Capability)

	_, err = NewCompleter(stubClient{resp: &CompletionResponse{Content: "  "}}, "", 0).Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestTimeout(t *testing.T) {
	slow := Func(func(ctx context.Context, _ string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
			return "late", nil
		}
	})

	_, err := Timeout(slow, 10*time.Millisecond).Complete(context.Background(), "x")

	var ce *model.CapabilityError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	out, err := Timeout(Func(func(context.Context, string) (string, error) {
		return "fast", nil
	}), time.Second).Complete(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "fast", out)

	assert.NotNil(t, Timeout(slow, 0))
}
