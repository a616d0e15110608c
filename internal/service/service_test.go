package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emilianodz/multiagent-orch-system/internal/config"
	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// fakeOpenAI answers chat completions with reply(prompt).
func fakeOpenAI(t *testing.T, reply func(prompt string) string) (*httptest.Server, *[]chatRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []chatRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()

		prompt := req.Messages[len(req.Messages)-1].Content
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"cmpl-1","object":"chat.completion","created":%d,"model":%q,`+
			`"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}],`+
			`"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`,
			time.Now().Unix(), req.Model, reply(prompt))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		StoreBackend:      config.StoreBolt,
		StorePath:         filepath.Join(dir, "db", "conversations.db"),
		AuditLogFile:      filepath.Join(dir, "orchestrator_logs.log"),
		AuditMaxSizeMB:    5,
		AuditMaxBackups:   5,
		LLMProvider:       "openai",
		OpenAIAPIKey:      "sk-test",
		OpenAIBaseURL:     baseURL + "/v1",
		LLMModel:          "gpt-4o-mini",
		LLMTemperature:    0.7,
		CapabilityTimeout: 5 * time.Second,
		SearchSubject:     "search.query",
		AgentOneDocsDir:   filepath.Join(dir, "doc_a_one"),
		AgentTwoDocsDir:   filepath.Join(dir, "doc_a_two"),
		PDFDir:            filepath.Join(dir, "unic_pdf"),
	}
}

func TestServicesAnswerGeneralQuery(t *testing.T) {
	srv, requests := fakeOpenAI(t, func(prompt string) string {
		if strings.Contains(prompt, "Return only one of the following exact values: general, technical") {
			return "general"
		}
		return "Git is a distributed version control system."
	})
	cfg := testConfig(t, srv.URL)

	s, err := New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)

	out, err := s.Orchestrator.HandleQuery(context.Background(), model.Query{
		Text:           "what is git?",
		UserID:         "u1",
		ConversationID: "conv-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Git is a distributed version control system.", out)
	require.Len(t, *requests, 2)
	assert.Equal(t, "gpt-4o-mini", (*requests)[0].Model)

	history, err := s.Store.Formatted(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "user: what is git?\nsystem: Git is a distributed version control system.", history)

	s.Close()

	data, err := os.ReadFile(cfg.AuditLogFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "conv-1", entry["conversation_id"])
	assert.Equal(t, "what is git?", entry["query"])
}

func TestServicesRouterWithoutSearch(t *testing.T) {
	srv, _ := fakeOpenAI(t, func(string) string { return "embeddings" })
	s, err := New(context.Background(), testConfig(t, srv.URL), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.Close)

	res := s.Router.Route(context.Background(), "search the linux docs")

	assert.False(t, res.OK())
	assert.Contains(t, res.Error, "search service not configured")
}

func TestServicesRejectUnknownProvider(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.LLMProvider = "mystery"

	_, err := New(context.Background(), cfg, logger.NewNop())

	assert.ErrorContains(t, err, "unknown LLM provider")
}
