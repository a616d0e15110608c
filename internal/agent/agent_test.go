package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emilianodz/multiagent-orch-system/internal/classifier"
	"github.com/Emilianodz/multiagent-orch-system/internal/llm"
	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/internal/tools"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
)

type stubSearcher struct {
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, query string) (string, error) {
	s.queries = append(s.queries, query)
	return "search: " + query, nil
}

// scripted answers classification prompts with tool and every other prompt
// with a marker naming the prompt kind.
func scripted(tool string, classifyErr error) (llm.Completer, *[]string) {
	var prompts []string
	return llm.Func(func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		switch {
		case strings.Contains(prompt, "deciding which tool"):
			return tool, classifyErr
		case strings.Contains(prompt, "simulated search engine"):
			return "generated", nil
		case strings.Contains(prompt, "content analysis"):
			return "analyzed", nil
		default:
			return "direct", nil
		}
	}), &prompts
}

func newAgent(t *testing.T, persona Persona, completer llm.Completer, searcher tools.Searcher, pdfDir string) *Agent {
	t.Helper()
	log := logger.NewNop()
	return New(persona, Deps{
		Completer:  completer,
		Classifier: classifier.New(completer, 0, log),
		Searcher:   searcher,
		Generator:  tools.NewGenerator(completer),
		Library:    tools.NewDocumentLibrary(t.TempDir()),
		Analyzer:   tools.NewDocumentAnalyzer(pdfDir, completer, log),
	}, log)
}

func TestHandleQuerySelectsTool(t *testing.T) {
	pdfDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pdfDir, "guide.txt"), []byte("guide"), 0o644))

	tests := []struct {
		tool string
		want string
	}{
		{"'embeddings_tool'", "search: how do pandas merges work"},
		{"generation_tool", "generated"},
		{"pdf_analysis_tool", "analyzed"},
		{"llm", "direct"},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			completer, _ := scripted(tt.tool, nil)
			a := newAgent(t, PersonaOne, completer, &stubSearcher{}, pdfDir)

			out, err := a.HandleQuery(context.Background(), "  how do pandas merges work ")

			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestHandleQueryFallsBackToPersona(t *testing.T) {
	for _, tc := range []struct {
		name string
		tool string
		err  error
	}{
		{"out of set", "vector_db", nil},
		{"failure", "", errors.New("timeout")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			completer, prompts := scripted(tc.tool, tc.err)
			a := newAgent(t, PersonaTwo, completer, &stubSearcher{}, t.TempDir())

			out, err := a.HandleQuery(context.Background(), "rebase a git branch")

			require.NoError(t, err)
			assert.Equal(t, "direct", out)
			last := (*prompts)[len(*prompts)-1]
			assert.Contains(t, last, "bash, git, mysql and nodejs")
			assert.True(t, strings.HasSuffix(last, "Query: rebase a git branch"))
		})
	}
}

func TestHandleQueryWithoutPDFs(t *testing.T) {
	completer, prompts := scripted("pdf_analysis_tool", nil)
	a := newAgent(t, PersonaOne, completer, &stubSearcher{}, t.TempDir())

	out, err := a.HandleQuery(context.Background(), "summarize the pdf")

	require.NoError(t, err)
	assert.Equal(t, NoDocumentsMessage, out)
	assert.Len(t, *prompts, 1)
}

func TestHandleQueryWithOnlyBlankDocuments(t *testing.T) {
	pdfDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pdfDir, "empty.txt"), []byte(" \n\t"), 0o644))
	completer, prompts := scripted("pdf_analysis_tool", nil)
	a := newAgent(t, PersonaOne, completer, &stubSearcher{}, pdfDir)

	out, err := a.HandleQuery(context.Background(), "summarize the pdf")

	require.NoError(t, err)
	assert.Equal(t, NoDocumentsMessage, out)
	assert.Len(t, *prompts, 1)
}

func TestHandleQueryRejectsShortQuery(t *testing.T) {
	completer, prompts := scripted("llm", nil)
	a := newAgent(t, PersonaOne, completer, &stubSearcher{}, t.TempDir())

	_, err := a.HandleQuery(context.Background(), " hi ")

	assert.True(t, model.IsValidation(err))
	assert.Empty(t, *prompts)
	assert.Equal(t, model.LabelAgentOne, a.Name())
}
