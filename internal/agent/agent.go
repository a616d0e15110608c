// Package agent implements the specialized agents the router delegates to.
// Each agent picks a local tool for a query and falls back to a direct
// completion with its persona prompt.
package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Emilianodz/multiagent-orch-system/internal/classifier"
	"github.com/Emilianodz/multiagent-orch-system/internal/llm"
	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/internal/tools"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
)

// NoDocumentsMessage is returned when PDF analysis is selected without a corpus.
const NoDocumentsMessage = "No PDF documents are available to analyze."

// Persona is the identity of an agent.
type Persona struct {
	Name model.Label
	// Prompt frames a direct completion; {{query}} is replaced by the query.
	Prompt string
}

// PersonaOne handles Python, data science and machine learning.
var PersonaOne = Persona{
	Name: model.LabelAgentOne,
	Prompt: "You are a technical assistant specialized in Python, data science and machine learning. " +
		"Help the user by answering clearly, with practical steps and relevant examples where applicable. " +
		"Query: {{query}}",
}

// PersonaTwo handles programming languages and development tools.
var PersonaTwo = Persona{
	Name: model.LabelAgentTwo,
	Prompt: "You are a technical assistant specialized in programming languages and development tools " +
		"such as bash, git, mysql and nodejs. " +
		"Help the user by answering clearly, with practical steps and relevant examples where applicable. " +
		"Query: {{query}}",
}

// Deps are the capabilities an agent uses.
type Deps struct {
	Completer  llm.Completer
	Classifier *classifier.Classifier
	Searcher   tools.Searcher
	Generator  *tools.Generator
	Library    *tools.DocumentLibrary
	Analyzer   *tools.DocumentAnalyzer
}

// Agent answers technical queries within one persona.
type Agent struct {
	persona Persona
	deps    Deps
	logger  *logger.Logger
}

// New creates an agent.
func New(persona Persona, deps Deps, log *logger.Logger) *Agent {
	return &Agent{
		persona: persona,
		deps:    deps,
		logger:  log.Named(string(persona.Name)),
	}
}

// Name returns the agent's router label.
func (a *Agent) Name() model.Label {
	return a.persona.Name
}

// HandleQuery answers query with the tool selected for it.
func (a *Agent) HandleQuery(ctx context.Context, query string) (string, error) {
	q := model.Query{Text: query}
	if err := q.Validate(); err != nil {
		return "", err
	}

	tool := a.selectTool(ctx, q.Text)
	a.logger.Debug("tool selected", zap.String("tool", string(tool)))

	switch tool {
	case model.LabelEmbeddingsTool:
		return a.deps.Searcher.Search(ctx, q.Text)
	case model.LabelGenerationTool:
		return a.deps.Generator.Generate(ctx, q.Text)
	case model.LabelPDFAnalysisTool:
		if len(a.deps.Analyzer.Documents()) == 0 {
			return NoDocumentsMessage, nil
		}
		return a.deps.Analyzer.AnalyzeDocuments(ctx, q.Text)
	default:
		prompt := strings.ReplaceAll(a.persona.Prompt, "{{query}}", q.Text)
		return a.deps.Completer.Complete(ctx, prompt)
	}
}

// selectTool classifies the query against the local tools. Any failure
// selects a direct completion.
func (a *Agent) selectTool(ctx context.Context, query string) model.Label {
	listing := a.deps.Library.List()
	if listing.Err != nil {
		a.logger.Warn("document library unavailable", zap.Error(listing.Err))
	}

	res := a.deps.Classifier.Classify(ctx, query, classifier.Tools,
		classifier.WithDocuments(listing.Describe()))
	if !res.Valid {
		return model.LabelLLM
	}
	return res.Label
}
