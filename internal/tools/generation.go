package tools

import (
	"context"
	"strings"

	"github.com/Emilianodz/multiagent-orch-system/internal/llm"
)

// Generator produces explanatory text for a query, acting as a simulated
// search engine.
type Generator struct {
	completer llm.Completer
}

// NewGenerator creates a generator.
func NewGenerator(completer llm.Completer) *Generator {
	return &Generator{completer: completer}
}

// Generate answers query with generated text.
func (g *Generator) Generate(ctx context.Context, query string) (string, error) {
	prompt := "You are a simulated search engine. " +
		"Analyze the user's query and provide a detailed explanation based on it.\n\n" +
		"Query: " + strings.TrimSpace(query)

	return g.completer.Complete(ctx, prompt)
}
