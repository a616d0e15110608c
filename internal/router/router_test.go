package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Emilianodz/multiagent-orch-system/internal/classifier"
	"github.com/Emilianodz/multiagent-orch-system/internal/llm"
	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
)

func classifying(label string, err error) *classifier.Classifier {
	return classifier.New(llm.Func(func(context.Context, string) (string, error) {
		return label, err
	}), 0, logger.NewNop())
}

func echo(prefix string) Handler {
	return func(_ context.Context, q string) (string, error) {
		return prefix + q, nil
	}
}

func allHandlers() Handlers {
	return Handlers{
		Search:           echo("search:"),
		Generate:         echo("gen:"),
		AnalyzeDocuments: echo("pdf:"),
		AgentOne:         echo("one:"),
		AgentTwo:         echo("two:"),
	}
}

func TestRouteDispatchesEveryLabel(t *testing.T) {
	want := map[model.Label]string{
		model.LabelEmbeddings: "search:q",
		model.LabelGeneration: "gen:q",
		model.LabelPDF:        "pdf:q",
		model.LabelAgentOne:   "one:q",
		model.LabelAgentTwo:   "two:q",
	}
	for label, response := range want {
		r := New(classifying(string(label), nil), allHandlers(), logger.NewNop())

		res := r.Route(context.Background(), "q")

		assert.Equal(t, model.DispatchResult{Module: label, Response: response}, res)
		assert.NoError(t, res.Err())
	}
}

func TestRouteInvalidClassification(t *testing.T) {
	called := false
	h := allHandlers()
	h.Generate = func(context.Context, string) (string, error) {
		called = true
		return "", nil
	}
	r := New(classifying("unknown_tool", nil), h, logger.NewNop())

	res := r.Route(context.Background(), "refined query")

	assert.False(t, called)
	assert.Equal(t, MsgInvalidClassification, res.Error)
	require.NotNil(t, res.Classification)
	assert.Equal(t, "unknown_tool", *res.Classification)
	assert.Empty(t, res.Module)

	var clsErr *model.ClassificationError
	require.ErrorAs(t, res.Err(), &clsErr)
	assert.Equal(t, "unknown_tool", clsErr.Raw)
}

func TestRouteClassificationFailure(t *testing.T) {
	r := New(classifying("", errors.New("rate limited")), allHandlers(), logger.NewNop())

	res := r.Route(context.Background(), "refined query")

	assert.False(t, res.OK())
	assert.Contains(t, res.Error, "rate limited")
	require.NotNil(t, res.Classification)
	assert.Empty(t, *res.Classification)
}

func TestRouteHandlerFailures(t *testing.T) {
	h := allHandlers()
	h.Search = func(context.Context, string) (string, error) {
		return "", errors.New("index offline")
	}
	h.AgentOne = func(context.Context, string) (string, error) {
		panic("boom")
	}

	res := New(classifying("embeddings", nil), h, logger.NewNop()).Route(context.Background(), "q")
	assert.Equal(t, MsgHandlerFailed+": index offline", res.Error)
	assert.Nil(t, res.Classification)

	res = New(classifying("agent_one", nil), h, logger.NewNop()).Route(context.Background(), "q")
	assert.Equal(t, MsgHandlerFailed+": boom", res.Error)

	var dispErr *model.DispatchError
	assert.ErrorAs(t, res.Err(), &dispErr)
}

func TestRouteUnboundLabel(t *testing.T) {
	h := allHandlers()
	h.AnalyzeDocuments = nil

	res := New(classifying("pdf", nil), h, logger.NewNop()).Route(context.Background(), "q")

	assert.Contains(t, res.Error, MsgNoHandler)
}
