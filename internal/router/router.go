// Package router classifies a refined query and dispatches it to the module
// bound to the resulting label.
package router

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Emilianodz/multiagent-orch-system/internal/classifier"
	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
	"github.com/Emilianodz/multiagent-orch-system/pkg/metrics"
)

// Error messages carried by failed dispatch results.
const (
	MsgInvalidClassification = "Invalid classification. Try to be more specific."
	MsgClassificationFailed  = "Error processing the query"
	MsgHandlerFailed         = "Error processing the category"
	MsgNoHandler             = "No module is bound to the category"
)

// Handler answers a query for one module.
type Handler func(ctx context.Context, query string) (string, error)

// Handlers binds the router labels to their modules.
type Handlers struct {
	Search           Handler
	Generate         Handler
	AnalyzeDocuments Handler
	AgentOne         Handler
	AgentTwo         Handler
}

// Router is the dispatch table.
type Router struct {
	classifier *classifier.Classifier
	table      map[model.Label]Handler
	logger     *logger.Logger
}

// New builds the dispatch table from h. Nil handlers stay unbound.
func New(c *classifier.Classifier, h Handlers, log *logger.Logger) *Router {
	table := make(map[model.Label]Handler, len(model.RouterLabels))
	bind := func(l model.Label, fn Handler) {
		if fn != nil {
			table[l] = fn
		}
	}
	bind(model.LabelEmbeddings, h.Search)
	bind(model.LabelGeneration, h.Generate)
	bind(model.LabelPDF, h.AnalyzeDocuments)
	bind(model.LabelAgentOne, h.AgentOne)
	bind(model.LabelAgentTwo, h.AgentTwo)

	return &Router{
		classifier: c,
		table:      table,
		logger:     log.Named("router"),
	}
}

// Route classifies query and runs the bound handler. It never returns an
// error or panics; every failure is reported in the result.
func (r *Router) Route(ctx context.Context, query string) model.DispatchResult {
	res := r.classifier.Classify(ctx, query, classifier.Router)

	if res.Err != nil {
		r.logger.Warn("router classification failed", zap.Error(res.Err))
		metrics.RecordDispatch("none", "classification_error", 0)
		raw := res.Raw
		return model.DispatchResult{
			Error:          fmt.Sprintf("%s: %v", MsgClassificationFailed, res.Err),
			Classification: &raw,
		}
	}

	if !res.Valid {
		r.logger.Info("invalid router classification", zap.String("classification", res.Raw))
		metrics.RecordDispatch("none", "invalid", 0)
		raw := res.Raw
		return model.DispatchResult{
			Error:          MsgInvalidClassification,
			Classification: &raw,
		}
	}

	return r.Dispatch(ctx, res.Label, query)
}

// Dispatch runs the handler bound to label.
func (r *Router) Dispatch(ctx context.Context, label model.Label, query string) (result model.DispatchResult) {
	handler, ok := r.table[label]
	if !ok {
		metrics.RecordDispatch(string(label), "unbound", 0)
		return model.DispatchResult{Error: fmt.Sprintf("%s %q", MsgNoHandler, label)}
	}

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("module panicked",
				zap.String("module", string(label)),
				zap.Any("panic", p),
				zap.Stack("stack"),
			)
			result = model.DispatchResult{Error: fmt.Sprintf("%s: %v", MsgHandlerFailed, p)}
		}
		status := "success"
		if !result.OK() {
			status = "error"
		}
		metrics.RecordDispatch(string(label), status, time.Since(start).Seconds())
	}()

	r.logger.Debug("dispatching", zap.String("module", string(label)))

	response, err := handler(ctx, query)
	if err != nil {
		r.logger.Warn("module failed", zap.String("module", string(label)), zap.Error(err))
		return model.DispatchResult{Error: fmt.Sprintf("%s: %v", MsgHandlerFailed, err)}
	}

	return model.DispatchResult{Module: label, Response: response}
}
