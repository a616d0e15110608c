// Package orchestrator runs the per-request pipeline: split general from
// technical queries, answer general ones directly, and refine and route
// technical ones before composing the final response.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Emilianodz/multiagent-orch-system/internal/audit"
	"github.com/Emilianodz/multiagent-orch-system/internal/classifier"
	"github.com/Emilianodz/multiagent-orch-system/internal/conversation"
	"github.com/Emilianodz/multiagent-orch-system/internal/llm"
	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
	"github.com/Emilianodz/multiagent-orch-system/pkg/metrics"
)

// DegradedResponse is returned to the user when the pipeline fails.
const DegradedResponse = "Error processing the query in the orchestrator. Please try again later."

// DefaultUserID is used when a query carries no user id.
const DefaultUserID = "default_user"

// Dispatcher routes a refined query.
type Dispatcher interface {
	Route(ctx context.Context, query string) model.DispatchResult
}

// AuditLog receives interaction records and failure diagnostics.
type AuditLog interface {
	Append(entry model.LogEntry)
	Diagnostic(userID, conversationID, query string, err error)
}

type stepFunc func(ctx context.Context, s *State) (Step, error)

// Orchestrator handles user queries end to end.
type Orchestrator struct {
	store      conversation.Store
	completer  llm.Completer
	classifier *classifier.Classifier
	router     Dispatcher
	audit      AuditLog
	tracer     trace.Tracer
	logger     *logger.Logger
	steps      map[Step]stepFunc
}

// New creates an orchestrator.
func New(
	store conversation.Store,
	completer llm.Completer,
	c *classifier.Classifier,
	router Dispatcher,
	auditLog AuditLog,
	log *logger.Logger,
) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		completer:  completer,
		classifier: c,
		router:     router,
		audit:      auditLog,
		tracer:     otel.Tracer("orchestrator"),
		logger:     log.Named("orchestrator"),
	}
	o.steps = map[Step]stepFunc{
		StepClassifyGeneral: o.classifyGeneral,
		StepHandleGeneral:   o.handleGeneral,
		StepRefineAndRoute:  o.refineAndRoute,
	}
	return o
}

// HandleQuery answers q. Validation and persistence failures are returned
// as errors; pipeline failures produce DegradedResponse and a nil error.
func (o *Orchestrator) HandleQuery(ctx context.Context, q model.Query) (string, error) {
	if err := q.Validate(); err != nil {
		metrics.OrchestratorRequestsTotal.WithLabelValues("none", "invalid").Inc()
		return "", err
	}
	if q.UserID == "" {
		q.UserID = DefaultUserID
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.HandleQuery", trace.WithAttributes(
		attribute.String("conversation_id", q.ConversationID),
		attribute.String("user_id", q.UserID),
	))
	defer span.End()

	log := o.logger.With(
		zap.String("conversation_id", q.ConversationID),
		zap.String("user_id", q.UserID),
	)

	if _, err := o.store.Get(ctx, q.ConversationID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversation store")
		metrics.OrchestratorRequestsTotal.WithLabelValues("none", "store_error").Inc()
		return "", err
	}

	history, err := o.store.Formatted(ctx, q.ConversationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversation store")
		metrics.OrchestratorRequestsTotal.WithLabelValues("none", "store_error").Inc()
		return "", err
	}

	state := &State{
		Query:          q.Text,
		UserID:         q.UserID,
		ConversationID: q.ConversationID,
		OptionalID:     q.OptionalID,
		History:        history,
	}

	if err := o.run(ctx, state); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline failed")
		log.Error("query processing failed",
			zap.Error(err),
			zap.String("error_type", fmt.Sprintf("%T", err)),
			zap.String("path", state.Path()),
		)
		o.audit.Diagnostic(q.UserID, q.ConversationID, q.Text, err)
		metrics.OrchestratorRequestsTotal.WithLabelValues(state.Path(), "degraded").Inc()
		return DegradedResponse, nil
	}

	if err := o.store.Append(ctx, q.ConversationID, model.SenderUser, q.Text); err != nil {
		span.RecordError(err)
		metrics.OrchestratorRequestsTotal.WithLabelValues(state.Path(), "store_error").Inc()
		return "", err
	}
	if err := o.store.Append(ctx, q.ConversationID, model.SenderSystem, state.Response); err != nil {
		span.RecordError(err)
		metrics.OrchestratorRequestsTotal.WithLabelValues(state.Path(), "store_error").Inc()
		return "", err
	}

	o.audit.Append(audit.Build(
		q.UserID,
		q.ConversationID,
		q.Text,
		state.RefinedQuery,
		state.RouterResponse,
		state.Response,
	))

	span.SetAttributes(attribute.String("path", state.Path()))
	metrics.OrchestratorRequestsTotal.WithLabelValues(state.Path(), "success").Inc()
	log.Info("query handled", zap.String("path", state.Path()))

	return state.Response, nil
}

// run executes the pipeline from StepClassifyGeneral until StepEnd.
func (o *Orchestrator) run(ctx context.Context, s *State) error {
	step := StepClassifyGeneral
	for i := 0; step != StepEnd; i++ {
		if i > len(o.steps) {
			return fmt.Errorf("pipeline did not terminate after %d steps", i)
		}
		fn, ok := o.steps[step]
		if !ok {
			return fmt.Errorf("unknown pipeline step %q", step)
		}

		stepCtx, span := o.tracer.Start(ctx, "orchestrator."+string(step))
		start := time.Now()
		next, err := fn(stepCtx, s)
		metrics.OrchestratorStepDuration.WithLabelValues(string(step)).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return fmt.Errorf("%s: %w", step, err)
		}
		span.End()

		step = next
	}
	return nil
}

func (o *Orchestrator) classifyGeneral(ctx context.Context, s *State) (Step, error) {
	res := o.classifier.Classify(ctx, s.Query, classifier.TopLevel)
	if res.Err != nil {
		return "", res.Err
	}

	s.IsGeneral = res.Label == model.LabelGeneral
	if s.IsGeneral {
		return StepHandleGeneral, nil
	}
	return StepRefineAndRoute, nil
}

func (o *Orchestrator) handleGeneral(ctx context.Context, s *State) (Step, error) {
	response, err := o.completer.Complete(ctx, generalPrompt(s))
	if err != nil {
		return "", err
	}
	s.Response = response
	return StepEnd, nil
}

func (o *Orchestrator) refineAndRoute(ctx context.Context, s *State) (Step, error) {
	refined, err := o.completer.Complete(ctx, refinePrompt(s))
	if err != nil {
		return "", fmt.Errorf("refine query: %w", err)
	}
	s.RefinedQuery = refined

	result := o.router.Route(ctx, refined)
	s.RouterResponse = &result
	if !result.OK() {
		o.logger.Info("router returned an error result",
			zap.String("conversation_id", s.ConversationID),
			zap.String("error", result.Error),
		)
	}

	response, err := o.completer.Complete(ctx, finalPrompt(routerContext(s)))
	if err != nil {
		return "", fmt.Errorf("compose response: %w", err)
	}
	s.Response = response
	return StepEnd, nil
}
