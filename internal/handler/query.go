package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Emilianodz/multiagent-orch-system/internal/middleware"
	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
)

// maxBodyBytes bounds request bodies: the query limit plus room for the ids.
const maxBodyBytes = middleware.MaxQueryBytes + 4096

// Orchestrator answers queries within a conversation.
type Orchestrator interface {
	HandleQuery(ctx context.Context, q model.Query) (string, error)
}

// Router dispatches a query to a module.
type Router interface {
	Route(ctx context.Context, query string) model.DispatchResult
}

// Agent answers a query directly.
type Agent interface {
	HandleQuery(ctx context.Context, query string) (string, error)
}

// QueryHandler handles the query endpoints.
type QueryHandler struct {
	orchestrator Orchestrator
	router       Router
	agentOne     Agent
	agentTwo     Agent
	logger       *logger.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(orch Orchestrator, router Router, agentOne, agentTwo Agent, log *logger.Logger) *QueryHandler {
	return &QueryHandler{
		orchestrator: orch,
		router:       router,
		agentOne:     agentOne,
		agentTwo:     agentTwo,
		logger:       log.Named("handler"),
	}
}

// Agent handles POST /api/v1/agent
func (h *QueryHandler) Agent(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r, true)
	if !ok {
		return
	}

	response, err := h.orchestrator.HandleQuery(r.Context(), model.Query{
		Text:           req.Query,
		UserID:         req.OptionalID,
		ConversationID: req.ConversationID,
		OptionalID:     req.OptionalID,
	})
	if err != nil {
		h.fail(w, r, req, "orchestrator", err)
		return
	}

	writeJSON(w, http.StatusOK, model.QueryResponse{
		Response:       response,
		ConversationID: req.ConversationID,
		OptionalID:     req.OptionalID,
	})
}

// Router handles POST /api/v1/router
func (h *QueryHandler) Router(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r, false)
	if !ok {
		return
	}

	result := h.router.Route(r.Context(), req.Query)

	writeJSON(w, http.StatusOK, model.RouterResponse{
		Response:       result,
		ConversationID: req.ConversationID,
		OptionalID:     req.OptionalID,
	})
}

// AgentOne handles POST /api/v1/agent-one
func (h *QueryHandler) AgentOne(w http.ResponseWriter, r *http.Request) {
	h.direct(w, r, "agent_one", h.agentOne)
}

// AgentTwo handles POST /api/v1/agent-two
func (h *QueryHandler) AgentTwo(w http.ResponseWriter, r *http.Request) {
	h.direct(w, r, "agent_two", h.agentTwo)
}

func (h *QueryHandler) direct(w http.ResponseWriter, r *http.Request, name string, agent Agent) {
	req, ok := h.decode(w, r, true)
	if !ok {
		return
	}

	response, err := agent.HandleQuery(r.Context(), req.Query)
	if err != nil {
		h.fail(w, r, req, name, err)
		return
	}

	writeJSON(w, http.StatusOK, model.QueryResponse{
		Response:       response,
		ConversationID: req.ConversationID,
		OptionalID:     req.OptionalID,
	})
}

// decode reads and validates the request body. It writes the error response
// itself and reports whether the handler should continue.
func (h *QueryHandler) decode(w http.ResponseWriter, r *http.Request, requireConversation bool) (model.QueryRequest, bool) {
	var req model.QueryRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return req, false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}

	if err := middleware.ValidateQueryContent(req.Query); err != nil {
		writeQueryError(w, http.StatusBadRequest, req, err.Error())
		return req, false
	}
	if requireConversation || req.ConversationID != "" {
		if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
			writeQueryError(w, http.StatusBadRequest, req, err.Error())
			return req, false
		}
	}
	if err := middleware.ValidateOptionalID(req.OptionalID); err != nil {
		writeQueryError(w, http.StatusBadRequest, req, err.Error())
		return req, false
	}

	return req, true
}

func (h *QueryHandler) fail(w http.ResponseWriter, r *http.Request, req model.QueryRequest, component string, err error) {
	if model.IsValidation(err) {
		writeQueryError(w, http.StatusBadRequest, req, err.Error())
		return
	}

	log := h.logger.WithContext(middleware.GetCorrelationID(r.Context()), req.ConversationID, req.OptionalID)
	log.Error("query failed",
		zap.String("component", component),
		zap.Error(err),
	)
	writeQueryError(w, http.StatusInternalServerError, req, "Error processing the query in "+component)
}
