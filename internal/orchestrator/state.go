package orchestrator

import "github.com/Emilianodz/multiagent-orch-system/internal/model"

// Step names a node of the orchestration pipeline.
type Step string

const (
	StepClassifyGeneral Step = "classify_general"
	StepHandleGeneral   Step = "handle_general"
	StepRefineAndRoute  Step = "refine_and_route"
	StepEnd             Step = "end"
)

// State is the per-request record threaded through the pipeline.
type State struct {
	Query          string
	UserID         string
	ConversationID string
	OptionalID     string
	History        string

	IsGeneral      bool
	RefinedQuery   string
	RouterResponse *model.DispatchResult
	Response       string
}

// Path reports which branch the request took.
func (s *State) Path() string {
	if s.IsGeneral {
		return "general"
	}
	return "technical"
}
