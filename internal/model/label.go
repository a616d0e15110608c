package model

// Label is a category produced by classification.
type Label string

// Top-level labels.
const (
	LabelGeneral   Label = "general"
	LabelTechnical Label = "technical"
)

// Router-level labels.
const (
	LabelEmbeddings Label = "embeddings"
	LabelGeneration Label = "generation"
	LabelPDF        Label = "pdf"
	LabelAgentOne   Label = "agent_one"
	LabelAgentTwo   Label = "agent_two"
)

// Agent-local tool labels.
const (
	LabelEmbeddingsTool  Label = "embeddings_tool"
	LabelGenerationTool  Label = "generation_tool"
	LabelPDFAnalysisTool Label = "pdf_analysis_tool"
	LabelLLM             Label = "llm"
)

// TopLevelLabels is the closed set used to split general and technical queries.
var TopLevelLabels = []Label{LabelGeneral, LabelTechnical}

// RouterLabels is the closed set the router dispatches on.
var RouterLabels = []Label{LabelEmbeddings, LabelGeneration, LabelPDF, LabelAgentOne, LabelAgentTwo}

// ToolLabels is the closed set used by the specialized agents.
var ToolLabels = []Label{LabelEmbeddingsTool, LabelGenerationTool, LabelPDFAnalysisTool, LabelLLM}

// DispatchResult is the outcome of routing a query. Exactly one of
// Response or Error is meaningful.
type DispatchResult struct {
	Module         Label   `json:"module,omitempty"`
	Response       string  `json:"response,omitempty"`
	Error          string  `json:"error,omitempty"`
	Classification *string `json:"classification,omitempty"`
}

// OK reports whether the result carries a handler response.
func (r DispatchResult) OK() bool {
	return r.Error == ""
}

// Err returns the result's failure as an error, or nil on success.
func (r DispatchResult) Err() error {
	if r.OK() {
		return nil
	}
	if r.Classification != nil {
		return &ClassificationError{Raw: *r.Classification, Message: r.Error}
	}
	return &DispatchError{Message: r.Error}
}
