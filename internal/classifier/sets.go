package classifier

import "github.com/Emilianodz/multiagent-orch-system/internal/model"

// TopLevel splits general questions from technical ones.
var TopLevel = LabelSet{
	Name:     "top_level",
	Labels:   model.TopLevelLabels,
	Fallback: model.LabelTechnical,
	Prompt: `Decide whether the following query is a general question about technology or a technical request that needs specialized handling.

- general: broad or conversational questions about technology that a generalist can answer directly.
- technical: anything that needs documentation lookup, code, data analysis, system administration or document analysis.

Query: {{query}}

Return only one of the following exact values: {{labels}}.
Category:`,
}

// Router chooses the module that handles a refined query. The order of the
// categories is their priority.
var Router = LabelSet{
	Name:     "router",
	Labels:   model.RouterLabels,
	Fallback: model.LabelGeneration,
	Prompt: `Classify the following query into one of these categories, following the indicated priority order:

1. 'embeddings': contextual search over the document library. Use it when the query relates to documents or specific knowledge that may be in the library. The library currently covers Linux systems.

2. 'agent_one': advanced data analysis, machine learning or Python programming.

3. 'agent_two': bash, git, mysql, nodejs, automation and system administration tasks.

4. 'generation': generate technical text or content when no other category addresses the query directly.

5. 'pdf': analyze information contained in PDF documents, when a PDF or a related document is mentioned explicitly.

Query: {{query}}

Return only one of the following exact values: {{labels}}.
Category:`,
}

// Tools chooses the tool a specialized agent uses.
var Tools = LabelSet{
	Name:     "agent_tools",
	Labels:   model.ToolLabels,
	Fallback: model.LabelLLM,
	Prompt: `You are a technical assistant deciding which tool best answers a technical query, following the indicated priority order. Available tools:
- Vector library: searches reference documents. Your documents are: {{documents}}.
- Text generator: produces detailed explanations or technical content.
- PDF analysis: processes and analyzes PDF documents.

Query: {{query}}

Return one of the following options without extra explanation: {{labels}}.`,
}
