package orchestrator

import (
	"fmt"
	"strings"

	"github.com/Emilianodz/multiagent-orch-system/internal/model"
)

func generalPrompt(s *State) string {
	return fmt.Sprintf("Conversation history:\n%s\n\n"+
		"You are an assistant with broad knowledge of technology. "+
		"Answer the user's question clearly and concisely, using the conversation history when it is relevant.\n\n"+
		"Question:\n%s\n\n"+
		"Answer:", s.History, s.Query)
}

func refinePrompt(s *State) string {
	return fmt.Sprintf("Conversation history:\n%s\n\n"+
		"Current query:\n%s\n\n"+
		"Generate a refined and specific query to be classified by a routing system. "+
		"The query must be concise and contain only the information needed for technical classification:",
		s.History, s.Query)
}

// routerContext renders everything the final completion needs to know about
// the routing outcome.
func routerContext(s *State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Original query:\n%s\n\n", strings.TrimSpace(s.Query))

	res := s.RouterResponse
	if res == nil {
		res = &model.DispatchResult{Error: "no router response"}
	}
	if res.OK() {
		fmt.Fprintf(&b, "Task assigned by the router: %s\n\n", res.Module)
		fmt.Fprintf(&b, "Response generated by the router:\n%s\n\n", strings.TrimSpace(res.Response))
	} else {
		module := string(res.Module)
		if module == "" {
			module = "unknown"
		}
		fmt.Fprintf(&b, "Task assigned by the router: %s\n\n", module)
		fmt.Fprintf(&b, "Router error:\n%s\n", res.Error)
		if res.Classification != nil {
			fmt.Fprintf(&b, "Router classification: %q\n", *res.Classification)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Conversation history:\n%s\n\n", strings.TrimSpace(s.History))

	optionalID := s.OptionalID
	if optionalID == "" {
		optionalID = "none"
	}
	fmt.Fprintf(&b, "Metadata:\n- Conversation ID: %s\n- Optional ID: %s", s.ConversationID, optionalID)

	return b.String()
}

func finalPrompt(routerCtx string) string {
	return "You are an orchestrator agent with specialized knowledge of Linux operating systems, data analysis in Python " +
		"and general technologies. Your task is to analyze the provided query and decide between:\n\n" +
		"1. Answering directly, if you have enough information.\n" +
		"2. Delegating to a specialized agent if the query is outside your domain or requires advanced analysis.\n\n" +
		"Instructions:\n" +
		"- If the query relates to Linux operating systems (commands, configuration, server architecture), answer directly.\n" +
		"- If the query relates to Python for data analysis (libraries, algorithms or specific practices), route it to 'Agent_One'.\n" +
		"- If the query is about multiple programming languages or technologies in general, route it to 'Agent_Two'.\n" +
		"- If the router reported an error, answer as well as you can from the available context.\n\n" +
		"Expected response format:\n" +
		"1. To answer directly: provide a clear and complete answer.\n" +
		"2. To delegate: write only 'Send to [Agent Name]'.\n\n" +
		"Query:\n" + routerCtx + "\n\n" +
		"Answer:"
}
