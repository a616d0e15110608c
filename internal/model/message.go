package model

import "strings"

// Sender identifies who produced a message in a conversation.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderSystem Sender = "system"
)

// Valid reports whether s is a known sender.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderSystem
}

// Message is a single entry in a conversation log.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"message"`
}

// Query is a free-text request submitted by a user.
type Query struct {
	Text           string `json:"query"`
	UserID         string `json:"user_id,omitempty"`
	ConversationID string `json:"conversation_id"`
	OptionalID     string `json:"optional_id,omitempty"`
}

// MinQueryLength is the shortest accepted query after trimming.
const MinQueryLength = 3

// Validate trims the query text in place and checks its length.
func (q *Query) Validate() error {
	q.Text = strings.TrimSpace(q.Text)
	if len([]rune(q.Text)) < MinQueryLength {
		return &ValidationError{
			Field:  "query",
			Reason: "the query is too short, please provide more details",
		}
	}
	return nil
}

// QueryRequest is the request body accepted by the query endpoints.
type QueryRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id"`
	OptionalID     string `json:"optional_id,omitempty"`
}

// QueryResponse is returned by the agent and orchestrator endpoints.
type QueryResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	OptionalID     string `json:"optional_id,omitempty"`
}

// RouterResponse is returned by the router endpoint.
type RouterResponse struct {
	Response       DispatchResult `json:"response"`
	ConversationID string         `json:"conversation_id,omitempty"`
	OptionalID     string         `json:"optional_id,omitempty"`
}

// ErrorResponse is the structured error body of the query endpoints.
type ErrorResponse struct {
	Error          string `json:"error"`
	ConversationID string `json:"conversation_id,omitempty"`
	OptionalID     string `json:"optional_id,omitempty"`
}
