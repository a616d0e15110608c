package model

import "time"

// LogEntry is one audit record of a handled request.
type LogEntry struct {
	Timestamp      time.Time       `json:"timestamp"`
	UserID         string          `json:"user_id"`
	ConversationID string          `json:"conversation_id"`
	Query          string          `json:"query"`
	RouterQuery    string          `json:"router_query"`
	RouterResponse *DispatchResult `json:"router_response"`
	FinalResponse  string          `json:"final_response"`
}
