// Package model defines data structures for the orchestration service.
package model

// ConversationRecord is the persisted message log of one conversation.
type ConversationRecord struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}

// NewConversationRecord returns an empty record for id.
func NewConversationRecord(id string) *ConversationRecord {
	return &ConversationRecord{
		ConversationID: id,
		Messages:       []Message{},
	}
}

// HasSystemMessage reports whether a system message with exactly text
// is already present.
func (r *ConversationRecord) HasSystemMessage(text string) bool {
	for _, m := range r.Messages {
		if m.Sender == SenderSystem && m.Text == text {
			return true
		}
	}
	return false
}

// Append adds a message unless it is a system message duplicating an
// earlier one. It reports whether the record changed.
func (r *ConversationRecord) Append(sender Sender, text string) bool {
	if sender == SenderSystem && r.HasSystemMessage(text) {
		return false
	}
	r.Messages = append(r.Messages, Message{Sender: sender, Text: text})
	return true
}
