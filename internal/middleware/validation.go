package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Payload limits.
const (
	MaxQueryBytes          = 100000
	MaxConversationIDChars = 128
	MaxOptionalIDChars     = 128
)

// ValidateQueryContent validates the raw query text of a request.
func ValidateQueryContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("the 'query' field is required")
	}
	if len(content) > MaxQueryBytes {
		return errors.New("query exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("query must be valid UTF-8")
	}
	return nil
}

// ValidateConversationID validates a conversation ID.
func ValidateConversationID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("the 'conversation_id' field is required")
	}
	if utf8.RuneCountInString(id) > MaxConversationIDChars {
		return errors.New("conversation ID exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New("conversation ID must be valid UTF-8")
	}
	return nil
}

// ValidateOptionalID validates the optional caller-supplied ID.
func ValidateOptionalID(id string) error {
	if utf8.RuneCountInString(id) > MaxOptionalIDChars {
		return errors.New("optional ID exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New("optional ID must be valid UTF-8")
	}
	return nil
}
