package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Emilianodz/multiagent-orch-system/internal/model"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: message})
}

// writeQueryError writes an error response that echoes the request ids.
func writeQueryError(w http.ResponseWriter, status int, req model.QueryRequest, message string) {
	writeJSON(w, status, model.ErrorResponse{
		Error:          message,
		ConversationID: req.ConversationID,
		OptionalID:     req.OptionalID,
	})
}
