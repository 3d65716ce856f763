// Package handlers implements the control service HTTP surface: token
// issuance, configuration read/update, and TTS backend status.
package handlers

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the wire shape for rejected requests. Allowed carries
// the valid identifier set for catalog validation failures.
type errorResponse struct {
	Error   string   `json:"error"`
	Allowed []string `json:"allowed,omitempty"`
}

// WriteJSON writes a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes a plain error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorResponse{Error: message})
}
