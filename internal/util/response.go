package util

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"dockerlab/pkg/domain"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Timestamp formats the current time for response bodies.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// WriteJSON writes payload with status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError writes an ErrorResponse. detail is only shown when non-empty.
func WriteError(w http.ResponseWriter, status int, msg, code, detail string) {
	WriteJSON(w, status, ErrorResponse{
		Error:     msg,
		Message:   detail,
		Code:      code,
		RequestID: strings.TrimSpace(w.Header().Get(RequestIDHeader)),
		Timestamp: Timestamp(),
	})
}

// StatusForKind maps an operation failure kind to an HTTP status.
func StatusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalid:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
