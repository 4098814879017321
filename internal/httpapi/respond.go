// Package httpapi holds the HTTP plumbing shared by the resource handlers:
// the response envelope, request decoding/validation helpers, and the
// middleware stack (request logging, rate limiting, cache control).
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"shelfwise/internal/apperr"
	"shelfwise/internal/logging"
)

// envelope is the response shape used by every endpoint:
// {"success":true,"data":...} or {"success":false,"error":{"message":...}}.
type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Count   *int      `json:"count,omitempty"`
	Message string    `json:"message,omitempty"`
	Error   *errBody  `json:"error,omitempty"`
}

type errBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope with data and an optional message.
func OK(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

// OKList writes a success envelope with data and its element count.
func OKList(w http.ResponseWriter, data any, count int) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Count: &count})
}

// OKMessage writes a success envelope carrying only a message.
func OKMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message})
}

// Error maps a classified error to its status code and writes the failure
// envelope. Storage-kind failures are logged with the request context;
// client errors are not.
func Error(ctx context.Context, w http.ResponseWriter, log logging.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error(ctx, "request failed", "error", err)
	}
	writeJSON(w, status, envelope{Success: false, Error: &errBody{Message: apperr.Message(err)}})
}
