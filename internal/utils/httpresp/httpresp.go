// Package httpresp writes JSON responses and error bodies.
package httpresp

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

// JSON writes v as a JSON response with the given status
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes an ErrorBody with the given status and message
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}
