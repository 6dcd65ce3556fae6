package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/quizfiesta/funnel-api/internal/pkg/logger"
)

// ErrorResponse is the standard error envelope for all API errors. Error is
// a categorical code ("invalid_session_id", "unknown_field", ...) so clients
// can branch on it without string matching free text.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes a JSON response with the given status code. The data is
// serialized and Content-Type is set automatically.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Error writes a JSON error response with a categorical code.
func Error(w http.ResponseWriter, status int, code string) {
	JSON(w, status, ErrorResponse{Error: code})
}

// BadRequest writes a 400 error with a categorical code.
func BadRequest(w http.ResponseWriter, code string) {
	Error(w, http.StatusBadRequest, code)
}

// Unauthorized writes a 401 error.
func Unauthorized(w http.ResponseWriter, code string) {
	Error(w, http.StatusUnauthorized, code)
}

// TooManyRequests writes a 429 error with a Retry-After hint in seconds.
func TooManyRequests(w http.ResponseWriter, retryAfterSeconds int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	Error(w, http.StatusTooManyRequests, "rate_limited")
}

// InternalError writes a 500 error. Logs the real error but returns a
// generic message to the client (never leak internals).
func InternalError(w http.ResponseWriter, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal_error")
}
