package response

import (
	"encoding/json"
	"net/http"

	"github.com/clubhive/clubhive/pkg/logger"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeRateLimit         = "RATE_LIMIT_EXCEEDED"
	CodeInternalError     = "INTERNAL_ERROR"
	CodeExpiredToken      = "EXPIRED_TOKEN"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeSessionEnded      = "SESSION_ENDED"
	CodeEventPast         = "EVENT_PAST"
	CodeCapacityReached   = "CAPACITY_REACHED"
	CodeAlreadyRegistered = "ALREADY_REGISTERED"
	CodeCheckInPending    = "CHECK_IN_PENDING"
	CodeInvalidCredential = "INVALID_CREDENTIAL"
)

func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, statusCode int, message, code string) {
	JSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	JSON(w, statusCode, ErrorResponse{Error: message, Code: code, Details: details})
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message, CodeConflict)
}
