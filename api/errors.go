package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/generic"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeInvalidState  = "INVALID_STATE"
	CodeInternal      = "INTERNAL_ERROR"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeRateLimited   = "RATE_LIMITED"
	internalErrorText = "internal error"
)

// classify maps an engine error to its HTTP status and code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, generic.ErrValidation):
		return http.StatusBadRequest, CodeInvalidInput
	case generic.IsForbidden(err):
		return http.StatusForbidden, CodeForbidden
	case generic.IsNotFound(err):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, generic.ErrInvalidTransition):
		return http.StatusConflict, CodeInvalidState
	case generic.IsConflict(err), generic.IsRetryable(err):
		return http.StatusConflict, CodeConflict
	}
	return http.StatusInternalServerError, CodeInternal
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError renders err with the status of its class. Internal errors do
// not leak their message to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeStatus(w, status, code, internalErrorText, nil)
		return
	}
	writeStatus(w, status, code, err.Error(), nil)
}

func writeStatus(w http.ResponseWriter, status int, code, message string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
