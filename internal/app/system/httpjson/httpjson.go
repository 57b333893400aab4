// internal/app/system/httpjson/httpjson.go

// Package httpjson writes API responses and maps the domain error
// taxonomy onto HTTP statuses in one place, so every feature reports
// failures the same way.
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	directorystore "github.com/classline/classline/internal/app/store/directory"
	"github.com/classline/classline/internal/domain/models"
	"go.uber.org/zap"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Respond writes v as JSON with the given status.
func Respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error maps a domain error onto its HTTP status and writes the JSON
// error body. Unrecognized errors are logged and reported as 500
// without leaking internals.
func Error(w http.ResponseWriter, logger *zap.Logger, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		Respond(w, http.StatusBadRequest, errorBody{Error: verr.Reason, Field: verr.Field})
	case errors.Is(err, models.ErrPermissionDenied):
		Respond(w, http.StatusForbidden, errorBody{Error: "permission denied"})
	case errors.Is(err, models.ErrNotFound):
		Respond(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, models.ErrAlreadyVoted):
		Respond(w, http.StatusConflict, errorBody{Error: "already voted"})
	case errors.Is(err, directorystore.ErrDuplicateDepartmentName),
		errors.Is(err, directorystore.ErrDuplicateClassName):
		Respond(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, models.ErrStoreUnavailable):
		logger.Error("store unavailable", zap.Error(err))
		Respond(w, http.StatusServiceUnavailable, errorBody{Error: "service unavailable"})
	default:
		logger.Error("unhandled error", zap.Error(err))
		Respond(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(w http.ResponseWriter, msg string) {
	Respond(w, http.StatusBadRequest, errorBody{Error: msg})
}
