package utils

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"ASTROTRACKER_BACK-END/internal/dto"
	"ASTROTRACKER_BACK-END/internal/errs"
)

// WriteJSONResponse writes a JSON response to the HTTP response writer
func WriteJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteErrorResponse writes a dto.ErrorResponse with the given status
func WriteErrorResponse(w http.ResponseWriter, status int, errMsg, message string) {
	WriteJSONResponse(w, status, dto.ErrorResponse{Error: errMsg, Message: message})
}

// StatusForError maps the errs taxonomy onto HTTP status codes
func StatusForError(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, errs.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError logs err and writes the matching error response.
// Internal errors never leak their text to the client.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := StatusForError(err)
	attrs := []any{"method", r.Method, "path", r.URL.Path, "status", status, "error", err}

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		logger.WarnContext(r.Context(), "request rejected", attrs...)
	}

	switch status {
	case http.StatusInternalServerError:
		WriteErrorResponse(w, status, http.StatusText(status), "Internal server error")
	case http.StatusServiceUnavailable:
		WriteErrorResponse(w, status, http.StatusText(status), "NASA service temporarily unavailable")
	default:
		WriteErrorResponse(w, status, http.StatusText(status), err.Error())
	}
}
