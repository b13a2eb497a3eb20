package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/sessionhub/internal/models"
	"github.com/wolfeidau/sessionhub/internal/store"
	"github.com/wolfeidau/sessionhub/internal/telemetry"
)

// operation names the per-operation replies used when a service call fails.
type operation struct {
	name        string
	notFound    string
	serverError string
}

var (
	opListPublic = operation{name: "list_public", serverError: "Failed to load sessions"}
	opListMine   = operation{name: "list_mine", serverError: "Failed to load your sessions"}
	opGetMine    = operation{name: "get_mine", notFound: "Session not found", serverError: "Server error"}
	opSaveDraft  = operation{name: "save_draft", notFound: "Session not found or unauthorized", serverError: "Failed to save draft"}
	opPublish    = operation{name: "publish", notFound: "Session not found or unauthorized", serverError: "Failed to publish session"}
)

// writeServiceError maps a service error onto the HTTP error taxonomy.
// Internal error details are logged and never returned to the caller.
func writeServiceError(w http.ResponseWriter, r *http.Request, op operation, err error) {
	var validationErr *models.ValidationError

	switch {
	case errors.Is(err, ErrUnauthenticated):
		writeMessage(w, http.StatusUnauthorized, "User not authenticated")
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Message: validationMessage(validationErr),
			Errors:  validationErr.Fields,
		})
	case errors.Is(err, models.ErrValidation):
		writeMessage(w, http.StatusBadRequest, "Validation failed")
	case errors.Is(err, store.ErrSessionNotFound) && op.notFound != "":
		writeMessage(w, http.StatusNotFound, op.notFound)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("operation", op.name).Msg("Session operation failed")
		telemetry.GetMetrics().RecordFailure(r.Context(), op.name)
		writeMessage(w, http.StatusInternalServerError, op.serverError)
	}
}

// validationMessage prefers the title message, then a lone field message.
func validationMessage(err *models.ValidationError) string {
	if msg, ok := err.Fields["title"]; ok {
		return msg
	}
	if len(err.Fields) == 1 {
		for _, msg := range err.Fields {
			return msg
		}
	}
	return "Validation failed"
}
