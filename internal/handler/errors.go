package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"scribe/internal/domain"
	"scribe/internal/domain/models"
	"scribe/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError
	var printErr *domain.PrintServiceError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondError(w, http.StatusConflict, conflictErr.Error())
	case errors.As(err, &printErr):
		slog.Error("print service rejected job", "status", printErr.RemoteStatus, "body", printErr.Body)
		httputil.RespondErrorWithExtras(w, http.StatusBadGateway, "print service rejected the job", map[string]interface{}{
			"remote_status": printErr.RemoteStatus,
		})
	case errors.Is(err, domain.ErrRenderEngine), errors.Is(err, domain.ErrPostProcess):
		slog.Error("export failed", "error", err)
		httputil.RespondError(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireIdentity returns the requester or writes 401
func requireIdentity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := httputil.GetIdentity(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
	}
	return id, ok
}
