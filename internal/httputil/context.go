package httputil

import (
	"context"
	"net/http"

	"scribe/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	identityKey contextKey = "identity"
)

// WithIdentity adds the authenticated requester to the request context
func WithIdentity(r *http.Request, id models.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityKey, id)
	return r.WithContext(ctx)
}

// GetIdentity retrieves the requester, reporting false if the request is unauthenticated
func GetIdentity(r *http.Request) (models.Identity, bool) {
	id, ok := r.Context().Value(identityKey).(models.Identity)
	return id, ok && id.UserID != ""
}

// GetUserID retrieves the requester's user ID, returns empty string if not found
func GetUserID(r *http.Request) string {
	id, _ := GetIdentity(r)
	return id.UserID
}
