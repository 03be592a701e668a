package services

import (
	"context"

	"scribe/internal/domain/models/translation"
)

// ResourceAuthorizer checks if a user can access translation resources.
// Current implementation: ownership-based (user owns the document).
//
// Services call the authorizer before operating on resources, which keeps
// authorization (who can access) apart from identification (which resource).
type ResourceAuthorizer interface {
	// CanAccessDocument checks if user owns the document
	CanAccessDocument(ctx context.Context, userID, documentID string) error

	// CanAccessRevision checks if user owns the document a version or particle belongs to
	CanAccessRevision(ctx context.Context, userID string, rev translation.Revision) error
}
