package translation

import (
	"context"

	"scribe/internal/domain/models/translation"
)

// VersionRepository defines data access operations for durable versions.
// Versions are append-only: there is no Update or Delete.
type VersionRepository interface {
	// Create appends a version and fills in its ID and Seq
	Create(ctx context.Context, v *translation.Version) error

	// GetByID retrieves a version with its text
	GetByID(ctx context.Context, id string) (*translation.Version, error)

	// Latest returns the most recent version of a document
	Latest(ctx context.Context, documentID string) (*translation.Version, error)

	// ListByDocument lists version metadata (no text) ordered by (created_at, seq)
	ListByDocument(ctx context.Context, documentID string, order translation.Order) ([]translation.Version, error)
}
