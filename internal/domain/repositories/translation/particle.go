package translation

import (
	"context"

	"scribe/internal/domain/models/translation"
)

// ParticleRepository defines data access operations for the single autosave slot
type ParticleRepository interface {
	// GetByDocument returns the live particle of a document (ErrNotFound if none)
	GetByDocument(ctx context.Context, documentID string) (*translation.Particle, error)

	// GetByID retrieves a particle with its text
	GetByID(ctx context.Context, id string) (*translation.Particle, error)

	// Create inserts the particle; a second particle for the same document is a conflict
	Create(ctx context.Context, p *translation.Particle) error

	// Update overwrites text and updated_at in place
	Update(ctx context.Context, p *translation.Particle) error

	// DeleteByDocument removes the live particle, returning how many rows went away
	DeleteByDocument(ctx context.Context, documentID string) (int64, error)
}
