package translation

import (
	"context"

	"scribe/internal/domain/models"
	"scribe/internal/domain/models/translation"
)

// ContentStore owns documents and answers "what is the current text".
type ContentStore interface {
	// GetOrCreateDocument returns the owner's document for a task, creating
	// it and seeding a first version from the task's current text on first use
	GetOrCreateDocument(ctx context.Context, owner models.Identity, taskID string) (*translation.Document, error)

	// GetDocument returns the owner's document for a task without creating it
	GetDocument(ctx context.Context, owner models.Identity, taskID string) (*translation.Document, error)

	// GetDocumentByOwnerName returns the document of the user named ownerName.
	// Only editors may look up another user's document.
	GetDocumentByOwnerName(ctx context.Context, requester models.Identity, ownerName, taskID string) (*translation.Document, error)

	// ResolveText returns the particle text, else the latest version text
	ResolveText(ctx context.Context, doc *translation.Document) (string, error)

	// ListVersions lists version metadata in the requested order
	ListVersions(ctx context.Context, doc *translation.Document, order translation.Order) ([]translation.RevisionSummary, error)

	// CurrentParticle returns the live particle's summary, or nil when there is none
	CurrentParticle(ctx context.Context, doc *translation.Document) (*translation.RevisionSummary, error)

	// ReadVersionText returns a version's text to the owner of its document
	ReadVersionText(ctx context.Context, versionID, requesterID string) (string, error)

	// ReadParticleText returns a particle's text to the owner of its document
	ReadParticleText(ctx context.Context, particleID, requesterID string) (string, error)
}

// Reconciler applies edits, keeping versions and the particle consistent.
type Reconciler interface {
	// SaveAsVersion appends a version and drops the live particle atomically
	SaveAsVersion(ctx context.Context, doc *translation.Document, requesterID, text string) (*translation.Version, error)

	// SaveAsParticle overwrites or creates the particle unless text is
	// unchanged (ignoring surrounding whitespace)
	SaveAsParticle(ctx context.Context, doc *translation.Document, requesterID, text string) (translation.SaveOutcome, error)
}

// SaveContentRequest is the body of both save endpoints.
type SaveContentRequest struct {
	Content *string `json:"content"`
}
