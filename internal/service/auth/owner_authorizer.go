package auth

import (
	"context"
	"fmt"

	"scribe/internal/domain"
	"scribe/internal/domain/models/translation"
	transRepo "scribe/internal/domain/repositories/translation"
)

// OwnerBasedAuthorizer implements ResourceAuthorizer using ownership checks.
// A user can access a document, and every revision of it, only if they own it.
type OwnerBasedAuthorizer struct {
	docRepo transRepo.DocumentRepository
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(docRepo transRepo.DocumentRepository) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{docRepo: docRepo}
}

// CanAccessDocument checks if user owns the document
func (a *OwnerBasedAuthorizer) CanAccessDocument(ctx context.Context, userID, documentID string) error {
	doc, err := a.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document for auth: %w", err)
	}
	return CheckOwner(doc, userID)
}

// CanAccessRevision checks if user owns the revision's document.
// Versions and particles share this single check.
func (a *OwnerBasedAuthorizer) CanAccessRevision(ctx context.Context, userID string, rev translation.Revision) error {
	if rev == nil {
		return fmt.Errorf("revision: %w", domain.ErrNotFound)
	}
	return a.CanAccessDocument(ctx, userID, rev.RevisionDocumentID())
}

// CheckOwner fails with ErrForbidden unless userID owns doc.
func CheckOwner(doc *translation.Document, userID string) error {
	if !doc.OwnedBy(userID) {
		return fmt.Errorf("access denied to document %s: %w", doc.ID, domain.ErrForbidden)
	}
	return nil
}
