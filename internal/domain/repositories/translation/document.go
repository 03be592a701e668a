package translation

import (
	"context"

	"scribe/internal/domain/models/translation"
)

// DocumentRepository defines data access operations for translation documents
type DocumentRepository interface {
	// CreateIfNotExists inserts the document unless one already exists for
	// (OwnerID, TaskID). On return doc holds the stored row; created reports
	// whether this call inserted it.
	CreateIfNotExists(ctx context.Context, doc *translation.Document) (created bool, err error)

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*translation.Document, error)

	// GetByOwnerAndTask retrieves the document for an (owner, task) pair
	GetByOwnerAndTask(ctx context.Context, ownerID, taskID string) (*translation.Document, error)

	// GetByOwnerNameAndTask retrieves the document for a (username, task) pair
	GetByOwnerNameAndTask(ctx context.Context, ownerName, taskID string) (*translation.Document, error)

	// LockForUpdate takes the per-document write lock for the current transaction.
	// Must be called inside TransactionManager.ExecTx.
	LockForUpdate(ctx context.Context, id string) error
}
