package translation

import (
	"context"
	"fmt"
	"log/slog"

	"scribe/internal/domain"
	models "scribe/internal/domain/models/translation"
	transRepo "scribe/internal/domain/repositories/translation"
	"scribe/internal/repository/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) transRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateIfNotExists inserts the document unless (owner_id, task_id) already exists
func (r *PostgresDocumentRepository) CreateIfNotExists(ctx context.Context, doc *models.Document) (bool, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, owner_name, task_id, language_tag, rtl, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, task_id) DO NOTHING
		RETURNING id, created_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.ID,
		doc.OwnerID,
		doc.OwnerName,
		doc.TaskID,
		doc.LanguageTag,
		doc.RTL,
		doc.CreatedAt,
	).Scan(&doc.ID, &doc.CreatedAt)

	if err == nil {
		return true, nil
	}
	if !postgres.IsPgNoRowsError(err) {
		return false, fmt.Errorf("create document: %w", err)
	}

	// Lost the race or the row already existed: load the stored one
	existing, err := r.GetByOwnerAndTask(ctx, doc.OwnerID, doc.TaskID)
	if err != nil {
		return false, err
	}
	*doc = *existing
	return false, nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		SELECT id, owner_id, owner_name, task_id, language_tag, rtl, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Documents)

	return r.scanOne(ctx, query, fmt.Sprintf("document %s", id), id)
}

// GetByOwnerAndTask retrieves the document for an (owner, task) pair
func (r *PostgresDocumentRepository) GetByOwnerAndTask(ctx context.Context, ownerID, taskID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, owner_name, task_id, language_tag, rtl, created_at
		FROM %s
		WHERE owner_id = $1 AND task_id = $2
	`, r.tables.Documents)

	return r.scanOne(ctx, query, fmt.Sprintf("document for task %s", taskID), ownerID, taskID)
}

// GetByOwnerNameAndTask retrieves the document for a (username, task) pair.
// The earliest document wins should a username ever be reused.
func (r *PostgresDocumentRepository) GetByOwnerNameAndTask(ctx context.Context, ownerName, taskID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, owner_name, task_id, language_tag, rtl, created_at
		FROM %s
		WHERE owner_name = $1 AND task_id = $2
		ORDER BY created_at
		LIMIT 1
	`, r.tables.Documents)

	return r.scanOne(ctx, query, fmt.Sprintf("document of %s for task %s", ownerName, taskID), ownerName, taskID)
}

// LockForUpdate row-locks the document until the surrounding transaction ends
func (r *PostgresDocumentRepository) LockForUpdate(ctx context.Context, id string) error {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE id = $1 FOR UPDATE`, r.tables.Documents)

	var locked string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&locked); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("lock document: %w", err)
	}
	return nil
}

func (r *PostgresDocumentRepository) scanOne(ctx context.Context, query, what string, args ...interface{}) (*models.Document, error) {
	var doc models.Document
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, args...).Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.OwnerName,
		&doc.TaskID,
		&doc.LanguageTag,
		&doc.RTL,
		&doc.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}
