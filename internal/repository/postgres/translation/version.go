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

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(config *postgres.RepositoryConfig) transRepo.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create appends a version
func (r *PostgresVersionRepository) Create(ctx context.Context, v *models.Version) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, text, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING seq
	`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, v.ID, v.DocumentID, v.Text, v.CreatedAt).Scan(&v.Seq)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("document %s: %w", v.DocumentID, domain.ErrNotFound)
		}
		return fmt.Errorf("create version: %w", err)
	}
	return nil
}

// GetByID retrieves a version with its text
func (r *PostgresVersionRepository) GetByID(ctx context.Context, id string) (*models.Version, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		SELECT id, document_id, text, created_at, seq
		FROM %s
		WHERE id = $1
	`, r.tables.Versions)

	var v models.Version
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(&v.ID, &v.DocumentID, &v.Text, &v.CreatedAt, &v.Seq)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("version %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get version: %w", err)
	}
	return &v, nil
}

// Latest returns the most recent version of a document
func (r *PostgresVersionRepository) Latest(ctx context.Context, documentID string) (*models.Version, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, text, created_at, seq
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`, r.tables.Versions)

	var v models.Version
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, documentID).Scan(&v.ID, &v.DocumentID, &v.Text, &v.CreatedAt, &v.Seq)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("versions of document %s: %w", documentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get latest version: %w", err)
	}
	return &v, nil
}

// ListByDocument lists version metadata ordered by (created_at, seq)
func (r *PostgresVersionRepository) ListByDocument(ctx context.Context, documentID string, order models.Order) ([]models.Version, error) {
	direction := "ASC"
	if order == models.NewestFirst {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT id, document_id, created_at, seq
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at %s, seq %s
	`, r.tables.Versions, direction, direction)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	versions := []models.Version{}
	for rows.Next() {
		var v models.Version
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.CreatedAt, &v.Seq); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	return versions, nil
}
