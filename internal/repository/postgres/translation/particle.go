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

// PostgresParticleRepository implements the ParticleRepository interface
type PostgresParticleRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewParticleRepository creates a new particle repository
func NewParticleRepository(config *postgres.RepositoryConfig) transRepo.ParticleRepository {
	return &PostgresParticleRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByDocument returns the live particle of a document
func (r *PostgresParticleRepository) GetByDocument(ctx context.Context, documentID string) (*models.Particle, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, text, updated_at
		FROM %s
		WHERE document_id = $1
	`, r.tables.Particles)

	return r.scanOne(ctx, query, fmt.Sprintf("particle of document %s", documentID), documentID)
}

// GetByID retrieves a particle with its text
func (r *PostgresParticleRepository) GetByID(ctx context.Context, id string) (*models.Particle, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("particle %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		SELECT id, document_id, text, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Particles)

	return r.scanOne(ctx, query, fmt.Sprintf("particle %s", id), id)
}

// Create inserts the particle
func (r *PostgresParticleRepository) Create(ctx context.Context, p *models.Particle) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, text, updated_at)
		VALUES ($1, $2, $3, $4)
	`, r.tables.Particles)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, p.ID, p.DocumentID, p.Text, p.UpdatedAt); err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      "document already has a particle",
				ResourceType: "particle",
				ResourceID:   p.DocumentID,
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("document %s: %w", p.DocumentID, domain.ErrNotFound)
		}
		return fmt.Errorf("create particle: %w", err)
	}
	return nil
}

// Update overwrites text and updated_at in place
func (r *PostgresParticleRepository) Update(ctx context.Context, p *models.Particle) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET text = $1, updated_at = $2
		WHERE id = $3
	`, r.tables.Particles)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, p.Text, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update particle: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("particle %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteByDocument removes the live particle of a document
func (r *PostgresParticleRepository) DeleteByDocument(ctx context.Context, documentID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, r.tables.Particles)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete particle: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *PostgresParticleRepository) scanOne(ctx context.Context, query, what string, args ...interface{}) (*models.Particle, error) {
	var p models.Particle
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, args...).Scan(&p.ID, &p.DocumentID, &p.Text, &p.UpdatedAt)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get particle: %w", err)
	}
	return &p, nil
}
