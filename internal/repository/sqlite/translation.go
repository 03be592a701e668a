package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"scribe/internal/domain"
	models "scribe/internal/domain/models/translation"
)

// ==================== Documents ====================

type documentRepository struct {
	store *Store
}

func (r *documentRepository) CreateIfNotExists(ctx context.Context, doc *models.Document) (bool, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	result, err := r.store.exec(ctx).ExecContext(ctx, `
		INSERT INTO translation_documents (id, owner_id, owner_name, task_id, language_tag, rtl, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, task_id) DO NOTHING
	`, doc.ID, doc.OwnerID, doc.OwnerName, doc.TaskID, doc.LanguageTag, doc.RTL, toUnixNano(doc.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("create document: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create document: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	existing, err := r.GetByOwnerAndTask(ctx, doc.OwnerID, doc.TaskID)
	if err != nil {
		return false, err
	}
	*doc = *existing
	return false, nil
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	row := r.store.exec(ctx).QueryRowContext(ctx, `
		SELECT id, owner_id, owner_name, task_id, language_tag, rtl, created_at
		FROM translation_documents WHERE id = ?
	`, id)
	return scanDocument(row, fmt.Sprintf("document %s", id))
}

func (r *documentRepository) GetByOwnerAndTask(ctx context.Context, ownerID, taskID string) (*models.Document, error) {
	row := r.store.exec(ctx).QueryRowContext(ctx, `
		SELECT id, owner_id, owner_name, task_id, language_tag, rtl, created_at
		FROM translation_documents WHERE owner_id = ? AND task_id = ?
	`, ownerID, taskID)
	return scanDocument(row, fmt.Sprintf("document for task %s", taskID))
}

func (r *documentRepository) GetByOwnerNameAndTask(ctx context.Context, ownerName, taskID string) (*models.Document, error) {
	row := r.store.exec(ctx).QueryRowContext(ctx, `
		SELECT id, owner_id, owner_name, task_id, language_tag, rtl, created_at
		FROM translation_documents WHERE owner_name = ? AND task_id = ?
		ORDER BY created_at LIMIT 1
	`, ownerName, taskID)
	return scanDocument(row, fmt.Sprintf("document of %s for task %s", ownerName, taskID))
}

// LockForUpdate only checks existence: the store's single connection already
// serializes transactions.
func (r *documentRepository) LockForUpdate(ctx context.Context, id string) error {
	var found string
	err := r.store.exec(ctx).QueryRowContext(ctx, `SELECT id FROM translation_documents WHERE id = ?`, id).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("lock document: %w", err)
	}
	return nil
}

func scanDocument(row *sql.Row, what string) (*models.Document, error) {
	var doc models.Document
	var createdAt int64
	if err := row.Scan(&doc.ID, &doc.OwnerID, &doc.OwnerName, &doc.TaskID, &doc.LanguageTag, &doc.RTL, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	doc.CreatedAt = fromUnixNano(createdAt)
	return &doc, nil
}

// ==================== Versions ====================

type versionRepository struct {
	store *Store
}

func (r *versionRepository) Create(ctx context.Context, v *models.Version) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	result, err := r.store.exec(ctx).ExecContext(ctx, `
		INSERT INTO translation_versions (id, document_id, text, created_at)
		VALUES (?, ?, ?, ?)
	`, v.ID, v.DocumentID, v.Text, toUnixNano(v.CreatedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("document %s: %w", v.DocumentID, domain.ErrNotFound)
		}
		return fmt.Errorf("create version: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create version: %w", err)
	}
	v.Seq = seq
	return nil
}

func (r *versionRepository) GetByID(ctx context.Context, id string) (*models.Version, error) {
	row := r.store.exec(ctx).QueryRowContext(ctx, `
		SELECT id, document_id, text, created_at, seq
		FROM translation_versions WHERE id = ?
	`, id)
	return scanVersion(row, fmt.Sprintf("version %s", id))
}

func (r *versionRepository) Latest(ctx context.Context, documentID string) (*models.Version, error) {
	row := r.store.exec(ctx).QueryRowContext(ctx, `
		SELECT id, document_id, text, created_at, seq
		FROM translation_versions WHERE document_id = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`, documentID)
	return scanVersion(row, fmt.Sprintf("versions of document %s", documentID))
}

func (r *versionRepository) ListByDocument(ctx context.Context, documentID string, order models.Order) ([]models.Version, error) {
	query := `
		SELECT id, document_id, created_at, seq
		FROM translation_versions WHERE document_id = ?
		ORDER BY created_at ASC, seq ASC`
	if order == models.NewestFirst {
		query = `
		SELECT id, document_id, created_at, seq
		FROM translation_versions WHERE document_id = ?
		ORDER BY created_at DESC, seq DESC`
	}

	rows, err := r.store.exec(ctx).QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	versions := []models.Version{}
	for rows.Next() {
		var v models.Version
		var createdAt int64
		if err := rows.Scan(&v.ID, &v.DocumentID, &createdAt, &v.Seq); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		v.CreatedAt = fromUnixNano(createdAt)
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return versions, nil
}

func scanVersion(row *sql.Row, what string) (*models.Version, error) {
	var v models.Version
	var createdAt int64
	if err := row.Scan(&v.ID, &v.DocumentID, &v.Text, &createdAt, &v.Seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get version: %w", err)
	}
	v.CreatedAt = fromUnixNano(createdAt)
	return &v, nil
}

// ==================== Particles ====================

type particleRepository struct {
	store *Store
}

func (r *particleRepository) GetByDocument(ctx context.Context, documentID string) (*models.Particle, error) {
	row := r.store.exec(ctx).QueryRowContext(ctx, `
		SELECT id, document_id, text, updated_at
		FROM translation_particles WHERE document_id = ?
	`, documentID)
	return scanParticle(row, fmt.Sprintf("particle of document %s", documentID))
}

func (r *particleRepository) GetByID(ctx context.Context, id string) (*models.Particle, error) {
	row := r.store.exec(ctx).QueryRowContext(ctx, `
		SELECT id, document_id, text, updated_at
		FROM translation_particles WHERE id = ?
	`, id)
	return scanParticle(row, fmt.Sprintf("particle %s", id))
}

func (r *particleRepository) Create(ctx context.Context, p *models.Particle) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	_, err := r.store.exec(ctx).ExecContext(ctx, `
		INSERT INTO translation_particles (id, document_id, text, updated_at)
		VALUES (?, ?, ?, ?)
	`, p.ID, p.DocumentID, p.Text, toUnixNano(p.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{
				Message:      "document already has a particle",
				ResourceType: "particle",
				ResourceID:   p.DocumentID,
			}
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("document %s: %w", p.DocumentID, domain.ErrNotFound)
		}
		return fmt.Errorf("create particle: %w", err)
	}
	return nil
}

func (r *particleRepository) Update(ctx context.Context, p *models.Particle) error {
	result, err := r.store.exec(ctx).ExecContext(ctx, `
		UPDATE translation_particles SET text = ?, updated_at = ? WHERE id = ?
	`, p.Text, toUnixNano(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("update particle: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update particle: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("particle %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *particleRepository) DeleteByDocument(ctx context.Context, documentID string) (int64, error) {
	result, err := r.store.exec(ctx).ExecContext(ctx,
		`DELETE FROM translation_particles WHERE document_id = ?`, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete particle: %w", err)
	}
	return result.RowsAffected()
}

func scanParticle(row *sql.Row, what string) (*models.Particle, error) {
	var p models.Particle
	var updatedAt int64
	if err := row.Scan(&p.ID, &p.DocumentID, &p.Text, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get particle: %w", err)
	}
	p.UpdatedAt = fromUnixNano(updatedAt)
	return &p, nil
}
