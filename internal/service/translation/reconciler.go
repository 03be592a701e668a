package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"scribe/internal/domain"
	models "scribe/internal/domain/models/translation"
	"scribe/internal/domain/repositories"
	transRepo "scribe/internal/domain/repositories/translation"
	transSvc "scribe/internal/domain/services/translation"
	"scribe/internal/service/auth"
)

// reconciler implements the Reconciler interface
type reconciler struct {
	docRepo      transRepo.DocumentRepository
	versionRepo  transRepo.VersionRepository
	particleRepo transRepo.ParticleRepository
	txManager    repositories.TransactionManager
	store        transSvc.ContentStore
	clock        func() time.Time
	logger       *slog.Logger
}

// NewReconciler creates a new version reconciler
func NewReconciler(
	docRepo transRepo.DocumentRepository,
	versionRepo transRepo.VersionRepository,
	particleRepo transRepo.ParticleRepository,
	txManager repositories.TransactionManager,
	store transSvc.ContentStore,
	logger *slog.Logger,
) transSvc.Reconciler {
	return &reconciler{
		docRepo:      docRepo,
		versionRepo:  versionRepo,
		particleRepo: particleRepo,
		txManager:    txManager,
		store:        store,
		clock:        time.Now,
		logger:       logger,
	}
}

// SaveAsVersion appends a version and removes the live particle in one
// transaction holding the document lock.
func (r *reconciler) SaveAsVersion(ctx context.Context, doc *models.Document, requesterID, text string) (*models.Version, error) {
	if err := auth.CheckOwner(doc, requesterID); err != nil {
		return nil, err
	}

	version := &models.Version{
		DocumentID: doc.ID,
		Text:       text,
	}

	var dropped int64
	err := r.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := r.docRepo.LockForUpdate(txCtx, doc.ID); err != nil {
			return err
		}

		version.CreatedAt = r.clock().UTC()
		if err := r.versionRepo.Create(txCtx, version); err != nil {
			return err
		}

		var err error
		dropped, err = r.particleRepo.DeleteByDocument(txCtx, doc.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("save version: %w", err)
	}

	r.logger.Info("version saved",
		"id", version.ID,
		"document_id", doc.ID,
		"particle_dropped", dropped > 0,
	)

	return version, nil
}

// SaveAsParticle overwrites the document's particle, creating it if needed.
// Text equal to the resolved text after trimming is not written.
func (r *reconciler) SaveAsParticle(ctx context.Context, doc *models.Document, requesterID, text string) (models.SaveOutcome, error) {
	if err := auth.CheckOwner(doc, requesterID); err != nil {
		return "", err
	}

	var outcome models.SaveOutcome
	var particleID string
	err := r.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := r.docRepo.LockForUpdate(txCtx, doc.ID); err != nil {
			return err
		}

		resolved, err := r.store.ResolveText(txCtx, doc)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == strings.TrimSpace(resolved) {
			outcome = models.OutcomeNotModified
			return nil
		}

		now := r.clock().UTC()
		particle, err := r.particleRepo.GetByDocument(txCtx, doc.ID)
		switch {
		case err == nil:
			particle.Text = text
			particle.UpdatedAt = now
			if err := r.particleRepo.Update(txCtx, particle); err != nil {
				return err
			}
			outcome = models.OutcomeUpdated
		case isNotFound(err):
			particle = &models.Particle{
				DocumentID: doc.ID,
				Text:       text,
				UpdatedAt:  now,
			}
			if err := r.particleRepo.Create(txCtx, particle); err != nil {
				return err
			}
			outcome = models.OutcomeCreated
		default:
			return err
		}

		particleID = particle.ID
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("save particle: %w", err)
	}

	if outcome == models.OutcomeNotModified {
		r.logger.Debug("particle unchanged", "document_id", doc.ID)
	} else {
		r.logger.Info("particle saved",
			"id", particleID,
			"document_id", doc.ID,
			"outcome", outcome,
		)
	}

	return outcome, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
