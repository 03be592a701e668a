package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scribe/internal/domain"
	authmodels "scribe/internal/domain/models"
	models "scribe/internal/domain/models/translation"
	"scribe/internal/domain/repositories"
	transRepo "scribe/internal/domain/repositories/translation"
	"scribe/internal/domain/services"
	transSvc "scribe/internal/domain/services/translation"
	"scribe/internal/tasks"
)

// contentStore implements the ContentStore interface
type contentStore struct {
	docRepo      transRepo.DocumentRepository
	versionRepo  transRepo.VersionRepository
	particleRepo transRepo.ParticleRepository
	txManager    repositories.TransactionManager
	tasks        tasks.Source
	authorizer   services.ResourceAuthorizer
	clock        func() time.Time
	logger       *slog.Logger
}

// NewContentStore creates a new content store
func NewContentStore(
	docRepo transRepo.DocumentRepository,
	versionRepo transRepo.VersionRepository,
	particleRepo transRepo.ParticleRepository,
	txManager repositories.TransactionManager,
	taskSource tasks.Source,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) transSvc.ContentStore {
	return &contentStore{
		docRepo:      docRepo,
		versionRepo:  versionRepo,
		particleRepo: particleRepo,
		txManager:    txManager,
		tasks:        taskSource,
		authorizer:   authorizer,
		clock:        time.Now,
		logger:       logger,
	}
}

// GetOrCreateDocument returns the owner's document for taskID. The first call
// creates it and seeds a version from the task's current text in the same
// transaction, so resolving text never comes up empty afterwards.
func (s *contentStore) GetOrCreateDocument(ctx context.Context, owner authmodels.Identity, taskID string) (*models.Document, error) {
	if owner.UserID == "" {
		return nil, fmt.Errorf("owner: %w", domain.ErrUnauthorized)
	}

	task, err := s.visibleTask(ctx, owner, taskID)
	if err != nil {
		return nil, err
	}

	doc, err := s.docRepo.GetByOwnerAndTask(ctx, owner.UserID, task.ID)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	sourceText, err := s.tasks.CurrentText(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("load source text: %w", err)
	}

	now := s.clock().UTC()
	doc = &models.Document{
		OwnerID:     owner.UserID,
		OwnerName:   owner.Username,
		TaskID:      task.ID,
		LanguageTag: owner.Language.Code,
		RTL:         owner.Language.IsRTL(),
		CreatedAt:   now,
	}

	var created bool
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.docRepo.CreateIfNotExists(txCtx, doc)
		if err != nil {
			return err
		}
		if !created {
			// Another request created it first and seeded it
			return nil
		}

		return s.versionRepo.Create(txCtx, &models.Version{
			DocumentID: doc.ID,
			Text:       sourceText,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if created {
		s.logger.Info("document created",
			"id", doc.ID,
			"owner_id", doc.OwnerID,
			"task_id", doc.TaskID,
			"language", doc.LanguageTag,
		)
	}

	return doc, nil
}

// GetDocument returns the owner's document without creating it
func (s *contentStore) GetDocument(ctx context.Context, owner authmodels.Identity, taskID string) (*models.Document, error) {
	task, err := s.visibleTask(ctx, owner, taskID)
	if err != nil {
		return nil, err
	}
	return s.docRepo.GetByOwnerAndTask(ctx, owner.UserID, task.ID)
}

// GetDocumentByOwnerName finds a document by its owner's username
func (s *contentStore) GetDocumentByOwnerName(ctx context.Context, requester authmodels.Identity, ownerName, taskID string) (*models.Document, error) {
	if ownerName != requester.Username && !requester.IsEditor() {
		return nil, fmt.Errorf("document of %s: %w", ownerName, domain.ErrForbidden)
	}

	task, err := s.visibleTask(ctx, requester, taskID)
	if err != nil {
		return nil, err
	}
	return s.docRepo.GetByOwnerNameAndTask(ctx, ownerName, task.ID)
}

// visibleTask hides unpublished tasks from non-editors behind NotFound
func (s *contentStore) visibleTask(ctx context.Context, owner authmodels.Identity, taskID string) (*tasks.Task, error) {
	task, err := s.tasks.Task(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(owner) {
		return nil, fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}
	return task, nil
}

// ResolveText returns the particle text if one exists, else the latest version text
func (s *contentStore) ResolveText(ctx context.Context, doc *models.Document) (string, error) {
	particle, err := s.particleRepo.GetByDocument(ctx, doc.ID)
	if err == nil {
		return particle.Text, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	version, err := s.versionRepo.Latest(ctx, doc.ID)
	if err != nil {
		return "", err
	}
	return version.Text, nil
}

// ListVersions lists version summaries ordered by (created_at, insertion order)
func (s *contentStore) ListVersions(ctx context.Context, doc *models.Document, order models.Order) ([]models.RevisionSummary, error) {
	versions, err := s.versionRepo.ListByDocument(ctx, doc.ID, order)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.RevisionSummary, 0, len(versions))
	for i := range versions {
		summaries = append(summaries, versions[i].Summary())
	}
	return summaries, nil
}

// CurrentParticle returns the live particle summary, or nil
func (s *contentStore) CurrentParticle(ctx context.Context, doc *models.Document) (*models.RevisionSummary, error) {
	particle, err := s.particleRepo.GetByDocument(ctx, doc.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	summary := particle.Summary()
	return &summary, nil
}

// ReadVersionText returns a version's text after the ownership check
func (s *contentStore) ReadVersionText(ctx context.Context, versionID, requesterID string) (string, error) {
	version, err := s.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		return "", err
	}
	return s.readRevision(ctx, version, requesterID)
}

// ReadParticleText returns a particle's text after the ownership check
func (s *contentStore) ReadParticleText(ctx context.Context, particleID, requesterID string) (string, error) {
	particle, err := s.particleRepo.GetByID(ctx, particleID)
	if err != nil {
		return "", err
	}
	return s.readRevision(ctx, particle, requesterID)
}

func (s *contentStore) readRevision(ctx context.Context, rev models.Revision, requesterID string) (string, error) {
	if err := s.authorizer.CanAccessRevision(ctx, requesterID, rev); err != nil {
		return "", err
	}
	return rev.RevisionText(), nil
}
