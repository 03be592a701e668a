package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"scribe/internal/config"
	"scribe/internal/domain"
	models "scribe/internal/domain/models/translation"
	transSvc "scribe/internal/domain/services/translation"
	"scribe/internal/httputil"
	"scribe/internal/tasks"
)

// TranslationHandler handles the editor's translation requests
type TranslationHandler struct {
	store      transSvc.ContentStore
	reconciler transSvc.Reconciler
	tasks      tasks.Source
	logger     *slog.Logger
}

// NewTranslationHandler creates a new translation handler
func NewTranslationHandler(
	store transSvc.ContentStore,
	reconciler transSvc.Reconciler,
	taskSource tasks.Source,
	logger *slog.Logger,
) *TranslationHandler {
	return &TranslationHandler{
		store:      store,
		reconciler: reconciler,
		tasks:      taskSource,
		logger:     logger,
	}
}

// TranslationResponse is the editor's view of a document
type TranslationResponse struct {
	Document  *models.Document `json:"document"`
	Task      *tasks.Task      `json:"task"`
	Content   string           `json:"content"`
	Source    string           `json:"source"`
	Direction string           `json:"direction"`
}

// VersionsResponse lists versions and the live particle
type VersionsResponse struct {
	Versions []models.RevisionSummary `json:"versions"`
	Particle *models.RevisionSummary  `json:"particle"`
}

// ParticleResponse reports an autosave
type ParticleResponse struct {
	Outcome models.SaveOutcome `json:"outcome"`
	Message string             `json:"message"`
}

// RevisionTextResponse carries the text of one revision
type RevisionTextResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// HealthCheck reports liveness
// GET /health
func (h *TranslationHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetTranslation returns the requester's document, creating it on first open
// GET /api/tasks/{taskID}/translation
func (h *TranslationHandler) GetTranslation(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	taskID := r.PathValue("taskID")

	doc, err := h.store.GetOrCreateDocument(r.Context(), id, taskID)
	if err != nil {
		handleError(w, err)
		return
	}

	content, err := h.store.ResolveText(r.Context(), doc)
	if err != nil {
		handleError(w, err)
		return
	}

	task, err := h.tasks.Task(r.Context(), doc.TaskID)
	if err != nil {
		handleError(w, err)
		return
	}
	source, err := h.tasks.CurrentText(r.Context(), doc.TaskID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, TranslationResponse{
		Document:  doc,
		Task:      task,
		Content:   content,
		Source:    source,
		Direction: doc.Direction(),
	})
}

// SaveVersion appends a version and clears the autosave
// POST /api/tasks/{taskID}/translation/versions
func (h *TranslationHandler) SaveVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	content, err := parseContent(w, r)
	if err != nil {
		handleError(w, err)
		return
	}

	doc, err := h.store.GetOrCreateDocument(r.Context(), id, r.PathValue("taskID"))
	if err != nil {
		handleError(w, err)
		return
	}

	version, err := h.reconciler.SaveAsVersion(r.Context(), doc, id.UserID, content)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, version.Summary())
}

// SaveParticle stores the autosave snapshot
// PUT /api/tasks/{taskID}/translation/particle
func (h *TranslationHandler) SaveParticle(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	content, err := parseContent(w, r)
	if err != nil {
		handleError(w, err)
		return
	}

	doc, err := h.store.GetOrCreateDocument(r.Context(), id, r.PathValue("taskID"))
	if err != nil {
		handleError(w, err)
		return
	}

	outcome, err := h.reconciler.SaveAsParticle(r.Context(), doc, id.UserID, content)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, ParticleResponse{Outcome: outcome, Message: outcome.Message()})
}

// ListVersions lists the document's versions and live particle
// GET /api/tasks/{taskID}/translation/versions?order=newest|oldest
func (h *TranslationHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	doc, err := h.store.GetDocument(r.Context(), id, r.PathValue("taskID"))
	if err != nil {
		handleError(w, err)
		return
	}

	versions, err := h.store.ListVersions(r.Context(), doc, models.ParseOrder(r.URL.Query().Get("order")))
	if err != nil {
		handleError(w, err)
		return
	}
	particle, err := h.store.CurrentParticle(r.Context(), doc)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, VersionsResponse{Versions: versions, Particle: particle})
}

// GetVersion returns a version's text to the document owner
// GET /api/versions/{id}
func (h *TranslationHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	versionID := r.PathValue("id")
	text, err := h.store.ReadVersionText(r.Context(), versionID, id.UserID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, RevisionTextResponse{ID: versionID, Text: text})
}

// GetParticle returns a particle's text to the document owner
// GET /api/particles/{id}
func (h *TranslationHandler) GetParticle(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	particleID := r.PathValue("id")
	text, err := h.store.ReadParticleText(r.Context(), particleID, id.UserID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, RevisionTextResponse{ID: particleID, Text: text})
}

// parseContent decodes and validates a save request body
func parseContent(w http.ResponseWriter, r *http.Request) (string, error) {
	var req transSvc.SaveContentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		return "", err
	}

	err := validation.ValidateStruct(&req,
		validation.Field(&req.Content, validation.NotNil, validation.Length(0, config.MaxContentLength)),
	)
	if err != nil {
		return "", &domain.ValidationError{Message: err.Error()}
	}
	return *req.Content, nil
}
