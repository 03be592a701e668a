package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"scribe/internal/artifacts"
	"scribe/internal/config"
	"scribe/internal/domain"
	"scribe/internal/domain/models"
	"scribe/internal/httputil"
	"scribe/internal/service/export"
	"scribe/internal/service/printing"
)

// Exporter renders translations to PDF
type Exporter interface {
	Export(ctx context.Context, req export.ExportRequest) (*export.Artifact, error)
	Preview(ctx context.Context, requester models.Identity, taskID string) (string, error)
	Finalize(ctx context.Context, requester models.Identity, taskID, owner string) (*export.FinalArtifacts, error)
}

// PrintSubmitter sends a PDF to the print service
type PrintSubmitter interface {
	Submit(ctx context.Context, req printing.SubmitRequest) error
}

// ExportHandler handles preview, PDF, print and finalize requests
type ExportHandler struct {
	exporter Exporter
	printer  PrintSubmitter
	clock    func() time.Time
	logger   *slog.Logger
}

// NewExportHandler creates a new export handler. A nil printer disables the
// print endpoint.
func NewExportHandler(exporter Exporter, printer PrintSubmitter, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		exporter: exporter,
		printer:  printer,
		clock:    time.Now,
		logger:   logger,
	}
}

// PrintRequest is the body of the print endpoint
type PrintRequest struct {
	Copies    int  `json:"copies"`
	CoverPage bool `json:"cover_page"`
}

// Validate checks the copy count
func (r PrintRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Copies, validation.Required, validation.Min(1), validation.Max(config.MaxPrintCopies)),
	)
}

// ExportResponse describes a stored artifact without exposing server paths
type ExportResponse struct {
	Title    string `json:"title"`
	Pages    int    `json:"pages"`
	Degraded bool   `json:"degraded"`
}

// Preview returns the rendered HTML page
// GET /api/tasks/{taskID}/translation/preview
func (h *ExportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	html, err := h.exporter.Preview(r.Context(), id, r.PathValue("taskID"))
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, html)
}

// GetPDF renders and returns the translation PDF (?kind=released for the
// published statement)
// GET /api/tasks/{taskID}/translation/pdf
func (h *ExportHandler) GetPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	kind := artifacts.KindDraftTask
	if r.URL.Query().Get("kind") == string(artifacts.KindDraftReleased) {
		kind = artifacts.KindDraftReleased
	}

	artifact, err := h.exporter.Export(r.Context(), export.ExportRequest{
		Requester: id,
		TaskID:    r.PathValue("taskID"),
		Kind:      kind,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	f, err := os.Open(artifact.Path)
	if err != nil {
		handleError(w, fmt.Errorf("open exported pdf: %w", err))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{
		"filename": artifact.Title + ".pdf",
	}))
	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Warn("pdf response interrupted", "error", err)
	}
}

// Print exports the translation with an info line and sends it to the
// print service
// POST /api/tasks/{taskID}/translation/print
func (h *ExportHandler) Print(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if h.printer == nil {
		httputil.RespondError(w, http.StatusServiceUnavailable, "printing is not configured")
		return
	}

	var req PrintRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		handleError(w, &domain.ValidationError{Message: err.Error()})
		return
	}

	artifact, err := h.exporter.Export(r.Context(), export.ExportRequest{
		Requester: id,
		TaskID:    r.PathValue("taskID"),
		Kind:      artifacts.KindDraftTask,
		InfoLine:  h.infoLine(id),
	})
	if err != nil {
		handleError(w, err)
		return
	}
	defer artifact.Discard()

	err = h.printer.Submit(r.Context(), printing.SubmitRequest{
		PDFPath:     artifact.PrintPath(),
		CountryCode: id.Country.Code,
		CountryName: id.Country.Name,
		CoverPage:   req.CoverPage,
		Copies:      req.Copies,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusAccepted, ExportResponse{
		Title:    artifact.Title,
		Pages:    artifact.Pages,
		Degraded: artifact.Degraded,
	})
}

// Finalize stores the final PDF and markdown. Editors may pass ?user=<username> to
// finalize another owner's translation.
// POST /api/tasks/{taskID}/translation/finalize
func (h *ExportHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	final, err := h.exporter.Finalize(r.Context(), id, r.PathValue("taskID"), r.URL.Query().Get("user"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, ExportResponse{
		Title:    final.PDF.Title,
		Pages:    final.PDF.Pages,
		Degraded: final.PDF.Degraded,
	})
}

// infoLine identifies the printout for the print desk
func (h *ExportHandler) infoLine(id models.Identity) string {
	return fmt.Sprintf("%s  %s  %s", id.Country.Code, id.Username, h.clock().UTC().Format("2006-01-02 15:04"))
}
