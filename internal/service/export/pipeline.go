// Package export renders translations to print-ready PDFs.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"scribe/internal/artifacts"
	"scribe/internal/domain"
	authmodels "scribe/internal/domain/models"
	models "scribe/internal/domain/models/translation"
	transSvc "scribe/internal/domain/services/translation"
	"scribe/internal/render/htmlpage"
	"scribe/internal/render/pdfinfo"
	"scribe/internal/tasks"
)

// HTMLRenderer turns markdown into the printable page.
type HTMLRenderer interface {
	Render(p htmlpage.Page) (string, error)
}

// Rasterizer prints an HTML page to a PDF file.
type Rasterizer interface {
	Rasterize(ctx context.Context, html, outputPath string) error
}

// PdfAnnotator overlays text onto PDFs.
type PdfAnnotator interface {
	// StampPageNumbers rewrites pdfPath in place
	StampPageNumbers(ctx context.Context, pdfPath, label string) error
	// StampInfoLine writes an annotated copy and returns its path
	StampInfoLine(ctx context.Context, pdfPath, info string) (string, error)
}

// Policy tunes retries, degradation and concurrency.
type Policy struct {
	RasterizeAttempts    int           // total attempts for engine failures, at least 1
	RetryBackoff         time.Duration // first backoff, doubled after each attempt
	PageNumbersRequired  bool          // false accepts an unstamped PDF when stamping fails
	MaxConcurrentRenders int
	LaunchRate           float64 // engine launches per second, 0 means unlimited
}

// DefaultPolicy returns one attempt, required page numbers and two
// concurrent renders.
func DefaultPolicy() Policy {
	return Policy{
		RasterizeAttempts:    1,
		RetryBackoff:         500 * time.Millisecond,
		PageNumbersRequired:  true,
		MaxConcurrentRenders: 2,
	}
}

// ExportRequest selects what to render and for whom.
type ExportRequest struct {
	Requester authmodels.Identity
	TaskID    string
	Kind      artifacts.Kind // KindDraftTask, KindDraftReleased or KindFinalPDF
	Owner     string         // username whose translation to export; empty means the requester
	InfoLine  string         // optional second overlay, written to a separate file
}

// Artifact is a finished export.
type Artifact struct {
	Path      string // stored PDF with page numbers
	Annotated string // copy with the info line, empty when none was requested
	Title     string // "<task title>-<language>"
	Pages     int
	Degraded  bool // page numbers could not be stamped
}

// PrintPath returns the file to hand to the print service.
func (a *Artifact) PrintPath() string {
	if a.Annotated != "" {
		return a.Annotated
	}
	return a.Path
}

// Discard removes the annotated copy. The stored PDF is kept.
func (a *Artifact) Discard() {
	if a.Annotated != "" {
		os.Remove(a.Annotated)
	}
}

// Pipeline runs exports: resolve text, render HTML, rasterize, stamp.
type Pipeline struct {
	store      transSvc.ContentStore
	tasks      tasks.Source
	layout     *artifacts.Layout
	renderer   HTMLRenderer
	rasterizer Rasterizer
	annotator  PdfAnnotator
	pageCount  func(path string) (int, error)
	policy     Policy
	renders    *semaphore.Weighted
	launches   *rate.Limiter
	logger     *slog.Logger
}

// NewPipeline creates an export pipeline.
func NewPipeline(
	store transSvc.ContentStore,
	taskSource tasks.Source,
	layout *artifacts.Layout,
	renderer HTMLRenderer,
	rasterizer Rasterizer,
	annotator PdfAnnotator,
	policy Policy,
	logger *slog.Logger,
) *Pipeline {
	if policy.RasterizeAttempts < 1 {
		policy.RasterizeAttempts = 1
	}
	if policy.MaxConcurrentRenders < 1 {
		policy.MaxConcurrentRenders = 1
	}
	limit := rate.Inf
	if policy.LaunchRate > 0 {
		limit = rate.Limit(policy.LaunchRate)
	}

	return &Pipeline{
		store:      store,
		tasks:      taskSource,
		layout:     layout,
		renderer:   renderer,
		rasterizer: rasterizer,
		annotator:  annotator,
		pageCount:  pdfinfo.PageCount,
		policy:     policy,
		renders:    semaphore.NewWeighted(int64(policy.MaxConcurrentRenders)),
		launches:   rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// source is the resolved input of one export.
type source struct {
	task      *tasks.Task
	ownerName string
	text      string
	page      htmlpage.Page
}

// Preview renders the requester's current text to HTML without rasterizing.
func (p *Pipeline) Preview(ctx context.Context, requester authmodels.Identity, taskID string) (string, error) {
	src, err := p.resolve(ctx, ExportRequest{Requester: requester, TaskID: taskID, Kind: artifacts.KindDraftTask})
	if err != nil {
		return "", err
	}
	return p.renderer.Render(src.page)
}

// Export renders the request to its artifact path. On failure every file the
// request wrote is removed and the stored artifact from an earlier export, if
// any, is left untouched.
func (p *Pipeline) Export(ctx context.Context, req ExportRequest) (*Artifact, error) {
	logger := p.logger.With("task_id", req.TaskID, "kind", req.Kind, "requester", req.Requester.UserID)
	r := newRun(logger)

	artifact, err := p.resolveAndExport(ctx, r, req)
	if err != nil {
		r.fail(err)
		return nil, err
	}

	logger.Info("export finished",
		"path", artifact.Path,
		"pages", artifact.Pages,
		"degraded", artifact.Degraded,
	)
	return artifact, nil
}

func (p *Pipeline) resolveAndExport(ctx context.Context, r *run, req ExportRequest) (*Artifact, error) {
	src, err := p.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return p.export(ctx, r, req, src)
}

// export produces the PDF and, at Ready, moves it into place together with
// any companion files the caller staged.
func (p *Pipeline) export(ctx context.Context, r *run, req ExportRequest, src *source, companions ...pending) (_ *Artifact, err error) {
	finalPath, err := p.layout.BuildStoragePath(src.task.Contest.Slug, src.task.Name, req.Kind, src.ownerName)
	if err != nil {
		return nil, err
	}

	html, err := p.renderer.Render(src.page)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	if err := r.advance(StateTemplateRendered); err != nil {
		return nil, err
	}

	// Work on a sibling file and move it into place only once Ready
	workPath := filepath.Join(filepath.Dir(finalPath), "."+uuid.NewString()+".pdf")
	var written []string
	defer func() {
		if err != nil {
			for _, path := range written {
				os.Remove(path)
			}
		}
	}()

	written = append(written, workPath)
	if err := p.rasterize(ctx, html, workPath); err != nil {
		return nil, err
	}
	pages, err := p.pageCount(workPath)
	if err != nil {
		return nil, &domain.RenderEngineError{Op: "verify", Err: err}
	}
	if err := r.advance(StateRasterized); err != nil {
		return nil, err
	}

	artifact := &Artifact{Path: finalPath, Title: src.page.Title, Pages: pages}

	if err := p.annotator.StampPageNumbers(ctx, workPath, pageLabel(src.task.Name)); err != nil {
		if p.policy.PageNumbersRequired || !errors.Is(err, domain.ErrPostProcess) {
			return nil, err
		}
		// The stamp rewrites in place; a failed run may have left a broken file
		if _, verr := p.pageCount(workPath); verr != nil {
			return nil, err
		}
		r.logger.Warn("page numbers skipped", "error", err)
		artifact.Degraded = true
	}

	if req.InfoLine != "" {
		annotated, err := p.annotator.StampInfoLine(ctx, workPath, req.InfoLine)
		if err != nil {
			return nil, err
		}
		written = append(written, annotated)
		artifact.Annotated = annotated
	}
	if err := r.advance(StatePostProcessed); err != nil {
		return nil, err
	}

	files := append([]pending{{work: workPath, final: finalPath}}, companions...)
	if err := publish(files); err != nil {
		return nil, fmt.Errorf("store artifacts: %w", err)
	}
	if err := r.advance(StateReady); err != nil {
		return nil, err
	}

	return artifact, nil
}

// rasterize runs the engine under the concurrency limit, retrying engine
// failures with exponential backoff.
func (p *Pipeline) rasterize(ctx context.Context, html, outputPath string) error {
	if err := p.renders.Acquire(ctx, 1); err != nil {
		return &domain.RenderEngineError{Op: "queue", Err: err}
	}
	defer p.renders.Release(1)

	backoff := p.policy.RetryBackoff
	var err error
	for attempt := 1; attempt <= p.policy.RasterizeAttempts; attempt++ {
		if werr := p.launches.Wait(ctx); werr != nil {
			return &domain.RenderEngineError{Op: "queue", Err: werr}
		}

		err = p.rasterizer.Rasterize(ctx, html, outputPath)
		if err == nil || !errors.Is(err, domain.ErrRenderEngine) {
			return err
		}
		if attempt == p.policy.RasterizeAttempts {
			break
		}

		p.logger.Warn("rasterize attempt failed", "attempt", attempt, "error", err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return &domain.RenderEngineError{Op: "queue", Err: ctx.Err()}
		}
		backoff *= 2
	}
	return err
}

// resolve loads the task and the text to print. A missing task or document
// is NotFound; exports never create documents.
func (p *Pipeline) resolve(ctx context.Context, req ExportRequest) (*source, error) {
	requester := req.Requester
	if requester.UserID == "" || requester.Username == "" {
		return nil, fmt.Errorf("requester: %w", domain.ErrUnauthorized)
	}

	ownerName := requester.Username
	other := req.Owner != "" && req.Owner != requester.Username
	if other {
		if !requester.IsEditor() {
			return nil, fmt.Errorf("export for %s: %w", req.Owner, domain.ErrForbidden)
		}
		ownerName = req.Owner
	}

	task, err := p.tasks.Task(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(requester) {
		return nil, fmt.Errorf("task %s: %w", req.TaskID, domain.ErrNotFound)
	}

	src := &source{task: task, ownerName: ownerName}
	lang := requester.Language
	direction := models.DirectionLTR
	if lang.IsRTL() {
		direction = models.DirectionRTL
	}

	switch req.Kind {
	case artifacts.KindDraftReleased:
		src.text, err = p.tasks.PublishedText(ctx, task.ID)
		if err != nil {
			return nil, err
		}
	case artifacts.KindDraftTask, artifacts.KindFinalPDF:
		var doc *models.Document
		if other {
			doc, err = p.store.GetDocumentByOwnerName(ctx, requester, ownerName, task.ID)
		} else {
			doc, err = p.store.GetDocument(ctx, requester, task.ID)
		}
		if err != nil {
			return nil, err
		}
		src.text, err = p.store.ResolveText(ctx, doc)
		if err != nil {
			return nil, err
		}
		direction = doc.Direction()
		if other {
			lang = authmodels.Language{Name: doc.LanguageTag, Code: doc.LanguageTag}
		}
	default:
		return nil, &domain.ValidationError{Message: fmt.Sprintf("cannot export %s artifacts", req.Kind)}
	}

	src.page = htmlpage.Page{
		Title:     exportTitle(task, lang),
		Direction: direction,
		Lang:      lang.Code,
		Text:      src.text,
	}
	return src, nil
}

// pageLabel upper-cases the first letter of a task name and lower-cases the
// rest ("nile" and "NILE" both give "Nile").
func pageLabel(name string) string {
	first, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return name
	}
	return string(unicode.ToTitle(first)) + cases.Lower(language.Und).String(name[size:])
}

// exportTitle is "<task title>-<language name>", used for the page title and
// the download file name.
func exportTitle(task *tasks.Task, lang authmodels.Language) string {
	name := lang.Name
	if name == "" {
		name = lang.Code
	}
	if name == "" {
		return task.Title
	}
	return task.Title + "-" + name
}
