// Package chromium rasterizes HTML pages to PDF with a headless Chromium
// driven over the DevTools protocol.
package chromium

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"

	"scribe/internal/domain"
)

// Paper sizes in inches.
var (
	PaperLetter = Paper{Width: 8.5, Height: 11}
	PaperA4     = Paper{Width: 8.27, Height: 11.69}
)

// Paper is a page size in inches.
type Paper struct {
	Width  float64
	Height float64
}

// PaperByName maps a configured paper name to its size.
func PaperByName(name string) (Paper, bool) {
	switch name {
	case "letter", "Letter":
		return PaperLetter, true
	case "a4", "A4":
		return PaperA4, true
	}
	return Paper{}, false
}

// Options configures the rasterizer.
type Options struct {
	Bin       string        // browser binary; empty lets rod find or download one
	NoSandbox bool          // required when running as root in containers
	Timeout   time.Duration // bounds launch, navigation and PDF emission
	JSDelay   time.Duration // wait after load for scripts (math, fonts) to settle
	Paper     Paper
	Margin    float64 // inches, all sides
	Scale     float64
	TempDir   string // staging directory for HTML files
}

// Rasterizer renders HTML to PDF. Each call launches its own browser.
type Rasterizer struct {
	opts   Options
	logger *slog.Logger
}

// NewRasterizer creates a rasterizer. Zero options fall back to Letter paper,
// 0.75in margins, scale 1 and a one minute timeout.
func NewRasterizer(opts Options, logger *slog.Logger) *Rasterizer {
	if opts.Paper == (Paper{}) {
		opts.Paper = PaperLetter
	}
	if opts.Margin == 0 {
		opts.Margin = 0.75
	}
	if opts.Scale == 0 {
		opts.Scale = 1
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Minute
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return &Rasterizer{opts: opts, logger: logger}
}

// Rasterize writes html to a private staging file, prints it to PDF at
// outputPath and removes the staging file on every exit path. The browser is
// killed when the timeout or ctx ends.
func (r *Rasterizer) Rasterize(ctx context.Context, html, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	htmlPath, err := r.stage(html)
	if err != nil {
		return &domain.RenderEngineError{Op: "stage", Err: err}
	}
	defer os.Remove(htmlPath)

	l := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(r.opts.NoSandbox)
	if r.opts.Bin != "" {
		l = l.Bin(r.opts.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return &domain.RenderEngineError{Op: "launch", Err: err}
	}
	// Cleanup waits for the process to exit, so it only runs after a launch
	defer func() {
		l.Kill()
		l.Cleanup()
	}()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return &domain.RenderEngineError{Op: "connect", Err: err}
	}
	defer browser.Close()

	pageURL := (&url.URL{Scheme: "file", Path: htmlPath}).String()
	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return &domain.RenderEngineError{Op: "navigate", Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return &domain.RenderEngineError{Op: "navigate", Err: err}
	}

	if r.opts.JSDelay > 0 {
		select {
		case <-time.After(r.opts.JSDelay):
		case <-ctx.Done():
			return &domain.RenderEngineError{Op: "navigate", Err: ctx.Err()}
		}
	}

	margin := r.opts.Margin
	stream, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      &r.opts.Paper.Width,
		PaperHeight:     &r.opts.Paper.Height,
		MarginTop:       &margin,
		MarginBottom:    &margin,
		MarginLeft:      &margin,
		MarginRight:     &margin,
		Scale:           &r.opts.Scale,
		PrintBackground: true,
	})
	if err != nil {
		return &domain.RenderEngineError{Op: "print", Err: err}
	}

	if err := writeOutput(outputPath, stream); err != nil {
		return &domain.RenderEngineError{Op: "write", Err: err}
	}

	if r.logger != nil {
		r.logger.Debug("html rasterized", "output", outputPath)
	}
	return nil
}

// stage writes html to a uniquely named 0600 file in the temp dir.
func (r *Rasterizer) stage(html string) (string, error) {
	if err := os.MkdirAll(r.opts.TempDir, 0o700); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	path := filepath.Join(r.opts.TempDir, uuid.NewString()+".html")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}
	if _, err := io.WriteString(f, html); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write staging file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close staging file: %w", err)
	}
	return path, nil
}

// writeOutput copies the PDF stream to path, removing a partial file on error.
func writeOutput(path string, src io.Reader) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if _, err := io.Copy(f, src); err != nil {
		return fmt.Errorf("copy pdf stream: %w", err)
	}
	return nil
}
