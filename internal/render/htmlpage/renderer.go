// Package htmlpage turns stored translation text into the printable HTML page
// handed to the rasterizer.
package htmlpage

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"scribe/internal/domain"
	"scribe/internal/domain/models/translation"
	"scribe/internal/sanitizer"
)

//go:embed templates/page.html.tmpl
var templateFS embed.FS

// Page is the input to one render.
type Page struct {
	Title     string
	Direction string // "rtl" or "ltr"
	Lang      string // BCP 47 tag for the lang attribute, may be empty
	Text      string // markdown
}

// Renderer converts markdown to a sanitized, self-contained HTML page.
// Safe for concurrent use.
type Renderer struct {
	markdown  goldmark.Markdown
	sanitizer *sanitizer.HTMLSanitizer
	page      *template.Template
}

// NewRenderer creates a renderer with GFM enabled.
func NewRenderer() (*Renderer, error) {
	page, err := template.ParseFS(templateFS, "templates/page.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// Raw HTML passes through goldmark and is cleaned by the sanitizer
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		sanitizer: sanitizer.NewHTMLSanitizer(),
		page:      page,
	}, nil
}

// Render expands the page text and wraps it in the print template.
func (r *Renderer) Render(p Page) (string, error) {
	if p.Direction != translation.DirectionRTL && p.Direction != translation.DirectionLTR {
		return "", &domain.ValidationError{Message: fmt.Sprintf("invalid text direction %q", p.Direction)}
	}

	var body bytes.Buffer
	if err := r.markdown.Convert([]byte(p.Text), &body); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	var out bytes.Buffer
	err := r.page.Execute(&out, struct {
		Title     string
		Direction string
		Lang      string
		Body      template.HTML
	}{
		Title:     p.Title,
		Direction: p.Direction,
		Lang:      p.Lang,
		Body:      template.HTML(r.sanitizer.Sanitize(body.String())),
	})
	if err != nil {
		return "", fmt.Errorf("execute page template: %w", err)
	}

	return out.String(), nil
}
