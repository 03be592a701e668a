package converter

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"scribe/internal/sanitizer"
)

// htmlConverter handles statements exported from the contest wiki as HTML.
// Markup is sanitized before conversion; sample blocks become fenced code so
// the page renderer keeps their whitespace.
type htmlConverter struct {
	sanitizer *sanitizer.HTMLSanitizer
	converter *md.Converter
}

// NewHTMLConverter creates the HTML statement converter.
func NewHTMLConverter() ContentConverter {
	return &htmlConverter{
		sanitizer: sanitizer.NewHTMLSanitizer(),
		converter: md.NewConverter("", true, &md.Options{
			HeadingStyle:     "atx",
			CodeBlockStyle:   "fenced",
			Fence:            "```",
			BulletListMarker: "-",
		}),
	}
}

func (c *htmlConverter) Convert(ctx context.Context, input []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	markdown, err := c.converter.ConvertString(c.sanitizer.Sanitize(string(input)))
	if err != nil {
		return "", fmt.Errorf("convert statement html: %w", err)
	}
	return strings.TrimSpace(markdown) + "\n", nil
}

func (c *htmlConverter) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}

func (c *htmlConverter) Name() string {
	return "html"
}
