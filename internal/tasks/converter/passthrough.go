package converter

import "context"

// passthroughConverter returns content unchanged. Markdown is the stored
// format, and plain text is valid markdown.
type passthroughConverter struct {
	name       string
	extensions []string
}

// NewMarkdownConverter creates the markdown passthrough converter.
func NewMarkdownConverter() ContentConverter {
	return &passthroughConverter{name: "markdown", extensions: []string{".md", ".markdown"}}
}

// NewTextConverter creates the plain text passthrough converter.
func NewTextConverter() ContentConverter {
	return &passthroughConverter{name: "plaintext", extensions: []string{".txt", ".text"}}
}

func (c *passthroughConverter) Convert(ctx context.Context, input []byte) (string, error) {
	return string(input), nil
}

func (c *passthroughConverter) SupportedExtensions() []string {
	return c.extensions
}

func (c *passthroughConverter) Name() string {
	return c.name
}
