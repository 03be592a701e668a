// Package converter turns task statement files into markdown, routing by
// file extension.
package converter

import "context"

// ContentConverter converts file content to markdown.
// Implementations should be stateless and thread-safe.
type ContentConverter interface {
	// Convert transforms input content to markdown.
	Convert(ctx context.Context, input []byte) (markdown string, err error)

	// SupportedExtensions returns file extensions this converter handles,
	// including the leading dot (e.g., [".html", ".htm"]).
	SupportedExtensions() []string

	// Name returns a human-readable converter name for logging.
	Name() string
}
