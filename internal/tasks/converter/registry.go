package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"scribe/internal/domain"
)

// Registry manages content converters and routes files by extension.
//
// Thread-safe for concurrent access.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]ContentConverter // key: file extension (e.g., ".html")
}

// NewRegistry creates a registry with the standard converters pre-registered.
func NewRegistry() *Registry {
	registry := &Registry{
		converters: make(map[string]ContentConverter),
	}

	registry.Register(NewMarkdownConverter())
	registry.Register(NewTextConverter())
	registry.Register(NewHTMLConverter())

	return registry
}

// Register associates a converter with its supported extensions.
// Extensions are normalized to lowercase with a leading dot.
func (r *Registry) Register(converter ContentConverter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range converter.SupportedExtensions() {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.converters[ext] = converter
	}
}

// Get returns the converter for an extension, or nil.
func (r *Registry) Get(fileExt string) ContentConverter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.converters[strings.ToLower(fileExt)]
}

// Convert picks a converter by the extension of filename and runs it.
func (r *Registry) Convert(ctx context.Context, filename string, content []byte) (string, error) {
	ext := filepath.Ext(filename)
	converter := r.Get(ext)
	if converter == nil {
		return "", &domain.ValidationError{Message: fmt.Sprintf("unsupported file type: %q", ext)}
	}

	return converter.Convert(ctx, content)
}

// SupportedExtensions returns all registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.converters))
	for ext := range r.converters {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
