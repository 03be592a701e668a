// Package sanitizer strips unsafe markup from HTML before it is stored or
// rendered into a print page.
package sanitizer

import (
	"github.com/microcosm-cc/bluemonday"
)

// HTMLSanitizer removes dangerous HTML elements and attributes.
//
// Thread-safe for concurrent use.
type HTMLSanitizer struct {
	policy *bluemonday.Policy
}

// NewHTMLSanitizer creates a sanitizer from the UGC policy: common formatting,
// headings, lists, tables, links and code survive; scripts, event handlers and
// javascript: URLs do not. The dir attribute is kept so right-to-left
// fragments render correctly on paper.
func NewHTMLSanitizer() *HTMLSanitizer {
	policy := bluemonday.UGCPolicy()
	policy.AllowDataURIImages()
	policy.AllowAttrs("dir").Matching(bluemonday.Direction).Globally()

	return &HTMLSanitizer{policy: policy}
}

// Sanitize removes dangerous HTML while preserving safe content.
func (s *HTMLSanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
