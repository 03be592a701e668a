// Package artifacts decides where exported PDFs and markdown files live under
// the media root.
package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"scribe/internal/config"
	"scribe/internal/domain"
)

// Kind selects which artifact a path is for.
type Kind string

const (
	KindDraftTask     Kind = "task"     // per-user draft of the translation
	KindDraftReleased Kind = "released" // per-user render of the published statement
	KindFinalPDF      Kind = "final_pdf"
	KindFinalMarkdown Kind = "final_markdown"
)

// Layout builds deterministic artifact paths, where {username} is the
// owner's username:
//
//	{media}/output/{contest}/{task}/task/{task}-{username}.pdf
//	{media}/output/{contest}/{task}/released/{task}-{username}.pdf
//	{media}/final/pdf/{contest}/{task}/{task}-{username}.pdf
//	{media}/final/pdf/{contest}/{task}.pdf             (canonical owner)
//	{media}/final/markdown/...                         (same shapes, .md)
type Layout struct {
	mediaRoot      string
	canonicalOwner string
}

// NewLayout creates a layout rooted at mediaRoot. Paths built for
// canonicalOwner collapse to the shared final artifact.
func NewLayout(mediaRoot, canonicalOwner string) *Layout {
	return &Layout{mediaRoot: mediaRoot, canonicalOwner: canonicalOwner}
}

// CanonicalOwner returns the username whose final artifacts are shared.
func (l *Layout) CanonicalOwner() string {
	return l.canonicalOwner
}

// BuildStoragePath returns the artifact path and creates its directory.
func (l *Layout) BuildStoragePath(scope, taskName string, kind Kind, username string) (string, error) {
	path, err := l.Path(scope, taskName, kind, username)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}
	return path, nil
}

// Path returns the artifact path without touching the filesystem.
func (l *Layout) Path(scope, taskName string, kind Kind, username string) (string, error) {
	if err := validateSegments(scope, taskName, username); err != nil {
		return "", err
	}

	fileName := taskName + "-" + username
	switch kind {
	case KindDraftTask, KindDraftReleased:
		return filepath.Join(l.mediaRoot, "output", scope, taskName, string(kind), fileName+".pdf"), nil
	case KindFinalPDF:
		return l.finalPath("pdf", ".pdf", scope, taskName, username), nil
	case KindFinalMarkdown:
		return l.finalPath("markdown", ".md", scope, taskName, username), nil
	default:
		return "", &domain.ValidationError{Message: fmt.Sprintf("unknown artifact kind %q", kind)}
	}
}

func (l *Layout) finalPath(format, ext, scope, taskName, username string) string {
	if username == l.canonicalOwner {
		return filepath.Join(l.mediaRoot, "final", format, scope, taskName+ext)
	}
	return filepath.Join(l.mediaRoot, "final", format, scope, taskName, taskName+"-"+username+ext)
}

var segmentRules = []validation.Rule{
	validation.Required,
	validation.Length(1, config.MaxPathSegmentLength),
	validation.By(singleSegment),
}

func validateSegments(scope, taskName, username string) error {
	err := validation.Errors{
		"scope":    validation.Validate(scope, segmentRules...),
		"task":     validation.Validate(taskName, segmentRules...),
		"username": validation.Validate(username, segmentRules...),
	}.Filter()
	if err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid artifact path: %v", err)}
	}
	return nil
}

func singleSegment(value interface{}) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, `/\`) || s == "." || s == ".." || strings.ContainsRune(s, 0) {
		return errors.New("must be a single path segment")
	}
	return nil
}
