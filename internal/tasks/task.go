// Package tasks is the source-task collaborator: it knows which tasks exist,
// whether they are published, and what their current and published statement
// texts are.
package tasks

import (
	"context"

	"scribe/internal/domain/models"
)

// Contest groups tasks; its slug is the first path segment of every artifact.
type Contest struct {
	Slug  string `yaml:"slug" json:"slug"`
	Title string `yaml:"title" json:"title"`
}

// Task is a source document translators work from.
type Task struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"` // short name used in file paths
	Title     string  `json:"title"`
	Published bool    `json:"published"`
	Contest   Contest `json:"contest"`

	sourcePath   string
	releasedPath string
}

// VisibleTo reports whether the requester may see the task.
// Unpublished tasks are visible to editors only.
func (t *Task) VisibleTo(id models.Identity) bool {
	return t.Published || id.IsEditor()
}

// Source exposes tasks and their texts.
type Source interface {
	// Task returns the task with the given id (ErrNotFound if unknown)
	Task(ctx context.Context, id string) (*Task, error)

	// CurrentText returns the statement translators start from
	CurrentText(ctx context.Context, id string) (string, error)

	// PublishedText returns the released statement
	PublishedText(ctx context.Context, id string) (string, error)
}
