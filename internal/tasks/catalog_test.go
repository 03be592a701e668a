package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe/internal/domain"
	"scribe/internal/domain/models"
	"scribe/internal/tasks/converter"
)

const testCatalog = `
contests:
  - slug: ioi2024
    title: IOI 2024
    tasks:
      - name: nile
        title: Nile
        published: true
        source: nile.md
        released: nile-released.md
      - name: hieroglyphs
        source: hieroglyphs.html
      - id: custom
        name: mosaic
        published: true
        source: mosaic.txt
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setupCatalog(t *testing.T) (*Catalog, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "nile.md", "# Nile\n\nCount the boats.")
	writeFile(t, dir, "nile-released.md", "# Nile\n\nFinal statement.")
	writeFile(t, dir, "hieroglyphs.html", "<h1>Hieroglyphs</h1><script>x()</script>")
	writeFile(t, dir, "mosaic.txt", "---\ntitle: Ignored\n---\nTiles.")
	path := writeFile(t, dir, "catalog.yaml", testCatalog)

	catalog, err := NewCatalog(path, converter.NewRegistry(), nil)
	require.NoError(t, err)
	return catalog, dir
}

func TestCatalog_Task(t *testing.T) {
	catalog, _ := setupCatalog(t)
	ctx := context.Background()

	task, err := catalog.Task(ctx, "ioi2024-nile")
	require.NoError(t, err)
	assert.Equal(t, "nile", task.Name)
	assert.Equal(t, "Nile", task.Title)
	assert.Equal(t, Contest{Slug: "ioi2024", Title: "IOI 2024"}, task.Contest)
	assert.True(t, task.Published)

	custom, err := catalog.Task(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, "mosaic", custom.Name)
	assert.Equal(t, "Ignored", custom.Title, "title falls back to statement frontmatter")

	hiero, err := catalog.Task(ctx, "ioi2024-hieroglyphs")
	require.NoError(t, err)
	assert.Equal(t, "hieroglyphs", hiero.Title, "title falls back to name")

	_, err = catalog.Task(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	assert.Len(t, catalog.List(), 3)
}

func TestCatalog_Texts(t *testing.T) {
	catalog, _ := setupCatalog(t)
	ctx := context.Background()

	current, err := catalog.CurrentText(ctx, "ioi2024-nile")
	require.NoError(t, err)
	assert.Equal(t, "# Nile\n\nCount the boats.", current)

	published, err := catalog.PublishedText(ctx, "ioi2024-nile")
	require.NoError(t, err)
	assert.Contains(t, published, "Final statement.")

	html, err := catalog.CurrentText(ctx, "ioi2024-hieroglyphs")
	require.NoError(t, err)
	assert.Contains(t, html, "Hieroglyphs")
	assert.NotContains(t, html, "x()")

	stripped, err := catalog.CurrentText(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, "Tiles.", stripped)

	releasedDefault, err := catalog.PublishedText(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, "Tiles.", releasedDefault)
}

func TestCatalog_MissingStatementIsNotFound(t *testing.T) {
	catalog, dir := setupCatalog(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "nile.md")))

	_, err := catalog.CurrentText(context.Background(), "ioi2024-nile")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCatalog_ReloadKeepsPreviousOnError(t *testing.T) {
	catalog, dir := setupCatalog(t)

	writeFile(t, dir, "catalog.yaml", "contests: [: broken")
	require.Error(t, catalog.Reload())

	_, err := catalog.Task(context.Background(), "ioi2024-nile")
	assert.NoError(t, err)
}

func TestCatalog_RejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		catalog string
	}{
		{"name with separator", "contests:\n  - slug: c\n    tasks:\n      - name: a/b\n        source: x.md\n"},
		{"missing source", "contests:\n  - slug: c\n    tasks:\n      - name: a\n"},
		{"bad slug", "contests:\n  - slug: ..\n    tasks: []\n"},
		{"duplicate id", "contests:\n  - slug: c\n    tasks:\n      - {name: a, source: x.md}\n      - {name: a, source: y.md}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, "catalog.yaml", tt.catalog)
			_, err := NewCatalog(path, converter.NewRegistry(), nil)
			assert.Error(t, err)
		})
	}
}

func TestCatalog_HandleEvent(t *testing.T) {
	catalog, dir := setupCatalog(t)
	other := filepath.Join(dir, "nile.md")

	tests := []struct {
		name   string
		event  fsnotify.Event
		reload bool
	}{
		{"catalog write", fsnotify.Event{Name: catalog.Path(), Op: fsnotify.Write}, true},
		{"catalog create", fsnotify.Event{Name: catalog.Path(), Op: fsnotify.Create}, true},
		{"catalog chmod", fsnotify.Event{Name: catalog.Path(), Op: fsnotify.Chmod}, false},
		{"other file write", fsnotify.Event{Name: other, Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.reload, catalog.handleEvent(tt.event))
		})
	}
}

func TestCatalog_WatchPicksUpChanges(t *testing.T) {
	catalog, dir := setupCatalog(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- catalog.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	updated := strings.Replace(testCatalog, "title: Nile", "title: Nile River", 1)

	require.Eventually(t, func() bool {
		// Rewrite until the watcher is attached and has reloaded.
		writeFile(t, dir, "catalog.yaml", updated)
		task, err := catalog.Task(context.Background(), "ioi2024-nile")
		return err == nil && task.Title == "Nile River"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestTask_VisibleTo(t *testing.T) {
	published := &Task{Published: true}
	draft := &Task{Published: false}
	translator := models.Identity{UserID: "u1"}
	editor := models.Identity{UserID: "e1", Editor: true}

	assert.True(t, published.VisibleTo(translator))
	assert.False(t, draft.VisibleTo(translator))
	assert.True(t, draft.VisibleTo(editor))
}
