package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the catalog whenever its file is written or replaced, until
// ctx is cancelled. The parent directory is watched so editors that save via
// rename are picked up too.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(c.path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			c.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if c.logger != nil {
				c.logger.Warn("task catalog watcher error", "error", err)
			}
		}
	}
}

// handleEvent reloads on catalog writes and creates. It reports whether a
// reload was attempted.
func (c *Catalog) handleEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != c.path {
		return false
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}

	if err := c.Reload(); err != nil && c.logger != nil {
		c.logger.Error("task catalog reload failed, keeping previous catalog", "error", err)
	}
	return true
}

func sortTasks(tasks []Task) {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
}
