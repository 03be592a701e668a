package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"scribe/internal/domain"
	"scribe/internal/tasks/converter"
)

// catalogFile is the on-disk YAML layout:
//
//	contests:
//	  - slug: ioi2024
//	    title: IOI 2024
//	    tasks:
//	      - name: nile
//	        title: Nile
//	        published: true
//	        source: nile/statement.md
//	        released: nile/released.md
//
// Statement paths are relative to the catalog file.
type catalogFile struct {
	Contests []contestEntry `yaml:"contests"`
}

type contestEntry struct {
	Slug  string      `yaml:"slug"`
	Title string      `yaml:"title"`
	Tasks []taskEntry `yaml:"tasks"`
}

type taskEntry struct {
	ID        string `yaml:"id"` // defaults to "<contest slug>-<name>"
	Name      string `yaml:"name"`
	Title     string `yaml:"title"`
	Published bool   `yaml:"published"`
	Source    string `yaml:"source"`
	Released  string `yaml:"released"` // defaults to source
}

func (e taskEntry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.By(noPathSeparators)),
		validation.Field(&e.Source, validation.Required),
	)
}

func noPathSeparators(value interface{}) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
		return errors.New("must be a single path segment")
	}
	return nil
}

// Catalog is a Source backed by a YAML file. Statement files are read on
// every call, so edits to them show up without a reload.
type Catalog struct {
	path      string
	converter *converter.Registry
	logger    *slog.Logger

	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewCatalog loads the catalog at path.
func NewCatalog(path string, registry *converter.Registry, logger *slog.Logger) (*Catalog, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}

	c := &Catalog{
		path:      abs,
		converter: registry,
		logger:    logger,
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the absolute catalog file path.
func (c *Catalog) Path() string {
	return c.path
}

// Reload re-reads the catalog file. On error the previous tasks stay active.
func (c *Catalog) Reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read task catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse task catalog: %w", err)
	}

	base := filepath.Dir(c.path)
	loaded := make(map[string]*Task)

	for _, contest := range file.Contests {
		if err := noPathSeparators(contest.Slug); err != nil || contest.Slug == "" {
			return fmt.Errorf("contest %q: invalid slug", contest.Slug)
		}

		for _, entry := range contest.Tasks {
			if err := entry.Validate(); err != nil {
				return fmt.Errorf("contest %s task %q: %w", contest.Slug, entry.Name, err)
			}

			task := &Task{
				ID:           entry.ID,
				Name:         entry.Name,
				Title:        entry.Title,
				Published:    entry.Published,
				Contest:      Contest{Slug: contest.Slug, Title: contest.Title},
				sourcePath:   filepath.Join(base, entry.Source),
				releasedPath: filepath.Join(base, entry.Source),
			}
			if task.ID == "" {
				task.ID = contest.Slug + "-" + entry.Name
			}
			if entry.Released != "" {
				task.releasedPath = filepath.Join(base, entry.Released)
			}
			if task.Title == "" {
				task.Title = c.titleFromFrontmatter(task)
			}

			if _, dup := loaded[task.ID]; dup {
				return fmt.Errorf("duplicate task id %q", task.ID)
			}
			loaded[task.ID] = task
		}
	}

	c.mu.Lock()
	c.tasks = loaded
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Info("task catalog loaded", "path", c.path, "tasks", len(loaded))
	}
	return nil
}

func (c *Catalog) titleFromFrontmatter(task *Task) string {
	data, err := os.ReadFile(task.sourcePath)
	if err == nil {
		if meta, _, err := stripFrontmatter(data); err == nil {
			if title, ok := meta["title"].(string); ok && title != "" {
				return title
			}
		}
	}
	return task.Name
}

// Task returns a copy of the task with the given id.
func (c *Catalog) Task(ctx context.Context, id string) (*Task, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	task, ok := c.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	cp := *task
	return &cp, nil
}

// CurrentText returns the task's working statement as markdown.
func (c *Catalog) CurrentText(ctx context.Context, id string) (string, error) {
	task, err := c.Task(ctx, id)
	if err != nil {
		return "", err
	}
	return c.readText(ctx, task.sourcePath)
}

// PublishedText returns the task's released statement as markdown.
func (c *Catalog) PublishedText(ctx context.Context, id string) (string, error) {
	task, err := c.Task(ctx, id)
	if err != nil {
		return "", err
	}
	return c.readText(ctx, task.releasedPath)
}

// List returns all tasks sorted by id.
func (c *Catalog) List() []Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, *t)
	}
	sortTasks(out)
	return out
}

func (c *Catalog) readText(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("statement %s: %w", filepath.Base(path), domain.ErrNotFound)
		}
		return "", fmt.Errorf("read statement: %w", err)
	}

	_, body, err := stripFrontmatter(data)
	if err != nil {
		return "", fmt.Errorf("statement %s: %w", filepath.Base(path), err)
	}

	return c.converter.Convert(ctx, path, body)
}
