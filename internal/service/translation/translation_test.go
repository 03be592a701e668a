package translation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe/internal/domain"
	authmodels "scribe/internal/domain/models"
	models "scribe/internal/domain/models/translation"
	transSvc "scribe/internal/domain/services/translation"
	"scribe/internal/repository/sqlite"
	"scribe/internal/service/auth"
	"scribe/internal/tasks"
)

// fakeTasks is an in-memory tasks.Source
type fakeTasks struct {
	tasks map[string]*tasks.Task
	texts map[string]string
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{
		tasks: map[string]*tasks.Task{
			"T":     {ID: "T", Name: "t", Title: "Task T", Published: true, Contest: tasks.Contest{Slug: "c"}},
			"draft": {ID: "draft", Name: "draft", Title: "Draft", Published: false, Contest: tasks.Contest{Slug: "c"}},
		},
		texts: map[string]string{"T": "Hello", "draft": "Secret"},
	}
}

func (f *fakeTasks) Task(ctx context.Context, id string) (*tasks.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTasks) CurrentText(ctx context.Context, id string) (string, error) {
	if _, err := f.Task(ctx, id); err != nil {
		return "", err
	}
	return f.texts[id], nil
}

func (f *fakeTasks) PublishedText(ctx context.Context, id string) (string, error) {
	return f.CurrentText(ctx, id)
}

type testEnv struct {
	sqlStore   *sqlite.Store
	store      transSvc.ContentStore
	reconciler transSvc.Reconciler
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sqlStore, err := sqlite.NewStore(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { sqlStore.Close() })

	authorizer := auth.NewOwnerBasedAuthorizer(sqlStore.Documents())
	store := NewContentStore(
		sqlStore.Documents(),
		sqlStore.Versions(),
		sqlStore.Particles(),
		sqlStore.TransactionManager(),
		newFakeTasks(),
		authorizer,
		logger,
	)
	reconciler := NewReconciler(
		sqlStore.Documents(),
		sqlStore.Versions(),
		sqlStore.Particles(),
		sqlStore.TransactionManager(),
		store,
		logger,
	)

	return &testEnv{sqlStore: sqlStore, store: store, reconciler: reconciler}
}

var (
	ownerU = authmodels.Identity{UserID: "U", Username: "u", Language: authmodels.Language{Name: "Persian", Code: "fa"}}
	userV  = authmodels.Identity{UserID: "V", Username: "v", Language: authmodels.Language{Name: "German", Code: "de"}}
	editor = authmodels.Identity{UserID: "E", Username: "e", Editor: true}
)

func (e *testEnv) particleCount(t *testing.T, doc *models.Document) int {
	t.Helper()
	p, err := e.store.CurrentParticle(context.Background(), doc)
	require.NoError(t, err)
	if p == nil {
		return 0
	}
	return 1
}

func (e *testEnv) versionCount(t *testing.T, doc *models.Document) int {
	t.Helper()
	versions, err := e.sqlStore.Versions().ListByDocument(context.Background(), doc.ID, models.OldestFirst)
	require.NoError(t, err)
	return len(versions)
}

func TestGetOrCreateDocument_SeedsFromSource(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	doc, err := env.store.GetOrCreateDocument(ctx, ownerU, "T")
	require.NoError(t, err)
	assert.Equal(t, "U", doc.OwnerID)
	assert.Equal(t, "fa", doc.LanguageTag)
	assert.True(t, doc.RTL)
	assert.Equal(t, models.DirectionRTL, doc.Direction())

	text, err := env.store.ResolveText(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Equal(t, 1, env.versionCount(t, doc))
}

func TestGetOrCreateDocument_Idempotent(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	first, err := env.store.GetOrCreateDocument(ctx, ownerU, "T")
	require.NoError(t, err)
	second, err := env.store.GetOrCreateDocument(ctx, ownerU, "T")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, env.versionCount(t, first))
}

func TestGetOrCreateDocument_ConcurrentFirstCallsSeedOnce(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := env.store.GetOrCreateDocument(ctx, ownerU, "T")
			errs[i] = err
			if err == nil {
				ids[i] = doc.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	doc, err := env.store.GetDocument(ctx, ownerU, "T")
	require.NoError(t, err)
	assert.Equal(t, 1, env.versionCount(t, doc))
}

func TestGetOrCreateDocument_Errors(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.store.GetOrCreateDocument(ctx, ownerU, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "unknown task")

	_, err = env.store.GetOrCreateDocument(ctx, ownerU, "draft")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "unpublished task hidden from translators")

	_, err = env.store.GetOrCreateDocument(ctx, authmodels.Identity{}, "T")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	doc, err := env.store.GetOrCreateDocument(ctx, editor, "draft")
	require.NoError(t, err, "editors see unpublished tasks")
	assert.False(t, doc.RTL)
}

func TestGetDocument_DoesNotCreate(t *testing.T) {
	env := setupEnv(t)

	_, err := env.store.GetDocument(context.Background(), ownerU, "T")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGetDocumentByOwnerName(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	doc, err := env.store.GetOrCreateDocument(ctx, ownerU, "T")
	require.NoError(t, err)
	assert.Equal(t, "u", doc.OwnerName)

	got, err := env.store.GetDocumentByOwnerName(ctx, ownerU, "u", "T")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	got, err = env.store.GetDocumentByOwnerName(ctx, editor, "u", "T")
	require.NoError(t, err, "editors reach other owners")
	assert.Equal(t, doc.ID, got.ID)

	_, err = env.store.GetDocumentByOwnerName(ctx, userV, "u", "T")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.store.GetDocumentByOwnerName(ctx, editor, "nobody", "T")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScenario_ParticleThenVersion(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	doc, err := env.store.GetOrCreateDocument(ctx, ownerU, "T")
	require.NoError(t, err)

	text, err := env.store.ResolveText(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)

	outcome, err := env.reconciler.SaveAsParticle(ctx, doc, "U", "Hello world")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCreated, outcome)

	text, err = env.store.ResolveText(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
	assert.Equal(t, 1, env.particleCount(t, doc))

	version, err := env.reconciler.SaveAsVersion(ctx, doc, "U", "Hello world!")
	require.NoError(t, err)
	assert.Equal(t, "Hello world!", version.Text)

	assert.Equal(t, 2, env.versionCount(t, doc))
	assert.Equal(t, 0, env.particleCount(t, doc))

	text, err = env.store.ResolveText(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "Hello world!", text)
}

func TestSaveAsParticle_UnchangedTextIsNotModified(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	doc, err := env.store.GetOrCreateDocument(ctx, ownerU, "T")
	require.NoError(t, err)

	for _, text := range []string{"Hello", "  Hello\n", "\tHello  "} {
		outcome, err := env.reconciler.SaveAsParticle(ctx, doc, "U", text)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeNotModified, outcome, "text %q", text)
	}

	assert.Equal(t, 0, env.particleCount(t, doc))
	assert.Equal(t, 1, env.versionCount(t, doc))

	// Against an existing particle as well
	_, err = env.reconciler.SaveAsParticle(ctx, doc, "U", "Draft")
	require.NoError(t, err)
	before, err := env.store.CurrentParticle(ctx, doc)
	require.NoError(t, err)

	outcome, err := env.reconciler.SaveAsParticle(ctx, doc, "U", "Draft \n")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNotModified, outcome)

	after, err := env.store.CurrentParticle(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSaveAsParticle_OverwritesSingleSlot(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	doc, err := env.store.GetOrCreateDocument(ctx, ownerU, "T")
	require.NoError(t, err)

	outcome, err := env.reconciler.SaveAsParticle(ctx, doc, "U", "first")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCreated, outcome)
	first, err := env.store.CurrentParticle(ctx, doc)
	require.NoError(t, err)

	outcome, err = env.reconciler.SaveAsParticle(ctx, doc, "U", "second")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUpdated, outcome)
	second, err := env.store.CurrentParticle(ctx, doc)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "particle is overwritten in place")
	assert.Equal(t, 1, env.particleCount(t, doc))
	assert.Equal(t, 1, env.versionCount(t, doc), "particle saves never append versions")

	text, err := env.store.ReadParticleText(ctx, second.ID, "U")
	require.NoError(t, err)
	assert.Equal(t, "second", text)
}

func TestSaveAsParticle_ConcurrentSavesKeepOneParticle(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	doc, err := env.store.GetOrCreateDocument(ctx, ownerU, "T")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.reconciler.SaveAsParticle(ctx, doc, "U", fmt.Sprintf("draft %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, env.particleCount(t, doc))
	assert.Equal(t, 1, env.versionCount(t, doc))
}

func TestOwnership_ForbiddenForEveryOperation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	doc, err := env.store.GetOrCreateDocument(ctx, ownerU, "T")
	require.NoError(t, err)
	_, err = env.reconciler.SaveAsParticle(ctx, doc, "U", "mine")
	require.NoError(t, err)

	particle, err := env.store.CurrentParticle(ctx, doc)
	require.NoError(t, err)
	versions, err := env.store.ListVersions(ctx, doc, models.OldestFirst)
	require.NoError(t, err)
	require.Len(t, versions, 1)

	ops := map[string]func() error{
		"save particle": func() error {
			_, err := env.reconciler.SaveAsParticle(ctx, doc, userV.UserID, "theirs")
			return err
		},
		"save version": func() error {
			_, err := env.reconciler.SaveAsVersion(ctx, doc, userV.UserID, "theirs")
			return err
		},
		"read version": func() error {
			_, err := env.store.ReadVersionText(ctx, versions[0].ID, userV.UserID)
			return err
		},
		"read particle": func() error {
			_, err := env.store.ReadParticleText(ctx, particle.ID, userV.UserID)
			return err
		},
		"anonymous save": func() error {
			_, err := env.reconciler.SaveAsParticle(ctx, doc, "", "theirs")
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			assert.True(t, errors.Is(err, domain.ErrForbidden), "got %v", err)
		})
	}

	// Store state is unchanged
	text, err := env.store.ResolveText(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "mine", text)
	assert.Equal(t, 1, env.versionCount(t, doc))
	assert.Equal(t, 1, env.particleCount(t, doc))
}

func TestReadText_NotFound(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.store.ReadVersionText(ctx, "nope", "U")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = env.store.ReadParticleText(ctx, "nope", "U")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListVersions_OrderAndTies(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	fixed := time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)
	env.store.(*contentStore).clock = func() time.Time { return fixed }
	env.reconciler.(*reconciler).clock = func() time.Time { return fixed }

	doc, err := env.store.GetOrCreateDocument(ctx, ownerU, "T")
	require.NoError(t, err)

	var saved []string
	for _, text := range []string{"one", "two", "three"} {
		v, err := env.reconciler.SaveAsVersion(ctx, doc, "U", text)
		require.NoError(t, err)
		saved = append(saved, v.ID)
	}

	oldest, err := env.store.ListVersions(ctx, doc, models.OldestFirst)
	require.NoError(t, err)
	require.Len(t, oldest, 4)
	assert.Equal(t, saved, []string{oldest[1].ID, oldest[2].ID, oldest[3].ID})
	for _, s := range oldest {
		assert.Equal(t, models.KindVersion, s.Kind)
		assert.True(t, s.Timestamp.Equal(fixed))
	}

	newest, err := env.store.ListVersions(ctx, doc, models.NewestFirst)
	require.NoError(t, err)
	assert.Equal(t, saved[2], newest[0].ID)

	text, err := env.store.ResolveText(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "three", text, "latest wins among equal timestamps")

	versionText, err := env.store.ReadVersionText(ctx, saved[0], "U")
	require.NoError(t, err)
	assert.Equal(t, "one", versionText)
}

func TestCurrentParticle_NilWhenAbsent(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	doc, err := env.store.GetOrCreateDocument(ctx, ownerU, "T")
	require.NoError(t, err)

	p, err := env.store.CurrentParticle(ctx, doc)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestResolveText_AfterArbitrarySaveSequence(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	doc, err := env.store.GetOrCreateDocument(ctx, ownerU, "T")
	require.NoError(t, err)

	type step struct {
		version bool
		text    string
	}
	steps := []step{
		{false, "a"}, {false, "b"}, {true, "c"}, {false, "c"}, {false, "d"}, {true, "e"}, {true, "f"}, {false, "g"},
	}

	for i, s := range steps {
		if s.version {
			_, err = env.reconciler.SaveAsVersion(ctx, doc, "U", s.text)
		} else {
			_, err = env.reconciler.SaveAsParticle(ctx, doc, "U", s.text)
		}
		require.NoError(t, err, "step %d", i)

		text, err := env.store.ResolveText(ctx, doc)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, s.text, text, "step %d", i)
		assert.LessOrEqual(t, env.particleCount(t, doc), 1)
	}
}
