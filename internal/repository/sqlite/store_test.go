package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe/internal/domain"
	models "scribe/internal/domain/models/translation"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func createTestDocument(t *testing.T, store *Store, owner, task string) *models.Document {
	t.Helper()
	doc := &models.Document{
		OwnerID:     owner,
		OwnerName:   "name-" + owner,
		TaskID:      task,
		LanguageTag: "fa",
		RTL:         true,
		CreatedAt:   time.Now().UTC(),
	}
	created, err := store.Documents().CreateIfNotExists(context.Background(), doc)
	require.NoError(t, err)
	require.True(t, created)
	return doc
}

func TestNewStore_AppliesMigrationsOnce(t *testing.T) {
	dir := t.TempDir()

	store1, err := NewStore(dir, nil)
	require.NoError(t, err)

	var count int
	require.NoError(t, store1.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)
	require.NoError(t, store1.Close())

	store2, err := NewStore(dir, nil)
	require.NoError(t, err)
	defer store2.Close()

	require.NoError(t, store2.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestNewStore_RequiresDirectory(t *testing.T) {
	_, err := NewStore("", nil)
	assert.Error(t, err)
}

func TestDocuments_CreateIfNotExists(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	first := createTestDocument(t, store, "user-1", "task-1")

	again := &models.Document{OwnerID: "user-1", TaskID: "task-1", LanguageTag: "de", CreatedAt: time.Now()}
	created, err := store.Documents().CreateIfNotExists(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "fa", again.LanguageTag)
	assert.True(t, again.RTL)

	got, err := store.Documents().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.TaskID, got.TaskID)
}

func TestDocuments_GetByOwnerNameAndTask(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	doc := createTestDocument(t, store, "user-1", "task-1")
	createTestDocument(t, store, "user-1", "task-2")

	got, err := store.Documents().GetByOwnerNameAndTask(ctx, "name-user-1", "task-1")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "name-user-1", got.OwnerName)

	_, err = store.Documents().GetByOwnerNameAndTask(ctx, "user-1", "task-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocuments_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Documents().GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = store.Documents().GetByOwnerAndTask(ctx, "user-1", "task-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = store.Documents().LockForUpdate(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVersions_OrderingAndTieBreak(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	doc := createTestDocument(t, store, "user-1", "task-1")

	same := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	texts := []string{"a", "b", "c"}
	var ids []string
	for _, text := range texts {
		v := &models.Version{DocumentID: doc.ID, Text: text, CreatedAt: same}
		require.NoError(t, store.Versions().Create(ctx, v))
		assert.NotZero(t, v.Seq)
		ids = append(ids, v.ID)
	}

	oldest, err := store.Versions().ListByDocument(ctx, doc.ID, models.OldestFirst)
	require.NoError(t, err)
	require.Len(t, oldest, 3)
	for i, v := range oldest {
		assert.Equal(t, ids[i], v.ID)
		assert.Empty(t, v.Text)
	}

	newest, err := store.Versions().ListByDocument(ctx, doc.ID, models.NewestFirst)
	require.NoError(t, err)
	assert.Equal(t, ids[2], newest[0].ID)

	latest, err := store.Versions().Latest(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "c", latest.Text)
}

func TestVersions_UnknownDocument(t *testing.T) {
	store := setupTestStore(t)

	err := store.Versions().Create(context.Background(), &models.Version{DocumentID: "nope", Text: "x", CreatedAt: time.Now()})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestParticles_SingleSlot(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	doc := createTestDocument(t, store, "user-1", "task-1")

	_, err := store.Particles().GetByDocument(ctx, doc.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	p := &models.Particle{DocumentID: doc.ID, Text: "draft", UpdatedAt: time.Now()}
	require.NoError(t, store.Particles().Create(ctx, p))

	err = store.Particles().Create(ctx, &models.Particle{DocumentID: doc.ID, Text: "second", UpdatedAt: time.Now()})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	p.Text = "draft 2"
	require.NoError(t, store.Particles().Update(ctx, p))

	got, err := store.Particles().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft 2", got.Text)

	n, err := store.Particles().DeleteByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Particles().DeleteByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	doc := createTestDocument(t, store, "user-1", "task-1")
	boom := errors.New("boom")

	err := store.TransactionManager().ExecTx(ctx, func(ctx context.Context) error {
		if err := store.Versions().Create(ctx, &models.Version{DocumentID: doc.ID, Text: "x", CreatedAt: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	versions, err := store.Versions().ListByDocument(ctx, doc.ID, models.OldestFirst)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestTransactionManager_TakesWriteLockAtBegin(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, nil)
	require.NoError(t, err)
	defer store.Close()

	other, err := sql.Open("sqlite", filepath.Join(dir, "scribe.db")+"?_pragma=busy_timeout(0)")
	require.NoError(t, err)
	defer other.Close()

	err = store.TransactionManager().ExecTx(context.Background(), func(ctx context.Context) error {
		// Nothing written yet, but the transaction already holds the write lock
		_, err := other.Exec("CREATE TABLE lock_check (id INTEGER)")
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}
