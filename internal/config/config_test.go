package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SCRIBE_CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("STORE_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "test_", cfg.TablePrefix)
	assert.Equal(t, "ISC", cfg.CanonicalOwner)
	assert.Equal(t, time.Minute, cfg.Render.Timeout)
	assert.Equal(t, 1, cfg.Render.Attempts)
	assert.Equal(t, 2, cfg.Render.MaxConcurrent)
	assert.True(t, cfg.Render.PageNumbersRequired)
	assert.Equal(t, "letter", cfg.Render.Paper)
	assert.Equal(t, 0.75, cfg.Render.Margin)
	assert.Equal(t, 1.0, cfg.Render.Scale)
	assert.Equal(t, 2*time.Minute, cfg.Print.Timeout)
}

func TestLoad_FileOverlayAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scribe.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[storage]
driver = "sqlite"
media_root = "/srv/media"
canonical_owner = "HQ"

[render]
timeout = "90s"
attempts = 3
page_numbers_required = false
margin = 0.0
paper = "a4"

[print]
address = "http://printer.local"
`), 0o644))

	t.Setenv("SCRIBE_CONFIG_FILE", path)
	t.Setenv("RASTERIZE_ATTEMPTS", "5")
	t.Setenv("MEDIA_ROOT", "/override")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/override", cfg.MediaRoot, "environment wins over the file")
	assert.Equal(t, "HQ", cfg.CanonicalOwner)
	assert.Equal(t, 90*time.Second, cfg.Render.Timeout)
	assert.Equal(t, 5, cfg.Render.Attempts)
	assert.False(t, cfg.Render.PageNumbersRequired)
	assert.Equal(t, 0.0, cfg.Render.Margin)
	assert.Equal(t, "a4", cfg.Render.Paper)
	assert.Equal(t, "http://printer.local", cfg.Print.Address)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"STORE_DRIVER": "sqlite", "RENDER_TIMEOUT": "soon"}},
		{"bad int", map[string]string{"STORE_DRIVER": "sqlite", "RASTERIZE_ATTEMPTS": "many"}},
		{"zero attempts", map[string]string{"STORE_DRIVER": "sqlite", "RASTERIZE_ATTEMPTS": "0"}},
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres", "DATABASE_URL": ""}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "mongo"}},
		{"missing file", map[string]string{"SCRIBE_CONFIG_FILE": "/does/not/exist.toml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SCRIBE_CONFIG_FILE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSetupLogFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"scribe-2024-01-01T00-00-00.log", "scribe-2024-01-02T00-00-00.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	f, err := SetupLogFile(dir, 2)
	require.NoError(t, err)
	defer f.Close()

	files, err := filepath.Glob(filepath.Join(dir, "scribe-*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.NotContains(t, files, filepath.Join(dir, "scribe-2024-01-01T00-00-00.log"))
}
