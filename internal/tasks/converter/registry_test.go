package converter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe/internal/domain"
)

func TestRegistry_Convert(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
		input    string
		want     string
	}{
		{"markdown passthrough", "statement.md", "# Title\n\nBody", "# Title\n\nBody"},
		{"text passthrough", "statement.TXT", "plain", "plain"},
		{"html heading", "statement.html", "<h1>Title</h1>", "# Title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Convert(ctx, tt.filename, []byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(got))
		})
	}
}

func TestRegistry_HTMLIsSanitized(t *testing.T) {
	got, err := NewRegistry().Convert(context.Background(), "a.htm", []byte(`<p>safe</p><script>alert(1)</script>`))
	require.NoError(t, err)
	assert.Contains(t, got, "safe")
	assert.NotContains(t, got, "alert")
}

func TestRegistry_UnsupportedExtension(t *testing.T) {
	_, err := NewRegistry().Convert(context.Background(), "statement.docx", []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestRegistry_SupportedExtensions(t *testing.T) {
	assert.Equal(t,
		[]string{".htm", ".html", ".markdown", ".md", ".text", ".txt"},
		NewRegistry().SupportedExtensions(),
	)
}

func TestRegistry_HTMLSamplesBecomeFencedCode(t *testing.T) {
	got, err := NewRegistry().Convert(context.Background(), "statement.html",
		[]byte("<h2>Sample</h2><pre><code>3 4\n1 2</code></pre>"))
	require.NoError(t, err)
	assert.Contains(t, got, "## Sample")
	assert.Contains(t, got, "```\n3 4\n1 2\n```")
}

func TestRegistry_HTMLHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRegistry().Convert(ctx, "statement.html", []byte("<p>x</p>"))
	assert.ErrorIs(t, err, context.Canceled)
}
