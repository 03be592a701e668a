package htmlpage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe/internal/domain"
)

func TestRenderer_Render(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	tests := []struct {
		name     string
		page     Page
		contains []string
		excludes []string
	}{
		{
			name: "rtl page with heading",
			page: Page{Title: "Nile-Persian", Direction: "rtl", Lang: "fa", Text: "# رود نیل\n\nمتن"},
			contains: []string{
				`<html lang="fa" dir="rtl">`,
				"<title>Nile-Persian</title>",
				"<h1>رود نیل</h1>",
				"<p>متن</p>",
			},
		},
		{
			name:     "gfm table and strikethrough",
			page:     Page{Title: "T", Direction: "ltr", Text: "| a | b |\n|---|---|\n| 1 | 2 |\n\n~~old~~"},
			contains: []string{"<table>", "<td>1</td>", "old", `dir="ltr"`},
		},
		{
			name:     "raw html is sanitized",
			page:     Page{Title: "T", Direction: "ltr", Text: "hi <script>alert(1)</script> <b onclick=\"x()\">bold</b>"},
			contains: []string{"<b>bold</b>"},
			excludes: []string{"<script>", "onclick", "alert(1)"},
		},
		{
			name:     "title is escaped",
			page:     Page{Title: "<i>x</i>", Direction: "ltr", Text: "body"},
			contains: []string{"&lt;i&gt;x&lt;/i&gt;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(tt.page)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestRenderer_InvalidDirection(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.Render(Page{Direction: "up", Text: "x"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
