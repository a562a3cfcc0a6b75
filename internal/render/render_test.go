package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_system/internal/pages"
	"content_system/internal/resolve"
)

func newTestRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	dir := t.TempDir()

	basic := `<html><body>{{define "basic_content"}}<p>{{.Page.Name}} page {{.PageNum}}</p>{{end}}{{template "basic_content" .}}</body></html>`
	plain := `<html><body><h1>{{.Page.Name}}</h1></body></html>`

	require.NoError(t, os.WriteFile(filepath.Join(dir, "basic.html"), []byte(basic), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.html"), []byte(plain), 0o644))

	tr, err := NewTemplateRenderer(dir, nil)
	require.NoError(t, err)
	return tr
}

func TestRenderFullPage(t *testing.T) {
	tr := newTestRenderer(t)

	body, err := tr.Render(context.Background(), resolve.RenderRequest{
		Page:     pages.Page{ID: 2, Name: "about"},
		Template: pages.Template{ID: 1, Name: "basic"},
		PageNum:  3,
	})
	require.NoError(t, err)
	assert.Contains(t, string(body), "<html>")
	assert.Contains(t, string(body), "about page 3")
}

func TestRenderAjaxContentBlock(t *testing.T) {
	tr := newTestRenderer(t)

	body, err := tr.Render(context.Background(), resolve.RenderRequest{
		Page:     pages.Page{ID: 2, Name: "about"},
		Template: pages.Template{ID: 1, Name: "basic"},
		Ajax:     true,
	})
	require.NoError(t, err)
	// the content block renders without the layout chrome
	assert.NotContains(t, string(body), "<html>")
	assert.Contains(t, string(body), "about page 0")
}

func TestRenderAjaxWithoutContentBlock(t *testing.T) {
	tr := newTestRenderer(t)

	// templates with no content block fall back to the full page
	body, err := tr.Render(context.Background(), resolve.RenderRequest{
		Page:     pages.Page{ID: 2, Name: "about"},
		Template: pages.Template{ID: 2, Name: "plain"},
		Ajax:     true,
	})
	require.NoError(t, err)
	assert.Contains(t, string(body), "<html>")
}

func TestRenderUnknownTemplate(t *testing.T) {
	tr := newTestRenderer(t)

	_, err := tr.Render(context.Background(), resolve.RenderRequest{
		Page:     pages.Page{ID: 2, Name: "about"},
		Template: pages.Template{ID: 9, Name: "missing"},
	})
	assert.ErrorIs(t, err, resolve.ErrNotFound)
}

func TestHasTemplateFile(t *testing.T) {
	tr := newTestRenderer(t)

	assert.True(t, tr.HasTemplateFile("basic"))
	assert.True(t, tr.HasTemplateFile("plain"))
	assert.False(t, tr.HasTemplateFile("missing"))
}
