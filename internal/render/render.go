package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"path/filepath"

	"content_system/internal/resolve"
)

// TemplateRenderer satisfies the dispatcher's Renderer contract with
// html/template files named after page templates. A page whose template has
// no file on disk renders as not-found, which is the same signal the
// resolver's access policy uses for ordinary render requests.
type TemplateRenderer struct {
	dir       string
	templates *template.Template
	logger    *slog.Logger
}

// NewTemplateRenderer parses every template under dir (flat, "<name>.html")
func NewTemplateRenderer(dir string, logger *slog.Logger) (*TemplateRenderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	templates, err := template.ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates in %s: %w", dir, err)
	}

	logger.Info("template renderer initialized", "dir", dir)

	return &TemplateRenderer{dir: dir, templates: templates, logger: logger}, nil
}

// HasTemplateFile reports whether a template name has a parsed file,
// consumed by the access policy's template-file requirement
func (tr *TemplateRenderer) HasTemplateFile(name string) bool {
	return tr.templates.Lookup(name+".html") != nil
}

// viewData is the data handed to page templates
type viewData struct {
	Page     any
	Segments []string
	PageNum  int
	Ajax     bool
}

// Render executes the template file named after the page's template.
// Ajax requests execute the template's "<name>_content" block alone when
// the template defines one, skipping the layout chrome. Block names carry
// the template name because all parsed files share one namespace.
func (tr *TemplateRenderer) Render(ctx context.Context, req resolve.RenderRequest) ([]byte, error) {
	name := req.Template.Name + ".html"
	tpl := tr.templates.Lookup(name)
	if tpl == nil {
		return nil, resolve.ErrNotFound
	}

	data := viewData{
		Page:     req.Page,
		Segments: req.Segments,
		PageNum:  req.PageNum,
		Ajax:     req.Ajax,
	}

	var buf bytes.Buffer
	if req.Ajax {
		if content := tpl.Lookup(req.Template.Name + "_content"); content != nil {
			if err := content.Execute(&buf, data); err != nil {
				return nil, fmt.Errorf("failed to render %s content block: %w", name, err)
			}
			return buf.Bytes(), nil
		}
	}

	if err := tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
