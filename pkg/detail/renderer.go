package detail

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-viewgen/pkg/format"
	"github.com/goliatone/go-viewgen/pkg/render"
	"github.com/goliatone/go-viewgen/pkg/render/template"
	"github.com/goliatone/go-viewgen/pkg/render/template/gotemplate"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the bundled detail templates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTemplateRenderer replaces the embedded pongo2 engine. It must resolve
// the "page" and "section" templates.
func WithTemplateRenderer(engine template.TemplateRenderer) Option {
	return func(r *Renderer) {
		r.engine = engine
	}
}

// WithFormatter sets the value formatter.
func WithFormatter(f *format.Formatter) Option {
	return func(r *Renderer) {
		r.formatter = f
	}
}

// WithTheme passes go-theme settings to templates.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(r *Renderer) {
		r.theme = cfg
	}
}

// Renderer turns an Input into HTML. It holds no per-request state.
type Renderer struct {
	engine    template.TemplateRenderer
	formatter *format.Formatter
	theme     *theme.RendererConfig
}

var _ render.Renderer = (*Renderer)(nil)

// NewRenderer constructs a detail renderer backed by the bundled templates
// unless WithTemplateRenderer is supplied.
func NewRenderer(options ...Option) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.formatter == nil {
		r.formatter = format.Default()
	}
	if r.engine == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(TemplatesFS()))
		if err != nil {
			return nil, fmt.Errorf("detail: template engine: %w", err)
		}
		r.engine = engine
	}
	return r, nil
}

func (r *Renderer) Name() string { return "detail" }

func (r *Renderer) ContentType() string { return render.ContentTypeHTML }

// Build returns the page model without rendering it.
func (r *Renderer) Build(in Input) Page {
	return Build(in, r.formatter)
}

// Render executes the section templates then the page template.
func (r *Renderer) Render(ctx context.Context, in Input) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page := r.Build(in)

	for i := range page.Sections {
		if err := r.renderSection(&page.Sections[i]); err != nil {
			return nil, err
		}
	}
	for t := range page.Tabs {
		for i := range page.Tabs[t].Sections {
			if err := r.renderSection(&page.Tabs[t].Sections[i]); err != nil {
				return nil, err
			}
		}
	}

	out, err := r.engine.RenderTemplate("page", map[string]any{
		"page":  page,
		"theme": render.NewThemeContext(r.theme),
	})
	if err != nil {
		return nil, fmt.Errorf("detail: render page: %w", err)
	}
	return []byte(out), nil
}

func (r *Renderer) renderSection(view *SectionView) error {
	html, err := r.engine.RenderTemplate("section", map[string]any{"section": view})
	if err != nil {
		return fmt.Errorf("detail: render section %q: %w", view.ID, err)
	}
	view.HTML = html
	return nil
}
