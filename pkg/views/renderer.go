package views

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-viewgen/pkg/format"
	"github.com/goliatone/go-viewgen/pkg/render"
	"github.com/goliatone/go-viewgen/pkg/render/template"
	"github.com/goliatone/go-viewgen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-viewgen/pkg/schema"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the bundled view templates so callers can layer
// overrides on top.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	engine     template.TemplateRenderer
	formatter  *format.Formatter
	theme      *theme.RendererConfig
	strategies []Strategy
}

// WithTemplateRenderer replaces the embedded pongo2 engine.
func WithTemplateRenderer(renderer template.TemplateRenderer) Option {
	return func(cfg *config) {
		cfg.engine = renderer
	}
}

// WithFormatter sets the formatter used for calendar buckets.
func WithFormatter(f *format.Formatter) Option {
	return func(cfg *config) {
		cfg.formatter = f
	}
}

// WithTheme passes a go-theme config to every template.
func WithTheme(t *theme.RendererConfig) Option {
	return func(cfg *config) {
		cfg.theme = t
	}
}

// WithStrategy registers an additional strategy, replacing the built-in one
// for the same view type.
func WithStrategy(strategy Strategy) Option {
	return func(cfg *config) {
		if strategy != nil {
			cfg.strategies = append(cfg.strategies, strategy)
		}
	}
}

// Renderer dispatches a Request to the strategy registered for its view type.
// The strategy map is populated in NewRenderer and never changes afterwards.
type Renderer struct {
	strategies map[ViewType]Strategy
	engine     template.TemplateRenderer
	theme      *theme.RendererConfig
}

var _ render.Renderer = (*Renderer)(nil)

// NewRenderer registers the built-in strategies plus any supplied through
// options.
func NewRenderer(options ...Option) (*Renderer, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.formatter == nil {
		cfg.formatter = format.Default()
	}
	if cfg.engine == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(TemplatesFS()))
		if err != nil {
			return nil, fmt.Errorf("views: template engine: %w", err)
		}
		cfg.engine = engine
	}

	r := &Renderer{
		strategies: make(map[ViewType]Strategy, 6+len(cfg.strategies)),
		engine:     cfg.engine,
		theme:      cfg.theme,
	}
	builtins := []Strategy{
		tableStrategy{},
		gridStrategy{},
		listStrategy{},
		kanbanStrategy{},
		calendarStrategy{formatter: cfg.formatter},
		mapStrategy{},
	}
	for _, strategy := range append(builtins, cfg.strategies...) {
		vt := strategy.Type()
		if strings.TrimSpace(string(vt)) == "" {
			return nil, errors.New("views: strategy view type is required")
		}
		r.strategies[vt] = strategy
	}
	return r, nil
}

func (r *Renderer) Name() string { return "views" }

func (r *Renderer) ContentType() string { return render.ContentTypeHTML }

// Strategy returns the strategy used for vt, falling back to the table.
func (r *Renderer) Strategy(vt ViewType) Strategy {
	if strategy, ok := r.strategies[vt]; ok {
		return strategy
	}
	return r.strategies[ViewTable]
}

// Build computes the presentation for req. It never panics: a panic inside a
// strategy or display function degrades to the error state.
func (r *Renderer) Build(req Request) (p Presentation) {
	vt := req.ViewType
	if _, ok := r.strategies[vt]; !ok {
		vt = ViewTable
	}
	p = Presentation{ViewType: vt, State: StateReady}

	switch {
	case req.Loading:
		p.State = StateLoading
		p.Template = "loading"
		return p
	case req.Err != nil:
		p.State = StateError
		p.Template = "error"
		p.Message = req.Err.Error()
		return p
	}

	strategy := r.Strategy(vt)
	defer func() {
		if rec := recover(); rec != nil {
			p = Presentation{
				ViewType: vt,
				State:    StateError,
				Template: "error",
				Message:  fmt.Sprintf("unable to render %s view", vt),
			}
		}
	}()
	p.Template = strategy.Template()
	p.Body = strategy.Build(req)
	return p
}

// Render builds the presentation and executes its template. Only template
// engine failures are returned as errors.
func (r *Renderer) Render(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := r.Build(req)

	payload := map[string]any{
		"view":      p,
		"body":      p.Body,
		"entity":    entityName(req.Schema),
		"label":     pluralLabel(req.Schema),
		"viewTypes": ViewTypes(),
		"theme":     render.NewThemeContext(r.theme),
	}
	out, err := r.engine.RenderTemplate(p.Template, payload)
	if err != nil {
		return nil, fmt.Errorf("views: render %s: %w", p.Template, err)
	}
	return []byte(out), nil
}

func entityName(s *schema.Schema) string {
	if s == nil {
		return ""
	}
	return s.Entity
}

func pluralLabel(s *schema.Schema) string {
	if s == nil {
		return ""
	}
	if s.LabelPlural != "" {
		return s.LabelPlural
	}
	if s.Label != "" {
		return s.Label
	}
	return s.Entity
}
