package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	theme "github.com/goliatone/go-theme"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-viewgen/pkg/render"
	"github.com/goliatone/go-viewgen/pkg/render/template"
	"github.com/goliatone/go-viewgen/pkg/render/template/gotemplate"
)

//go:embed templates/*.tmpl templates/widgets/*.tmpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the bundled dashboard and widget templates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// DefaultConcurrency bounds how many widgets render at once.
const DefaultConcurrency = 8

// WidgetState reports how a widget instance resolved.
type WidgetState string

const (
	WidgetReady    WidgetState = "ready"
	WidgetNotFound WidgetState = "not-found"
	WidgetError    WidgetState = "error"
)

// WidgetView is the template-facing form of a placed widget.
type WidgetView struct {
	ID       string      `json:"id"`
	WidgetID string      `json:"widgetId"`
	Name     string      `json:"name"`
	Size     Size        `json:"size"`
	Span     int         `json:"span"`
	X        int         `json:"x"`
	Y        int         `json:"y"`
	State    WidgetState `json:"state"`
	Message  string      `json:"message,omitempty"`
	HTML     string      `json:"html,omitempty"`
	Form     *Form       `json:"form,omitempty"`
}

// PickerEntry is one entry of the "add widget" menu shown while editing.
type PickerEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Page is the assembled dashboard.
type Page struct {
	Editing bool          `json:"editing"`
	BaseURL string        `json:"baseUrl"`
	Widgets []WidgetView  `json:"widgets"`
	Picker  []PickerEntry `json:"picker,omitempty"`
	Sizes   []Size        `json:"sizes,omitempty"`
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	engine      template.TemplateRenderer
	theme       *theme.RendererConfig
	concurrency int
	baseURL     string
}

// WithTemplateRenderer replaces the embedded pongo2 engine.
func WithTemplateRenderer(renderer template.TemplateRenderer) Option {
	return func(cfg *config) {
		cfg.engine = renderer
	}
}

// WithTheme passes a go-theme config to the dashboard template.
func WithTheme(t *theme.RendererConfig) Option {
	return func(cfg *config) {
		cfg.theme = t
	}
}

// WithConcurrency caps concurrent widget renders.
func WithConcurrency(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.concurrency = n
		}
	}
}

// WithBaseURL sets the prefix editing forms post to. Defaults to "/dashboard".
func WithBaseURL(url string) Option {
	return func(cfg *config) {
		if url != "" {
			cfg.baseURL = url
		}
	}
}

// Renderer lays out a grid against a frozen registry.
type Renderer struct {
	registry    *Registry
	engine      template.TemplateRenderer
	theme       *theme.RendererConfig
	concurrency int
	baseURL     string
}

var _ render.Renderer = (*Renderer)(nil)

// NewRenderer returns a renderer bound to registry.
func NewRenderer(registry *Registry, options ...Option) (*Renderer, error) {
	if registry == nil {
		return nil, errors.New("dashboard: registry is required")
	}
	cfg := &config{concurrency: DefaultConcurrency, baseURL: "/dashboard"}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.engine == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(TemplatesFS()))
		if err != nil {
			return nil, fmt.Errorf("dashboard: template engine: %w", err)
		}
		cfg.engine = engine
	}
	return &Renderer{
		registry:    registry,
		engine:      cfg.engine,
		theme:       cfg.theme,
		concurrency: cfg.concurrency,
		baseURL:     cfg.baseURL,
	}, nil
}

func (r *Renderer) Name() string { return "dashboard" }

func (r *Renderer) ContentType() string { return render.ContentTypeHTML }

// Registry returns the registry the renderer resolves against.
func (r *Renderer) Registry() *Registry { return r.registry }

// Build renders every widget body concurrently and joins them before
// returning. Widgets are ordered by row then column. Only context
// cancellation is returned as an error; widget failures become cards.
func (r *Renderer) Build(ctx context.Context, grid *Grid) (Page, error) {
	if grid == nil {
		grid = NewGrid(Layout{})
	}
	widgets := grid.Layout.Ordered()
	page := Page{
		Editing: grid.Editing,
		BaseURL: r.baseURL,
		Widgets: make([]WidgetView, len(widgets)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, w := range widgets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			page.Widgets[i] = r.renderWidget(gctx, w, grid.Editing)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Page{}, err
	}

	if grid.Editing {
		page.Sizes = Sizes()
		for _, def := range r.registry.Definitions() {
			page.Picker = append(page.Picker, PickerEntry{
				ID:          def.ID,
				Name:        def.Name,
				Description: def.Description,
				Category:    def.Category,
			})
		}
	}
	return page, nil
}

// Render builds the page and executes the dashboard template.
func (r *Renderer) Render(ctx context.Context, grid *Grid) ([]byte, error) {
	page, err := r.Build(ctx, grid)
	if err != nil {
		return nil, err
	}
	out, err := r.engine.RenderTemplate("dashboard", map[string]any{
		"page":  page,
		"theme": render.NewThemeContext(r.theme),
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard: render: %w", err)
	}
	return []byte(out), nil
}

func (r *Renderer) renderWidget(ctx context.Context, w Widget, editing bool) (view WidgetView) {
	view = WidgetView{
		ID:       w.ID,
		WidgetID: w.WidgetID,
		Name:     w.WidgetID,
		Size:     w.Size,
		Span:     w.Size.Span(),
		X:        w.Position.X,
		Y:        w.Position.Y,
		State:    WidgetReady,
	}
	if !view.Size.Valid() {
		view.Size = SizeMedium
	}

	def, component, err := r.registry.Resolve(w.WidgetID)
	if def.Name != "" {
		view.Name = def.Name
	}
	if err != nil {
		view.State = WidgetNotFound
		view.Message = "Widget not found"
		return view
	}
	if editing && len(def.ConfigSchema) > 0 {
		form := ConfigForm(def, w)
		view.Form = &form
	}

	defer func() {
		if rec := recover(); rec != nil {
			view.State = WidgetError
			view.Message = fmt.Sprintf("%s failed to render", view.Name)
			view.HTML = ""
		}
	}()

	content, err := component.Render(ctx, w)
	if err != nil {
		view.State = WidgetError
		view.Message = fmt.Sprintf("%s failed to render", view.Name)
		var notice Notice
		if errors.As(err, &notice) {
			view.Message = string(notice)
		}
		return view
	}
	html, err := r.contentHTML(content, w)
	if err != nil {
		view.State = WidgetError
		view.Message = fmt.Sprintf("%s failed to render", view.Name)
		return view
	}
	view.HTML = html
	return view
}

func (r *Renderer) contentHTML(content Content, w Widget) (string, error) {
	if content.Template == "" {
		return content.HTML, nil
	}
	return r.engine.RenderTemplate(content.Template, map[string]any{
		"widget": w,
		"data":   content.Data,
	})
}
