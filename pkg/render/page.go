package render

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-viewgen/pkg/render/template"
	"github.com/goliatone/go-viewgen/pkg/render/template/gotemplate"
)

//go:embed templates/*.tmpl
var pageTemplates embed.FS

// DefaultLiveScript is served by the viewgen server when the theme does not
// resolve a live.js asset.
const DefaultLiveScript = "/static/live.js"

// NavLink is one entry of the page navigation bar.
type NavLink struct {
	Label  string `json:"label"`
	Href   string `json:"href"`
	Active bool   `json:"active,omitempty"`
}

// PageData is the document-level content wrapped around a rendered fragment.
type PageData struct {
	Title   string
	Body    []byte
	Nav     []NavLink
	LiveURL string
}

// Page wraps HTML fragments in a themed document shell.
type Page struct {
	engine  template.TemplateRenderer
	theme   *theme.RendererConfig
	appName string
	lang    string
}

// PageOption configures a Page.
type PageOption func(*Page)

// WithPageTheme applies a go-theme config to the shell.
func WithPageTheme(cfg *theme.RendererConfig) PageOption {
	return func(p *Page) {
		p.theme = cfg
	}
}

// WithAppName appends name to every document title.
func WithAppName(name string) PageOption {
	return func(p *Page) {
		p.appName = strings.TrimSpace(name)
	}
}

// WithLanguage sets the html lang attribute.
func WithLanguage(lang string) PageOption {
	return func(p *Page) {
		p.lang = strings.TrimSpace(lang)
	}
}

// WithPageTemplateRenderer swaps the shell template engine. The renderer must
// resolve a "page" template.
func WithPageTemplateRenderer(renderer template.TemplateRenderer) PageOption {
	return func(p *Page) {
		p.engine = renderer
	}
}

// NewPage constructs the document shell renderer.
func NewPage(options ...PageOption) (*Page, error) {
	p := &Page{}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	if p.engine == nil {
		sub, err := fs.Sub(pageTemplates, "templates")
		if err != nil {
			return nil, fmt.Errorf("render: page templates: %w", err)
		}
		engine, err := gotemplate.New(gotemplate.WithFS(sub))
		if err != nil {
			return nil, fmt.Errorf("render: page engine: %w", err)
		}
		p.engine = engine
	}
	return p, nil
}

func (p *Page) Name() string { return "page" }

func (p *Page) ContentType() string { return ContentTypeHTML }

// Render produces a full HTML document around data.Body.
func (p *Page) Render(ctx context.Context, data PageData) ([]byte, error) {
	if p == nil || p.engine == nil {
		return nil, errors.New("render: page renderer not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	themeCtx := NewThemeContext(p.theme)
	liveScript := AssetURL(p.theme, "live.js")
	if liveScript == "" {
		liveScript = DefaultLiveScript
	}
	payload := map[string]any{
		"title":       data.Title,
		"app_name":    p.appName,
		"lang":        p.lang,
		"theme":       themeCtx,
		"nav":         data.Nav,
		"body":        string(data.Body),
		"live_url":    data.LiveURL,
		"live_script": liveScript,
	}
	out, err := p.engine.RenderTemplate("page", payload)
	if err != nil {
		return nil, fmt.Errorf("render: page: %w", err)
	}
	return []byte(out), nil
}
