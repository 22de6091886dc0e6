// Package server assembles the viewgen HTTP surface: entity view pages,
// record detail pages, the configurable dashboard, the live feed and the
// expense approval API.
package server

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	viewgen "github.com/goliatone/go-viewgen"
	"github.com/goliatone/go-viewgen/internal/approvals"
	"github.com/goliatone/go-viewgen/internal/auth"
	"github.com/goliatone/go-viewgen/internal/catalog"
	"github.com/goliatone/go-viewgen/internal/layouts"
	"github.com/goliatone/go-viewgen/internal/live"
	"github.com/goliatone/go-viewgen/internal/records"
	"github.com/goliatone/go-viewgen/internal/web"
	"github.com/goliatone/go-viewgen/pkg/dashboard"
	"github.com/goliatone/go-viewgen/pkg/detail"
	"github.com/goliatone/go-viewgen/pkg/render"
	"github.com/goliatone/go-viewgen/pkg/render/template"
	"github.com/goliatone/go-viewgen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-viewgen/pkg/views"
)

const (
	// DashboardPath is the base URL of the dashboard routes.
	DashboardPath = "/dashboard"
	// LivePath is the websocket endpoint of the live feed.
	LivePath = "/live/ws"
	// AnonymousUser owns the dashboard of requests without a token.
	AnonymousUser = "anonymous"

	defaultShutdownTimeout = 10 * time.Second
)

// Snapshots yields the active catalog. *catalog.Catalog satisfies it.
type Snapshots interface {
	Current() *catalog.Snapshot
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecords sets the record source behind views and detail pages.
func WithRecords(src records.Source) Option {
	return func(s *Server) { s.records = src }
}

// WithLayouts sets the dashboard layout store.
func WithLayouts(store layouts.Store) Option {
	return func(s *Server) { s.layouts = store }
}

// WithDefaultLayout is shown to users without a saved layout.
func WithDefaultLayout(layout dashboard.Layout) Option {
	return func(s *Server) { s.defaultLayout = layout.Clone() }
}

// WithAuth enables bearer token authentication.
func WithAuth(svc *auth.Service) Option {
	return func(s *Server) { s.auth = svc }
}

// WithApprovals mounts the expense approval API.
func WithApprovals(h *approvals.Handler) Option {
	return func(s *Server) { s.approvals = h }
}

// WithHub mounts the live feed websocket.
func WithHub(hub *live.Hub) Option {
	return func(s *Server) { s.hub = hub }
}

// WithActionDispatcher handles detail page actions. Without one, action
// posts answer 501.
func WithActionDispatcher(dispatch detail.Dispatcher) Option {
	return func(s *Server) { s.dispatch = dispatch }
}

// WithTheme passes a go-theme config to every renderer.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(s *Server) { s.theme = cfg }
}

// WithRateLimiter limits the JSON API per client IP.
func WithRateLimiter(rl *web.RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

// WithAppName is appended to every page title.
func WithAppName(name string) Option {
	return func(s *Server) { s.appName = strings.TrimSpace(name) }
}

// Server holds the renderers and data sources shared by all requests.
type Server struct {
	snapshots     Snapshots
	records       records.Source
	layouts       layouts.Store
	defaultLayout dashboard.Layout
	auth          *auth.Service
	approvals     *approvals.Handler
	hub           *live.Hub
	dispatch      detail.Dispatcher
	theme         *theme.RendererConfig
	limiter       *web.RateLimiter
	logger        *zap.Logger
	appName       string

	views      *views.Renderer
	details    *detail.Renderer
	page       *render.Page
	dashEngine template.TemplateRenderer

	draftsMu  sync.Mutex
	drafts    map[string]dashboard.Layout
	userLocks map[string]*sync.Mutex
}

// New builds a server over the catalog snapshots.
func New(snapshots Snapshots, options ...Option) (*Server, error) {
	if snapshots == nil || snapshots.Current() == nil {
		return nil, errors.New("server: catalog is required")
	}
	s := &Server{
		snapshots: snapshots,
		logger:    zap.NewNop(),
		appName:   "viewgen",
		drafts:    make(map[string]dashboard.Layout),
		userLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.records == nil {
		s.records = records.NewMemory(nil)
	}
	if s.layouts == nil {
		s.layouts = layouts.NewMemory()
	}

	var err error
	if s.views, err = views.NewRenderer(views.WithTheme(s.theme)); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if s.details, err = detail.NewRenderer(detail.WithTheme(s.theme)); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if s.page, err = render.NewPage(render.WithPageTheme(s.theme), render.WithAppName(s.appName)); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if s.dashEngine, err = gotemplate.New(gotemplate.WithFS(dashboard.TemplatesFS())); err != nil {
		return nil, fmt.Errorf("server: dashboard templates: %w", err)
	}
	return s, nil
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(web.RequestID(), web.Logging(s.logger), web.Recovery(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		web.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, DashboardPath, http.StatusFound)
	})
	r.Handle(live.ScriptPath, live.ScriptHandler())
	r.Handle("/static/"+viewgen.StylesheetName, http.StripPrefix("/static/", http.FileServerFS(viewgen.AssetsFS())))

	r.Get("/views/{entity}", s.handleView)
	r.Get("/records/{entity}/{id}", s.handleRecord)
	r.Post("/records/{entity}/{id}/actions", s.handleAction)

	r.Route(DashboardPath, func(r chi.Router) {
		if s.auth != nil {
			r.Use(s.auth.Optional)
		}
		r.Get("/", s.handleDashboard)
		r.Post("/edit", s.handleToggleEdit)
		r.Post("/save", s.handleSave)
		r.Post("/widgets", s.handleAddWidget)
		r.Post("/widgets/{id}/remove", s.handleRemoveWidget)
		r.Post("/widgets/{id}/resize", s.handleResizeWidget)
		r.Post("/widgets/{id}/config", s.handleConfigWidget)
		r.Post("/widgets/{id}/move", s.handleMoveWidget)
	})

	if s.hub != nil {
		r.Handle(LivePath, s.hub)
	}

	if s.approvals != nil {
		r.Route(approvals.BasePath, func(r chi.Router) {
			if s.limiter != nil {
				r.Use(s.limiter.Middleware)
			}
			if s.auth != nil {
				r.Use(s.auth.Middleware)
			}
			r.Mount("/", s.approvals.Routes())
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "Not found", "The page you asked for does not exist.")
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) snapshot() *catalog.Snapshot {
	return s.snapshots.Current()
}

func (s *Server) nav(active string) []render.NavLink {
	snap := s.snapshot()
	links := []render.NavLink{{Label: "Dashboard", Href: DashboardPath, Active: active == DashboardPath}}
	for _, name := range snap.Schemas.Names() {
		label := name
		if sc, err := snap.Schemas.Schema(name); err == nil && sc.LabelPlural != "" {
			label = sc.LabelPlural
		}
		href := "/views/" + name
		links = append(links, render.NavLink{Label: label, Href: href, Active: active == href})
	}
	return links
}

func (s *Server) liveURL() string {
	if s.hub == nil {
		return ""
	}
	return LivePath
}

// writePage wraps body in the document shell.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, status int, title, active string, body []byte) {
	out, err := s.page.Render(r.Context(), render.PageData{
		Title:   title,
		Body:    body,
		Nav:     s.nav(active),
		LiveURL: s.liveURL(),
	})
	if err != nil {
		s.logger.Error("render page shell failed", zap.Error(err), zap.String("request_id", web.GetRequestID(r.Context())))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", render.ContentTypeHTML)
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	body := fmt.Sprintf(`<section class="vg-error-page"><h1>%s</h1><p>%s</p></section>`,
		html.EscapeString(title), html.EscapeString(message))
	s.writePage(w, r, status, title, "", []byte(body))
}
