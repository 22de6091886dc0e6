package server

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-viewgen/internal/auth"
	"github.com/goliatone/go-viewgen/internal/layouts"
	"github.com/goliatone/go-viewgen/internal/web"
	"github.com/goliatone/go-viewgen/pkg/dashboard"
)

// While a user edits, mutations apply to an in-memory draft; the stored
// layout only changes on save. Leaving edit mode discards the draft. Edit
// toggles, saves and mutations of one user run one at a time under that
// user's lock.

func userID(r *http.Request) string {
	if id := auth.UserID(r.Context()); id != "" {
		return id
	}
	return AnonymousUser
}

func (s *Server) draft(user string) (dashboard.Layout, bool) {
	s.draftsMu.Lock()
	defer s.draftsMu.Unlock()
	layout, ok := s.drafts[user]
	return layout, ok
}

func (s *Server) setDraft(user string, layout dashboard.Layout) {
	s.draftsMu.Lock()
	s.drafts[user] = layout
	s.draftsMu.Unlock()
}

// replaceDraft stores layout only while the user is still editing.
func (s *Server) replaceDraft(user string, layout dashboard.Layout) {
	s.draftsMu.Lock()
	if _, ok := s.drafts[user]; ok {
		s.drafts[user] = layout
	}
	s.draftsMu.Unlock()
}

// lockUser serialises draft changes for user and returns the unlock func.
func (s *Server) lockUser(user string) func() {
	s.draftsMu.Lock()
	mu, ok := s.userLocks[user]
	if !ok {
		mu = &sync.Mutex{}
		s.userLocks[user] = mu
	}
	s.draftsMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (s *Server) dropDraft(user string) {
	s.draftsMu.Lock()
	delete(s.drafts, user)
	s.draftsMu.Unlock()
}

func (s *Server) storedLayout(r *http.Request, user string) (dashboard.Layout, error) {
	return layouts.GetOrDefault(r.Context(), s.layouts, user, s.defaultLayout)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	layout, editing := s.draft(user)
	if !editing {
		var err error
		if layout, err = s.storedLayout(r, user); err != nil {
			s.logger.Error("load layout failed", zap.String("user", user), zap.Error(err))
			s.renderError(w, r, http.StatusInternalServerError, "Something went wrong", "The dashboard could not be loaded.")
			return
		}
	}

	renderer, err := dashboard.NewRenderer(s.snapshot().Widgets,
		dashboard.WithTemplateRenderer(s.dashEngine),
		dashboard.WithTheme(s.theme),
		dashboard.WithBaseURL(DashboardPath),
	)
	if err != nil {
		s.logger.Error("dashboard renderer failed", zap.Error(err))
		s.renderError(w, r, http.StatusInternalServerError, "Something went wrong", "The dashboard could not be rendered.")
		return
	}
	body, err := renderer.Render(r.Context(), dashboard.NewGrid(layout, dashboard.WithEditing(editing)))
	if err != nil {
		s.logger.Error("render dashboard failed", zap.String("user", user), zap.Error(err))
		s.renderError(w, r, http.StatusInternalServerError, "Something went wrong", "The dashboard could not be rendered.")
		return
	}
	s.writePage(w, r, http.StatusOK, "Dashboard", DashboardPath, body)
}

// handleToggleEdit enters edit mode with a draft of the stored layout, or
// leaves it and discards unsaved changes.
func (s *Server) handleToggleEdit(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	unlock := s.lockUser(user)
	defer unlock()

	if _, editing := s.draft(user); editing {
		s.dropDraft(user)
		s.backToDashboard(w, r)
		return
	}
	layout, err := s.storedLayout(r, user)
	if err != nil {
		s.logger.Error("load layout failed", zap.String("user", user), zap.Error(err))
		web.WriteError(w, http.StatusInternalServerError, web.CodeInternal, "layout could not be loaded", nil)
		return
	}
	s.setDraft(user, layout)
	s.backToDashboard(w, r)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	unlock := s.lockUser(user)
	defer unlock()

	layout, editing := s.draft(user)
	if !editing {
		s.backToDashboard(w, r)
		return
	}
	if err := s.layouts.Save(r.Context(), user, layout); err != nil {
		s.logger.Error("save layout failed", zap.String("user", user), zap.Error(err))
		web.WriteError(w, http.StatusInternalServerError, web.CodeInternal, "layout could not be saved", nil)
		return
	}
	s.dropDraft(user)
	s.logger.Info("layout saved", zap.String("user", user), zap.Int("widgets", len(layout.Widgets)))
	s.backToDashboard(w, r)
}

func (s *Server) handleAddWidget(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(grid *dashboard.Grid) error {
		def, ok := s.snapshot().Widgets.Definition(r.PostFormValue("widgetId"))
		if !ok {
			return errBadInput("unknown widget")
		}
		_, err := grid.AddWidget(def)
		return err
	})
}

func (s *Server) handleRemoveWidget(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(grid *dashboard.Grid) error {
		grid.RemoveWidget(chi.URLParam(r, "id"))
		return nil
	})
}

func (s *Server) handleResizeWidget(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(grid *dashboard.Grid) error {
		grid.ResizeWidget(chi.URLParam(r, "id"), dashboard.ParseSize(r.PostFormValue("size")))
		return nil
	})
}

func (s *Server) handleConfigWidget(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(grid *dashboard.Grid) error {
		id := chi.URLParam(r, "id")
		placed, ok := grid.Layout.Find(id)
		if !ok {
			return nil
		}
		def, ok := s.snapshot().Widgets.Definition(placed.WidgetID)
		if !ok {
			return errBadInput("unknown widget")
		}
		partial, err := dashboard.ParseConfig(def, r.PostForm)
		if err != nil {
			return errBadInput(err.Error())
		}
		grid.UpdateWidgetConfig(id, partial)
		return nil
	})
}

func (s *Server) handleMoveWidget(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(grid *dashboard.Grid) error {
		x, errX := strconv.Atoi(r.PostFormValue("x"))
		y, errY := strconv.Atoi(r.PostFormValue("y"))
		if errX != nil || errY != nil {
			return errBadInput("x and y must be integers")
		}
		grid.MoveWidget(chi.URLParam(r, "id"), dashboard.Position{X: x, Y: y})
		return nil
	})
}

type errBadInput string

func (e errBadInput) Error() string { return string(e) }

// mutate applies fn to the caller's draft. Requests outside edit mode are
// rejected with 409.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(*dashboard.Grid) error) {
	if err := r.ParseForm(); err != nil {
		web.WriteError(w, http.StatusBadRequest, web.CodeBadRequest, "invalid form", nil)
		return
	}
	user := userID(r)
	unlock := s.lockUser(user)
	defer unlock()

	layout, editing := s.draft(user)
	if !editing {
		web.WriteError(w, http.StatusConflict, "NOT_EDITING", "dashboard is not in edit mode", nil)
		return
	}

	grid := dashboard.NewGrid(layout,
		dashboard.WithEditing(true),
		dashboard.WithLayoutChange(func(next dashboard.Layout) { s.replaceDraft(user, next) }),
	)
	if err := fn(grid); err != nil {
		var bad errBadInput
		if errors.As(err, &bad) {
			web.WriteError(w, http.StatusBadRequest, web.CodeBadRequest, bad.Error(), nil)
			return
		}
		s.logger.Error("dashboard mutation failed", zap.String("user", user), zap.Error(err))
		web.WriteError(w, http.StatusInternalServerError, web.CodeInternal, "dashboard could not be updated", nil)
		return
	}
	s.backToDashboard(w, r)
}

func (s *Server) backToDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
}
