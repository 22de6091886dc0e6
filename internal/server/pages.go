package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-viewgen/internal/records"
	"github.com/goliatone/go-viewgen/internal/web"
	"github.com/goliatone/go-viewgen/pkg/detail"
	"github.com/goliatone/go-viewgen/pkg/schema"
	"github.com/goliatone/go-viewgen/pkg/views"
)

func recordHref(entity string) func(schema.Record) string {
	return func(r schema.Record) string {
		id := r.ID()
		if id == "" {
			return ""
		}
		return "/records/" + url.PathEscape(entity) + "/" + url.PathEscape(id)
	}
}

// handleView renders /views/{entity}?view=&columns=&group=&date=&image=.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	sc, err := s.snapshot().Schemas.Schema(entity)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, "Unknown entity", "No schema is declared for "+entity+".")
		return
	}

	q := r.URL.Query()
	req := views.Request{
		Schema:         sc,
		ViewType:       views.ParseViewType(q.Get("view")),
		VisibleColumns: splitList(q.Get("columns")),
		ViewConfig: views.ViewConfig{
			GroupField: q.Get("group"),
			DateField:  q.Get("date"),
			ImageField: q.Get("image"),
		},
		RowLink: recordHref(entity),
	}
	data, err := s.records.List(r.Context(), entity, records.Query{})
	if err != nil {
		s.logger.Error("list records failed", zap.String("entity", entity), zap.Error(err),
			zap.String("request_id", web.GetRequestID(r.Context())))
		req.Err = errors.New("Records could not be loaded")
	}
	req.Data = data

	body, err := s.views.Render(r.Context(), req)
	if err != nil {
		s.logger.Error("render view failed", zap.String("entity", entity), zap.Error(err))
		s.renderError(w, r, http.StatusInternalServerError, "Something went wrong", "The view could not be rendered.")
		return
	}
	title := sc.LabelPlural
	if title == "" {
		title = entity
	}
	s.writePage(w, r, http.StatusOK, title, "/views/"+entity, body)
}

// handleRecord renders /records/{entity}/{id}?tab=.
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	entity, id := chi.URLParam(r, "entity"), chi.URLParam(r, "id")
	desc, err := s.snapshot().Pages.Descriptor(entity)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, "Unknown page", "No detail page is declared for "+entity+".")
		return
	}

	record, related, err := records.FetchDetail(r.Context(), s.records, desc, id)
	switch {
	case errors.Is(err, records.ErrNotFound):
		s.renderError(w, r, http.StatusNotFound, "Record not found", "The record "+id+" does not exist.")
		return
	case err != nil:
		s.logger.Error("load record failed", zap.String("entity", entity), zap.String("id", id), zap.Error(err),
			zap.String("request_id", web.GetRequestID(r.Context())))
		s.renderError(w, r, http.StatusInternalServerError, "Something went wrong", "The record could not be loaded.")
		return
	}

	path := r.URL.Path
	body, err := s.details.Render(r.Context(), detail.Input{
		Descriptor: desc,
		Data:       record,
		Related:    related,
		ActiveTab:  r.URL.Query().Get("tab"),
		ActionURL:  path + "/actions",
		TabURL: func(tabID string) string {
			return path + "?tab=" + url.QueryEscape(tabID)
		},
	})
	if err != nil {
		s.logger.Error("render detail failed", zap.String("entity", entity), zap.Error(err))
		s.renderError(w, r, http.StatusInternalServerError, "Something went wrong", "The record could not be rendered.")
		return
	}
	title := desc.Entity
	if desc.TitleField != "" && record.String(desc.TitleField) != "" {
		title = record.String(desc.TitleField)
	}
	s.writePage(w, r, http.StatusOK, title, "/views/"+entity, body)
}

// handleAction forwards POST /records/{entity}/{id}/actions to the
// dispatcher, limited to the actions the page declares. The entity and
// record id are added to the payload.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	entity, id := chi.URLParam(r, "entity"), chi.URLParam(r, "id")
	desc, err := s.snapshot().Pages.Descriptor(entity)
	if err != nil {
		web.WriteError(w, http.StatusNotFound, web.CodeNotFound, "unknown page", nil)
		return
	}

	var dispatch detail.Dispatcher
	if s.dispatch != nil {
		dispatch = func(ctx context.Context, actionID string, payload map[string]any) error {
			if payload == nil {
				payload = make(map[string]any, 2)
			}
			payload["entity"] = entity
			payload["recordId"] = id
			return s.dispatch(ctx, actionID, payload)
		}
	}
	detail.NewActionHandler(dispatch,
		detail.WithAllowedActions(desc),
		detail.WithRedirect(func(*http.Request) string {
			return "/records/" + url.PathEscape(entity) + "/" + url.PathEscape(id)
		}),
	).ServeHTTP(w, r)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
