package detail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// ErrUnknownAction is returned by dispatchers (or the handler itself when an
// allow list is set) for actions the page does not declare.
var ErrUnknownAction = errors.New("detail: unknown action")

// Dispatcher performs an action selected on a detail page. The renderer and
// handler carry no action logic of their own.
type Dispatcher func(ctx context.Context, actionID string, payload map[string]any) error

// ActionRequest is the JSON body accepted by ActionHandler.
type ActionRequest struct {
	ActionID string         `json:"actionId"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// ActionHandler decodes action posts and forwards them to a Dispatcher.
type ActionHandler struct {
	dispatch Dispatcher
	allowed  map[string]struct{}
	redirect func(r *http.Request) string
}

// ActionOption configures an ActionHandler.
type ActionOption func(*ActionHandler)

// WithAllowedActions restricts dispatch to the actions declared by d.
func WithAllowedActions(d Descriptor) ActionOption {
	return func(h *ActionHandler) {
		h.allowed = make(map[string]struct{}, len(d.Actions))
		for _, action := range d.Actions {
			h.allowed[action.ID] = struct{}{}
		}
	}
}

// WithRedirect sets where form posts are sent after dispatch. The default is
// the Referer, then the request path.
func WithRedirect(fn func(r *http.Request) string) ActionOption {
	return func(h *ActionHandler) {
		h.redirect = fn
	}
}

// NewActionHandler wraps dispatch.
func NewActionHandler(dispatch Dispatcher, options ...ActionOption) *ActionHandler {
	h := &ActionHandler{dispatch: dispatch}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// ServeHTTP accepts JSON ({actionId, payload}) or form posts (actionId plus
// any other fields as the payload). JSON callers get a JSON envelope, form
// callers a 303 redirect.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeActionError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only POST is supported")
		return
	}
	if h.dispatch == nil {
		writeActionError(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "no action dispatcher configured")
		return
	}

	isJSON := isJSONRequest(r)
	req, err := decodeActionRequest(r, isJSON)
	if err != nil {
		writeActionError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if h.allowed != nil {
		if _, ok := h.allowed[req.ActionID]; !ok {
			writeActionError(w, http.StatusBadRequest, "BAD_REQUEST", fmt.Sprintf("unknown action %q", req.ActionID))
			return
		}
	}

	if err := h.dispatch(r.Context(), req.ActionID, req.Payload); err != nil {
		if errors.Is(err, ErrUnknownAction) {
			writeActionError(w, http.StatusBadRequest, "BAD_REQUEST", fmt.Sprintf("unknown action %q", req.ActionID))
			return
		}
		writeActionError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to run action")
		return
	}

	if !isJSON {
		http.Redirect(w, r, h.redirectTarget(r), http.StatusSeeOther)
		return
	}
	writeActionJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"actionId": req.ActionID, "ok": true}})
}

func (h *ActionHandler) redirectTarget(r *http.Request) string {
	if h.redirect != nil {
		if target := h.redirect(r); target != "" {
			return target
		}
	}
	if ref := r.Referer(); ref != "" {
		return ref
	}
	return r.URL.Path
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func decodeActionRequest(r *http.Request, isJSON bool) (ActionRequest, error) {
	var req ActionRequest
	if isJSON {
		dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
		if err := dec.Decode(&req); err != nil {
			return ActionRequest{}, errors.New("invalid JSON body")
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return ActionRequest{}, errors.New("invalid form body")
		}
		req.ActionID = r.PostForm.Get("actionId")
		for key, values := range r.PostForm {
			if key == "actionId" || len(values) == 0 {
				continue
			}
			if req.Payload == nil {
				req.Payload = make(map[string]any)
			}
			req.Payload[key] = values[0]
		}
	}
	req.ActionID = strings.TrimSpace(req.ActionID)
	if req.ActionID == "" {
		return ActionRequest{}, errors.New("actionId is required")
	}
	return req, nil
}

func writeActionError(w http.ResponseWriter, status int, code, message string) {
	writeActionJSON(w, status, map[string]any{"error": map[string]any{"code": code, "message": message}})
}

func writeActionJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
