package approvals

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-viewgen/internal/auth"
	"github.com/goliatone/go-viewgen/internal/web"
)

// Mount path of the routes.
const BasePath = "/api/expense-approvals"

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// Handler serves the expense approval routes. It validates payload shape and
// forwards to the procedure; it keeps no workflow state.
type Handler struct {
	procedure Procedure
	store     Store
	logger    *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for unexpected failures.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler wires the procedure and the request store.
func NewHandler(procedure Procedure, store Store, options ...Option) *Handler {
	h := &Handler{procedure: procedure, store: store, logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes returns a router to mount at BasePath.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/approve", h.transition(ActionApproved, "approve"))
	r.Post("/reject", h.transition(ActionRejected, "reject"))
	r.Post("/return", h.transition(ActionReturned, "return"))
	r.Post("/bulk-approve", h.bulkApprove)
	r.Get("/openapi.json", h.openAPI)
	return r
}

// actionPayload accepts both the current and the legacy field names.
type actionPayload struct {
	RequestID       string  `json:"requestId"`
	ID              string  `json:"id"`
	Comments        *string `json:"comments"`
	RejectionReason *string `json:"rejectionReason"`
}

func (p actionPayload) requestID() string {
	if id := strings.TrimSpace(p.RequestID); id != "" {
		return id
	}
	return strings.TrimSpace(p.ID)
}

func (p actionPayload) comments() *string {
	if p.Comments != nil {
		return p.Comments
	}
	return p.RejectionReason
}

func (h *Handler) transition(action Action, verb string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload actionPayload
		if err := decodeOptional(r, &payload); err != nil {
			web.WriteError(w, http.StatusBadRequest, web.CodeBadRequest, "invalid JSON body", nil)
			return
		}
		id := payload.requestID()
		if id == "" {
			web.WriteError(w, http.StatusBadRequest, web.CodeBadRequest, "requestId is required", nil)
			return
		}

		call := Call{RequestID: id, Action: action, Comments: payload.comments()}
		if err := h.procedure.Process(r.Context(), call); err != nil {
			h.fail(w, r, err, verb, map[string]any{"requestId": id})
			return
		}
		web.WriteData(w, http.StatusOK, map[string]bool{string(action): true})
	}
}

type bulkPayload struct {
	RequestIDs []string `json:"requestIds"`
}

type bulkResult struct {
	Approved   int      `json:"approved"`
	RequestIDs []string `json:"requestIds"`
}

// bulkApprove calls the procedure once per id in order and stops at the
// first failure. Ids processed before the failure stay processed.
func (h *Handler) bulkApprove(w http.ResponseWriter, r *http.Request) {
	var payload bulkPayload
	if err := decodeOptional(r, &payload); err != nil {
		web.WriteError(w, http.StatusBadRequest, web.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	if len(payload.RequestIDs) == 0 {
		web.WriteError(w, http.StatusBadRequest, web.CodeBadRequest, "requestIds must be a non-empty array", nil)
		return
	}
	ids := make([]string, 0, len(payload.RequestIDs))
	for _, raw := range payload.RequestIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			web.WriteError(w, http.StatusBadRequest, web.CodeBadRequest, "requestIds must not contain empty ids", nil)
			return
		}
		ids = append(ids, id)
	}

	processed := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := h.procedure.Process(r.Context(), Call{RequestID: id, Action: ActionApproved}); err != nil {
			h.fail(w, r, err, "approve", map[string]any{
				"requestId": id,
				"processed": processed,
			})
			return
		}
		processed = append(processed, id)
	}
	web.WriteData(w, http.StatusOK, bulkResult{Approved: len(processed), RequestIDs: processed})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	limit := web.Limit(r, defaultListLimit, maxListLimit)

	requests, err := h.store.List(r.Context(), status, limit)
	if err != nil {
		h.fail(w, r, err, "list", nil)
		return
	}
	web.WriteData(w, http.StatusOK, requests)
}

// createPayload only names the fields a client may set. submitted_by,
// requested_by and status are decided by the server.
type createPayload struct {
	ExpenseID string `json:"expense_id"`
	Notes     string `json:"notes"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		web.WriteError(w, http.StatusUnauthorized, web.CodeUnauthorized, "authentication required", nil)
		return
	}
	var payload createPayload
	if err := decodeOptional(r, &payload); err != nil {
		web.WriteError(w, http.StatusBadRequest, web.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	expenseID := strings.TrimSpace(payload.ExpenseID)
	if expenseID == "" {
		web.WriteError(w, http.StatusBadRequest, web.CodeBadRequest, "expense_id is required", nil)
		return
	}

	created, err := h.store.Create(r.Context(), NewRequest{
		ExpenseID:   expenseID,
		SubmittedBy: userID,
		Status:      StatusPending,
		Notes:       payload.Notes,
	})
	if err != nil {
		h.fail(w, r, err, "create", nil)
		return
	}
	web.WriteData(w, http.StatusCreated, created)
}

func (h *Handler) openAPI(w http.ResponseWriter, _ *http.Request) {
	web.WriteJSON(w, http.StatusOK, OpenAPI())
}

// fail maps database-reported failures to 422 and everything else to an
// opaque 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, verb string, details map[string]any) {
	var perr *ProcedureError
	if errors.As(AsProcedureError(err), &perr) {
		if details == nil {
			details = map[string]any{}
		}
		if perr.Code != "" {
			details["sqlstate"] = perr.Code
		}
		if perr.Detail != "" {
			details["detail"] = perr.Detail
		}
		web.WriteError(w, http.StatusUnprocessableEntity, web.CodeProcedureError, perr.Message, details)
		return
	}
	if errors.Is(err, context.Canceled) {
		h.logger.Info("request cancelled", zap.String("path", r.URL.Path))
	} else {
		h.logger.Error("approval route failed",
			zap.String("action", verb),
			zap.String("path", r.URL.Path),
			zap.String("request_id", web.GetRequestID(r.Context())),
			zap.Error(err),
		)
	}
	var safe map[string]any
	if processed, ok := details["processed"]; ok {
		safe = map[string]any{"processed": processed}
	}
	web.WriteError(w, http.StatusInternalServerError, web.CodeInternal, "failed to "+verb+" request", safe)
}

// decodeOptional decodes a JSON body, treating an empty body as {}.
func decodeOptional(r *http.Request, v any) error {
	err := web.DecodeJSON(r, v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
