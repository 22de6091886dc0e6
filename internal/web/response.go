package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

// Error codes carried in the envelope.
const (
	CodeBadRequest     = "BAD_REQUEST"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeNotFound       = "NOT_FOUND"
	CodeMethod         = "METHOD_NOT_ALLOWED"
	CodeRateLimited    = "RATE_LIMITED"
	CodeProcedureError = "PROCEDURE_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
)

// MaxBodyBytes caps decoded JSON request bodies.
const MaxBodyBytes = 1 << 20

// ErrorBody is the payload under the "error" key.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

type dataEnvelope struct {
	Data any `json:"data"`
}

// WriteJSON encodes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData wraps v as {"data": v}.
func WriteData(w http.ResponseWriter, status int, v any) {
	WriteJSON(w, status, dataEnvelope{Data: v})
}

// WriteError writes {"error": {"code", "message", "details"}}.
func WriteError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	WriteJSON(w, status, errorEnvelope{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

// DecodeJSON reads at most MaxBodyBytes of r's body into v.
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes)).Decode(v)
}

// Limit parses the "limit" query parameter, applying def when absent or
// invalid and capping at max.
func Limit(r *http.Request, def, max int) int {
	n := def
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			n = v
		}
	}
	if n > max {
		n = max
	}
	return n
}
