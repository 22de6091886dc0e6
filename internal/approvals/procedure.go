package approvals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Action is the transition requested from the approval procedure.
type Action string

const (
	ActionApproved Action = "approved"
	ActionRejected Action = "rejected"
	ActionReturned Action = "returned"
)

// Call is one invocation of process_expense_approval. Comments is nil when
// the client sent none, which maps to SQL NULL.
type Call struct {
	RequestID string
	Action    Action
	Comments  *string
}

// Procedure owns every approval state transition. Implementations must not
// retry.
type Procedure interface {
	Process(ctx context.Context, call Call) error
}

// ProcedureFunc adapts a function to Procedure.
type ProcedureFunc func(ctx context.Context, call Call) error

func (f ProcedureFunc) Process(ctx context.Context, call Call) error { return f(ctx, call) }

// ProcedureError is a failure reported by the database, such as an invalid
// transition raised from inside the procedure. Its message is safe to return
// to the client.
type ProcedureError struct {
	Message string
	Code    string
	Detail  string
	Err     error
}

func (e *ProcedureError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("approvals: procedure error %s: %s", e.Code, e.Message)
	}
	return "approvals: procedure error: " + e.Message
}

func (e *ProcedureError) Unwrap() error { return e.Err }

// AsProcedureError converts a *pq.Error anywhere in err's chain into a
// *ProcedureError. Other errors are returned unchanged.
func AsProcedureError(err error) error {
	if err == nil {
		return nil
	}
	var perr *ProcedureError
	if errors.As(err, &perr) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &ProcedureError{
			Message: pqErr.Message,
			Code:    string(pqErr.Code),
			Detail:  pqErr.Detail,
			Err:     err,
		}
	}
	return err
}

const processQuery = `SELECT process_expense_approval($1, $2, $3)`

// PostgresProcedure calls process_expense_approval over database/sql.
type PostgresProcedure struct {
	db *sql.DB
}

func NewPostgresProcedure(db *sql.DB) *PostgresProcedure {
	return &PostgresProcedure{db: db}
}

// Process runs the procedure once with p_request_id, p_action and
// p_comments.
func (p *PostgresProcedure) Process(ctx context.Context, call Call) error {
	var comments sql.NullString
	if call.Comments != nil {
		comments = sql.NullString{String: *call.Comments, Valid: true}
	}
	if _, err := p.db.ExecContext(ctx, processQuery, call.RequestID, string(call.Action), comments); err != nil {
		return AsProcedureError(fmt.Errorf("approvals: process %s %s: %w", call.Action, call.RequestID, err))
	}
	return nil
}
