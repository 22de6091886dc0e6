package approvals

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StatusPending is forced on every newly created request.
const StatusPending = "pending"

// Request is an expense approval request row.
type Request struct {
	ID          string    `json:"id"`
	ExpenseID   string    `json:"expense_id"`
	SubmittedBy string    `json:"submitted_by"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewRequest is the server-built insert payload.
type NewRequest struct {
	ExpenseID   string
	SubmittedBy string
	Status      string
	Notes       string
}

// Store lists and inserts approval requests. Transitions never go through
// the store; they belong to the procedure.
type Store interface {
	List(ctx context.Context, status string, limit int) ([]Request, error)
	Create(ctx context.Context, in NewRequest) (Request, error)
}

// PostgresStore reads and writes expense_approval_requests.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const listColumns = `id, expense_id, submitted_by, status, COALESCE(notes, ''), created_at`

func (s *PostgresStore) List(ctx context.Context, status string, limit int) ([]Request, error) {
	query := `SELECT ` + listColumns + ` FROM expense_approval_requests`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, AsProcedureError(fmt.Errorf("approvals: list: %w", err))
	}
	defer rows.Close()

	out := []Request{}
	for rows.Next() {
		var r Request
		if err := rows.Scan(&r.ID, &r.ExpenseID, &r.SubmittedBy, &r.Status, &r.Notes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("approvals: scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("approvals: list rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, in NewRequest) (Request, error) {
	var notes sql.NullString
	if in.Notes != "" {
		notes = sql.NullString{String: in.Notes, Valid: true}
	}
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO expense_approval_requests (expense_id, submitted_by, status, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING `+listColumns,
		in.ExpenseID, in.SubmittedBy, in.Status, notes)

	var r Request
	if err := row.Scan(&r.ID, &r.ExpenseID, &r.SubmittedBy, &r.Status, &r.Notes, &r.CreatedAt); err != nil {
		return Request{}, AsProcedureError(fmt.Errorf("approvals: create: %w", err))
	}
	return r, nil
}

// MemoryStore keeps requests in process. Used by the CLI dev server and
// tests.
type MemoryStore struct {
	mu       sync.RWMutex
	requests []Request
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) List(_ context.Context, status string, limit int) ([]Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Request{}
	for _, r := range s.requests {
		if status == "" || strings.EqualFold(r.Status, status) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, in NewRequest) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Request{
		ID:          uuid.NewString(),
		ExpenseID:   in.ExpenseID,
		SubmittedBy: in.SubmittedBy,
		Status:      in.Status,
		Notes:       in.Notes,
		CreatedAt:   s.now().UTC(),
	}
	s.requests = append(s.requests, r)
	return r, nil
}
