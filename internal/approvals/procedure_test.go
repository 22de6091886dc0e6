package approvals

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresProcedure_Process(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	proc := NewPostgresProcedure(db)
	mock.ExpectExec(regexp.QuoteMeta("SELECT process_expense_approval($1, $2, $3)")).
		WithArgs("req-1", "approved", "Looks good").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SELECT process_expense_approval($1, $2, $3)")).
		WithArgs("req-10", "approved", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, proc.Process(context.Background(), Call{RequestID: "req-1", Action: ActionApproved, Comments: strPtr("Looks good")}))
	require.NoError(t, proc.Process(context.Background(), Call{RequestID: "req-10", Action: ActionApproved}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProcedure_ClassifiesPQErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("SELECT process_expense_approval")).
		WillReturnError(&pq.Error{Code: "P0001", Message: "cannot approve a rejected request", Detail: "status=rejected"})
	mock.ExpectExec(regexp.QuoteMeta("SELECT process_expense_approval")).
		WillReturnError(sql.ErrConnDone)

	proc := NewPostgresProcedure(db)
	err = proc.Process(context.Background(), Call{RequestID: "req-1", Action: ActionApproved})
	var perr *ProcedureError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "P0001", perr.Code)
	assert.Equal(t, "cannot approve a rejected request", perr.Message)
	assert.Equal(t, "status=rejected", perr.Detail)

	err = proc.Process(context.Background(), Call{RequestID: "req-1", Action: ActionApproved})
	assert.False(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)
	ctx := context.Background()
	created := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	cols := []string{"id", "expense_id", "submitted_by", "status", "notes", "created_at"}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, expense_id, submitted_by, status, COALESCE(notes, ''), created_at FROM expense_approval_requests WHERE status = $1 ORDER BY created_at DESC LIMIT $2`)).
		WithArgs("pending", 50).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("r1", "exp-1", "user-1", "pending", "", created))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM expense_approval_requests ORDER BY created_at DESC LIMIT $1`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO expense_approval_requests (expense_id, submitted_by, status, notes)`)).
		WithArgs("exp-1", "user-1", "pending", "x").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("r2", "exp-1", "user-1", "pending", "x", created))

	list, err := store.List(ctx, "pending", 50)
	require.NoError(t, err)
	assert.Equal(t, []Request{{ID: "r1", ExpenseID: "exp-1", SubmittedBy: "user-1", Status: "pending", CreatedAt: created}}, list)

	empty, err := store.List(ctx, "", 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	r, err := store.Create(ctx, NewRequest{ExpenseID: "exp-1", SubmittedBy: "user-1", Status: StatusPending, Notes: "x"})
	require.NoError(t, err)
	assert.Equal(t, "r2", r.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadOpenAPI(t *testing.T) {
	doc, err := LoadOpenAPI(context.Background())
	require.NoError(t, err)
	for _, id := range []string{"approveRequest", "rejectRequest", "returnRequest", "bulkApproveRequests", "listApprovalRequests", "createApprovalRequest"} {
		found := false
		for _, item := range doc.Paths.Map() {
			for _, op := range item.Operations() {
				if op.OperationID == id {
					found = true
				}
			}
		}
		assert.True(t, found, id)
	}
}
