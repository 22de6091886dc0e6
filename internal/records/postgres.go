package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-viewgen/pkg/schema"
)

// Table holds records as jsonb documents:
//
//	CREATE TABLE records (
//	    entity     text        NOT NULL,
//	    id         text        NOT NULL,
//	    data       jsonb       NOT NULL,
//	    created_at timestamptz NOT NULL DEFAULT now(),
//	    PRIMARY KEY (entity, id)
//	);
const Table = "records"

// Postgres reads records from the jsonb table, newest first.
type Postgres struct {
	db *sql.DB
}

var _ Source = (*Postgres)(nil)

// NewPostgres wraps an open database handle (driver "postgres").
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) List(ctx context.Context, entity string, q Query) ([]schema.Record, error) {
	query := "SELECT id, data FROM " + Table + " WHERE entity = $1"
	args := []any{entity}

	keys := make([]string, 0, len(q.Filter))
	for field := range q.Filter {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	for _, field := range keys {
		args = append(args, field, q.Filter[field])
		query += fmt.Sprintf(" AND data->>$%d = $%d", len(args)-1, len(args))
	}
	args = append(args, q.limit())
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("records: list %s: %w", entity, err)
	}
	defer rows.Close()

	out := make([]schema.Record, 0)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("records: scan %s: %w", entity, err)
		}
		record, err := decode(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records: list %s: %w", entity, err)
	}
	return out, nil
}

func (p *Postgres) Get(ctx context.Context, entity, id string) (schema.Record, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx,
		"SELECT data FROM "+Table+" WHERE entity = $1 AND id = $2", entity, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, entity, id)
	}
	if err != nil {
		return nil, fmt.Errorf("records: get %s/%s: %w", entity, id, err)
	}
	return decode(id, raw)
}

func decode(id string, raw []byte) (schema.Record, error) {
	record := make(schema.Record)
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("records: decode %s: %w", id, err)
		}
	}
	record["id"] = id
	return record, nil
}
