package layouts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goliatone/go-viewgen/pkg/dashboard"
)

const (
	selectLayout = "SELECT layout FROM dashboard_layouts WHERE user_id = $1"
	upsertLayout = "INSERT INTO dashboard_layouts (user_id, layout, updated_at) VALUES ($1, $2, now()) " +
		"ON CONFLICT (user_id) DO UPDATE SET layout = EXCLUDED.layout, updated_at = now()"
)

// Postgres stores layouts as jsonb in dashboard_layouts.
type Postgres struct {
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Get(ctx context.Context, userID string) (dashboard.Layout, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx, selectLayout, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return dashboard.Layout{}, ErrNotFound
	}
	if err != nil {
		return dashboard.Layout{}, fmt.Errorf("layouts: get %s: %w", userID, err)
	}
	return decode(userID, data)
}

func (p *Postgres) Save(ctx context.Context, userID string, layout dashboard.Layout) error {
	data, err := prepare(userID, layout)
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, upsertLayout, userID, data); err != nil {
		return fmt.Errorf("layouts: save %s: %w", userID, err)
	}
	return nil
}
