// Package viewgen renders entity collections, record detail pages and
// configurable dashboards from declarative descriptors. The functions here
// wrap the renderers in pkg/ for callers that only need HTML.
package viewgen

import (
	"context"
	"fmt"

	"github.com/goliatone/go-viewgen/pkg/dashboard"
	"github.com/goliatone/go-viewgen/pkg/detail"
	"github.com/goliatone/go-viewgen/pkg/schema"
	"github.com/goliatone/go-viewgen/pkg/views"
)

// Record is one entity instance keyed by field name.
type Record = schema.Record

// ViewRequest aliases views.Request for callers configuring a view render.
type ViewRequest = views.Request

// DetailInput aliases detail.Input.
type DetailInput = detail.Input

// Layout aliases dashboard.Layout.
type Layout = dashboard.Layout

// RenderView renders data as viewType ("table", "grid", "list", "kanban",
// "calendar"; unknown tags fall back to table).
func RenderView(ctx context.Context, s *schema.Schema, data []Record, viewType string, options ...views.Option) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("viewgen: schema is required")
	}
	r, err := views.NewRenderer(options...)
	if err != nil {
		return nil, err
	}
	return r.Render(ctx, views.Request{
		Schema:   s,
		ViewType: views.ParseViewType(viewType),
		Data:     data,
	})
}

// RenderDetail renders the detail page of record. related is keyed by the
// entity of each related-list section.
func RenderDetail(ctx context.Context, desc detail.Descriptor, record Record, related map[string][]Record, options ...detail.Option) ([]byte, error) {
	r, err := detail.NewRenderer(options...)
	if err != nil {
		return nil, err
	}
	return r.Render(ctx, detail.Input{Descriptor: desc, Data: record, Related: related})
}

// RenderDashboard renders layout against registry in read-only mode.
func RenderDashboard(ctx context.Context, registry *dashboard.Registry, layout Layout, options ...dashboard.Option) ([]byte, error) {
	r, err := dashboard.NewRenderer(registry, options...)
	if err != nil {
		return nil, err
	}
	return r.Render(ctx, dashboard.NewGrid(layout))
}
