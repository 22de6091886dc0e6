package views_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-viewgen/pkg/schema"
	"github.com/goliatone/go-viewgen/pkg/views"
)

func renderString(t *testing.T, r *views.Renderer, req views.Request) string {
	t.Helper()
	out, err := r.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func assertContains(t *testing.T, html string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(html, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, html)
		}
	}
}

func TestRender_Table(t *testing.T) {
	r := newRenderer(t)
	html := renderString(t, r, views.Request{
		Schema:         dealsSchema(t),
		ViewType:       views.ViewTable,
		Data:           []schema.Record{{"id": "d1", "name": "<b>Arena</b>", "amount": 5}},
		VisibleColumns: []string{"name", "amount"},
		RowLink:        func(rec schema.Record) string { return "/records/deals/" + rec.ID() },
	})

	assertContains(t, html,
		`data-view="table"`,
		`<th scope="col" data-key="name">Name</th>`,
		`<th scope="col" data-key="amount">Amount</th>`,
		`data-href="/records/deals/d1"`,
		`<td>&lt;b&gt;Arena&lt;/b&gt;</td>`,
		`<td>5</td>`,
	)
	if strings.Contains(html, `data-key="owner"`) {
		t.Fatalf("hidden column rendered:\n%s", html)
	}
}

func TestRender_TableEmpty(t *testing.T) {
	r := newRenderer(t)
	html := renderString(t, r, views.Request{Schema: dealsSchema(t)})
	assertContains(t, html, "No deals found")
}

func TestRender_ListEmptyState(t *testing.T) {
	r := newRenderer(t)
	html := renderString(t, r, views.Request{Schema: dealsSchema(t), ViewType: views.ViewList})
	assertContains(t, html, `vg-empty--dashed`, "No deals yet")
}

func TestRender_KanbanDynamicColumn(t *testing.T) {
	r := newRenderer(t)
	html := renderString(t, r, views.Request{
		Schema:   dealsSchema(t),
		ViewType: views.ViewKanban,
		Data:     []schema.Record{{"id": "1", "name": "Gala", "status": "on_hold"}},
	})
	assertContains(t, html,
		`data-column="todo"`,
		`data-column="in_progress"`,
		`data-column="done"`,
		`vg-board__column vg-board__column--dynamic" data-column="on_hold"`,
		`Gala`,
	)
}

func TestRender_GridPlaceholderUsesInitials(t *testing.T) {
	r := newRenderer(t)
	html := renderString(t, r, views.Request{
		Schema:   dealsSchema(t),
		ViewType: views.ViewGrid,
		Data:     []schema.Record{{"id": "1", "name": "Summer Festival", "owner": "Lin"}},
	})
	assertContains(t, html, `vg-card__image--placeholder`, `>SF</div>`, `<dd>Lin</dd>`)
}

func TestRender_CalendarMapLoadingError(t *testing.T) {
	r := newRenderer(t)
	s := dealsSchema(t)

	assertContains(t, renderString(t, r, views.Request{Schema: s, ViewType: views.ViewCalendar, Data: []schema.Record{{"name": "x"}}}), "No Date")
	assertContains(t, renderString(t, r, views.Request{Schema: s, ViewType: views.ViewMap}), "Map view requires location data")
	assertContains(t, renderString(t, r, views.Request{Schema: s, Loading: true}), `vg-spinner`, "Loading deals")
	assertContains(t, renderString(t, r, views.Request{Schema: s, Err: errors.New("db <down>")}), `role="alert"`, "db &lt;down&gt;")
}

func TestRender_CancelledContext(t *testing.T) {
	r := newRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, views.Request{Schema: dealsSchema(t)}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRenderer_Metadata(t *testing.T) {
	r := newRenderer(t, views.WithTheme(&theme.RendererConfig{Theme: "acme"}))
	if r.Name() != "views" || !strings.HasPrefix(r.ContentType(), "text/html") {
		t.Fatalf("metadata mismatch: %s %s", r.Name(), r.ContentType())
	}
	if r.Strategy(views.ViewType("nope")).Type() != views.ViewTable {
		t.Fatalf("strategy fallback should be table")
	}
}
