package views_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-viewgen/pkg/format"
	"github.com/goliatone/go-viewgen/pkg/schema"
	"github.com/goliatone/go-viewgen/pkg/views"
)

func dealsSchema(t *testing.T) *schema.Schema {
	t.Helper()
	return schema.MustNew("deals", []schema.Field{
		{Key: "name", Label: "Name"},
		{Key: "amount", Label: "Amount", Type: schema.FieldTypeCurrency},
		{Key: "status", Label: "Stage", Type: schema.FieldTypeStatus},
		{Key: "owner", Label: "Owner"},
		{Key: "logo", Label: "Logo", Type: schema.FieldTypeImage},
	},
		schema.WithLabels("Deal", "Deals"),
		schema.WithComputed(schema.ComputedField{
			Key:   "weighted",
			Label: "Weighted",
			Compute: func(r schema.Record) any {
				amount, _ := format.ToFloat(r.Value("amount"))
				return amount / 2
			},
		}),
		schema.WithViews(schema.Views{
			Table: &schema.TableView{Columns: []string{"name", "amount", "weighted", "stage_note", "owner"}},
			Grid:  &schema.GridView{CardFields: []string{"amount", "owner"}, ImageField: "logo"},
		}),
		schema.WithDisplay(schema.FieldDisplay{TitleField: "name", SubtitleField: "owner", BadgeField: "status"}),
	)
}

func newRenderer(t *testing.T, options ...views.Option) *views.Renderer {
	t.Helper()
	r, err := views.NewRenderer(options...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func TestParseViewType(t *testing.T) {
	cases := map[string]views.ViewType{
		"table":    views.ViewTable,
		" Kanban ": views.ViewKanban,
		"timeline": views.ViewCalendar,
		"map":      views.ViewMap,
		"gantt":    views.ViewTable,
		"":         views.ViewTable,
	}
	for in, want := range cases {
		if got := views.ParseViewType(in); got != want {
			t.Fatalf("ParseViewType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTable_ColumnsFollowSchemaOrder(t *testing.T) {
	r := newRenderer(t)
	s := dealsSchema(t)

	p := r.Build(views.Request{Schema: s, ViewType: views.ViewTable})
	body := p.Body.(*views.TableBody)

	want := []views.Column{
		{Key: "name", Label: "Name", Type: schema.FieldTypeText},
		{Key: "amount", Label: "Amount", Type: schema.FieldTypeCurrency},
		{Key: "weighted", Label: "Weighted", Computed: true},
		{Key: "stage_note", Label: "stage_note"},
		{Key: "owner", Label: "Owner", Type: schema.FieldTypeText},
	}
	if diff := cmp.Diff(want, body.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestTable_VisibleColumnsIntersectInSchemaOrder(t *testing.T) {
	r := newRenderer(t)
	s := dealsSchema(t)

	cases := []struct {
		name    string
		visible []string
		want    []string
	}{
		{"reordered", []string{"owner", "name"}, []string{"name", "owner"}},
		{"unknown ignored", []string{"owner", "ghost"}, []string{"owner"}},
		{"computed", []string{"weighted", "amount"}, []string{"amount", "weighted"}},
		{"none match", []string{"ghost"}, []string{}},
		{"empty means all", nil, []string{"name", "amount", "weighted", "stage_note", "owner"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := r.Build(views.Request{Schema: s, ViewType: views.ViewTable, VisibleColumns: tc.visible})
			body := p.Body.(*views.TableBody)
			got := make([]string, 0, len(body.Columns))
			for _, col := range body.Columns {
				got = append(got, col.Key)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("visible columns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTable_Cells(t *testing.T) {
	r := newRenderer(t)
	data := []schema.Record{
		{"id": "d1", "name": "Arena tour", "amount": 1200.5, "owner": nil},
	}

	p := r.Build(views.Request{
		Schema:   dealsSchema(t),
		ViewType: views.ViewTable,
		Data:     data,
		RowLink:  func(rec schema.Record) string { return "/records/deals/" + rec.ID() },
	})
	body := p.Body.(*views.TableBody)

	want := []views.TableRow{{
		ID:    "d1",
		Href:  "/records/deals/d1",
		Cells: []string{"Arena tour", "1200.5", "600.25", "-", "-"},
	}}
	if diff := cmp.Diff(want, body.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestTable_FallsBackToDeclaredFields(t *testing.T) {
	r := newRenderer(t)
	s := schema.MustNew("notes", []schema.Field{{Key: "title"}, {Key: "body", Label: "Body"}})

	body := r.Build(views.Request{Schema: s}).Body.(*views.TableBody)
	if len(body.Columns) != 2 || body.Columns[0].Label != "title" || body.Columns[1].Label != "Body" {
		t.Fatalf("unexpected fallback columns: %#v", body.Columns)
	}
}

func TestTable_ComputePanicDegradesToDash(t *testing.T) {
	r := newRenderer(t)
	s := schema.MustNew("x", []schema.Field{{Key: "a"}},
		schema.WithComputed(schema.ComputedField{Key: "boom", Compute: func(schema.Record) any { panic("bad data") }}),
		schema.WithViews(schema.Views{Table: &schema.TableView{Columns: []string{"a", "boom"}}}),
	)
	body := r.Build(views.Request{Schema: s, Data: []schema.Record{{"a": 1}}}).Body.(*views.TableBody)
	if diff := cmp.Diff([]string{"1", "-"}, body.Rows[0].Cells); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	r := newRenderer(t)
	data := []schema.Record{{"id": "1", "name": "A", "status": "mystery"}, {"id": "2", "name": "B"}}
	snapshot := []schema.Record{{"id": "1", "name": "A", "status": "mystery"}, {"id": "2", "name": "B"}}

	for _, vt := range views.ViewTypes() {
		r.Build(views.Request{Schema: dealsSchema(t), ViewType: vt, Data: data})
	}
	if diff := cmp.Diff(snapshot, data); diff != "" {
		t.Fatalf("input mutated (-want +got):\n%s", diff)
	}
}

func TestBuild_LoadingAndError(t *testing.T) {
	r := newRenderer(t)
	s := dealsSchema(t)

	loading := r.Build(views.Request{Schema: s, ViewType: views.ViewKanban, Loading: true, Data: []schema.Record{{"id": "x"}}})
	if loading.State != views.StateLoading || loading.Body != nil || loading.Template != "loading" {
		t.Fatalf("loading presentation mismatch: %#v", loading)
	}

	failed := r.Build(views.Request{Schema: s, ViewType: views.ViewGrid, Err: errors.New("upstream timeout")})
	if failed.State != views.StateError || failed.Message != "upstream timeout" {
		t.Fatalf("error presentation mismatch: %#v", failed)
	}
}

func TestBuild_UnknownViewTypeUsesTable(t *testing.T) {
	r := newRenderer(t)
	p := r.Build(views.Request{Schema: dealsSchema(t), ViewType: views.ViewType("gantt")})
	if p.ViewType != views.ViewTable {
		t.Fatalf("expected table fallback, got %q", p.ViewType)
	}
	if _, ok := p.Body.(*views.TableBody); !ok {
		t.Fatalf("expected table body, got %T", p.Body)
	}
}

func TestBuild_DisplayPanicDegradesToError(t *testing.T) {
	r := newRenderer(t)
	s := schema.MustNew("x", nil, schema.WithDisplay(schema.DisplayFuncs{
		TitleFunc: func(schema.Record) string { panic("nope") },
	}))
	p := r.Build(views.Request{Schema: s, ViewType: views.ViewList, Data: []schema.Record{{}}})
	if p.State != views.StateError || p.Template != "error" {
		t.Fatalf("expected error presentation, got %#v", p)
	}
}

func TestGrid_ImagesAndAttributes(t *testing.T) {
	r := newRenderer(t)
	data := []schema.Record{
		{"id": "1", "name": "With logo", "logo": "https://cdn.example.com/a.png", "amount": 10, "owner": ""},
		{"id": "2", "name": "No logo", "amount": 0, "owner": "Grace"},
		{"id": "3", "name": "Bad logo", "logo": "javascript:alert(1)"},
	}

	body := r.Build(views.Request{Schema: dealsSchema(t), ViewType: views.ViewGrid, Data: data}).Body.(*views.GridBody)

	if got := body.Cards[0]; got.Image != "https://cdn.example.com/a.png" || got.ShowPlaceholder {
		t.Fatalf("card 1 image mismatch: %#v", got)
	}
	if diff := cmp.Diff([]views.Attribute{{Key: "amount", Label: "Amount", Value: "10"}}, body.Cards[0].Attributes); diff != "" {
		t.Fatalf("card 1 attributes mismatch (-want +got):\n%s", diff)
	}
	if got := body.Cards[1]; got.Image != "" || !got.ShowPlaceholder {
		t.Fatalf("card 2 should show placeholder: %#v", got)
	}
	if diff := cmp.Diff([]views.Attribute{{Key: "owner", Label: "Owner", Value: "Grace"}}, body.Cards[1].Attributes); diff != "" {
		t.Fatalf("card 2 attributes mismatch (-want +got):\n%s", diff)
	}
	if got := body.Cards[2]; got.Image != "" || !got.ShowPlaceholder {
		t.Fatalf("unsafe image should be dropped: %#v", got)
	}
}

func TestGrid_NoImageFieldNoPlaceholder(t *testing.T) {
	r := newRenderer(t)
	s := schema.MustNew("people", []schema.Field{{Key: "name"}})
	body := r.Build(views.Request{Schema: s, ViewType: views.ViewGrid, Data: []schema.Record{{"name": "Ada"}}}).Body.(*views.GridBody)
	if body.Cards[0].ShowPlaceholder {
		t.Fatalf("placeholder must only show when an image field is configured")
	}

	body = r.Build(views.Request{
		Schema:     s,
		ViewType:   views.ViewGrid,
		Data:       []schema.Record{{"name": "Ada"}},
		ViewConfig: views.ViewConfig{ImageField: "avatar"},
	}).Body.(*views.GridBody)
	if !body.Cards[0].ShowPlaceholder {
		t.Fatalf("configured image field without value should show placeholder")
	}
}

func TestList_ItemsAndEmptyState(t *testing.T) {
	r := newRenderer(t)
	s := dealsSchema(t)

	empty := r.Build(views.Request{Schema: s, ViewType: views.ViewList}).Body.(*views.ListBody)
	if !empty.Empty || len(empty.Items) != 0 {
		t.Fatalf("expected empty list body: %#v", empty)
	}

	body := r.Build(views.Request{
		Schema:   s,
		ViewType: views.ViewList,
		Data:     []schema.Record{{"id": "7", "name": "Festival", "owner": "Lin", "status": "won"}},
		RowLink:  func(rec schema.Record) string { return "#" + rec.ID() },
	}).Body.(*views.ListBody)

	want := []views.Item{{ID: "7", Href: "#7", Title: "Festival", Subtitle: "Lin", Badge: &schema.Badge{Label: "won"}}}
	if diff := cmp.Diff(want, body.Items); diff != "" {
		t.Fatalf("list items mismatch (-want +got):\n%s", diff)
	}
}

func kanbanKeys(body *views.KanbanBody) []string {
	keys := make([]string, 0, len(body.Columns))
	for _, col := range body.Columns {
		keys = append(keys, col.Key)
	}
	return keys
}

func TestKanban_MissingStatusGoesToTodo(t *testing.T) {
	r := newRenderer(t)
	data := []schema.Record{{"id": "a"}, {"id": "b", "status": ""}, {"id": "c", "status": nil}}

	body := r.Build(views.Request{Schema: dealsSchema(t), ViewType: views.ViewKanban, Data: data}).Body.(*views.KanbanBody)

	if diff := cmp.Diff([]string{"todo", "in_progress", "done"}, kanbanKeys(body)); diff != "" {
		t.Fatalf("fallback columns mismatch (-want +got):\n%s", diff)
	}
	if got := len(body.Columns[0].Cards); got != 3 {
		t.Fatalf("expected 3 cards in todo, got %d", got)
	}
}

func TestKanban_UnknownStatusOpensColumn(t *testing.T) {
	r := newRenderer(t)
	s := schema.MustNew("tasks", []schema.Field{
		{Key: "title"},
		{Key: "status", Type: schema.FieldTypeStatus, Options: []schema.Option{
			{Label: "Backlog", Value: "backlog"},
			{Label: "Shipped", Value: "shipped"},
		}},
	})
	data := []schema.Record{
		{"id": "1", "status": "shipped"},
		{"id": "2", "status": "blocked"},
		{"id": "3", "status": "blocked"},
		{"id": "4", "status": "archived"},
	}

	body := r.Build(views.Request{Schema: s, ViewType: views.ViewKanban, Data: data}).Body.(*views.KanbanBody)

	if diff := cmp.Diff([]string{"backlog", "shipped", "blocked", "archived"}, kanbanKeys(body)); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if !body.Columns[2].Dynamic || body.Columns[2].Label != "blocked" || len(body.Columns[2].Cards) != 2 {
		t.Fatalf("dynamic column mismatch: %#v", body.Columns[2])
	}
	total := 0
	for _, col := range body.Columns {
		total += len(col.Cards)
	}
	if total != len(data) {
		t.Fatalf("records dropped: %d of %d placed", total, len(data))
	}
}

func TestKanban_GroupFieldOverride(t *testing.T) {
	r := newRenderer(t)
	s := schema.MustNew("crew", []schema.Field{
		{Key: "department", Type: schema.FieldTypeSelect, Options: []schema.Option{{Label: "Audio", Value: "audio"}}},
	})
	body := r.Build(views.Request{
		Schema:     s,
		ViewType:   views.ViewKanban,
		Data:       []schema.Record{{"department": "audio", "status": "done"}, {"department": "lighting"}},
		ViewConfig: views.ViewConfig{GroupField: "department"},
	}).Body.(*views.KanbanBody)

	if body.GroupField != "department" {
		t.Fatalf("group field mismatch: %q", body.GroupField)
	}
	if diff := cmp.Diff([]string{"audio", "lighting"}, kanbanKeys(body)); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestCalendar_GroupsByDayAndNoDateLast(t *testing.T) {
	r := newRenderer(t)
	s := schema.MustNew("shows", []schema.Field{
		{Key: "name"},
		{Key: "doors", Type: schema.FieldTypeDateTime},
	})
	data := []schema.Record{
		{"id": "late", "name": "Late show", "doors": "2024-06-02T21:00:00Z"},
		{"id": "undated", "name": "TBD"},
		{"id": "early", "name": "Matinee", "doors": "2024-06-01T14:00:00Z"},
		{"id": "same-day", "name": "Encore", "doors": time.Date(2024, 6, 2, 23, 0, 0, 0, time.UTC)},
		{"id": "blank", "name": "Open mic", "doors": "  "},
		{"id": "tbd", "name": "Secret set", "doors": "TBD"},
		{"id": "epoch", "name": "Reunion", "doors": 1717250400},
	}

	body := r.Build(views.Request{Schema: s, ViewType: views.ViewCalendar, Data: data}).Body.(*views.CalendarBody)

	if body.DateField != "doors" {
		t.Fatalf("date field mismatch: %q", body.DateField)
	}
	got := make([]string, 0, len(body.Groups))
	for _, g := range body.Groups {
		ids := ""
		for _, item := range g.Items {
			ids += item.ID + ","
		}
		got = append(got, fmt.Sprintf("%s:%s", g.Label, ids))
	}
	want := []string{
		"Sat Jun 1 2024:early,",
		"Sun Jun 2 2024:late,same-day,",
		"Invalid Date:tbd,epoch,",
		"No Date:undated,blank,",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestDateField_Resolution(t *testing.T) {
	plain := schema.MustNew("x", []schema.Field{{Key: "name"}})
	if got := views.DateField(plain, views.ViewConfig{}); got != "created_at" {
		t.Fatalf("expected created_at default, got %q", got)
	}
	if got := views.DateField(plain, views.ViewConfig{DateField: "due"}); got != "due" {
		t.Fatalf("expected override, got %q", got)
	}
	configured := schema.MustNew("y", []schema.Field{{Key: "d", Type: schema.FieldTypeDate}},
		schema.WithViews(schema.Views{Calendar: &schema.CalendarView{DateField: "starts_at"}}))
	if got := views.DateField(configured, views.ViewConfig{}); got != "starts_at" {
		t.Fatalf("expected calendar view field, got %q", got)
	}
}

func TestMap_Placeholder(t *testing.T) {
	r := newRenderer(t)
	body := r.Build(views.Request{Schema: dealsSchema(t), ViewType: views.ViewMap, Data: []schema.Record{{"id": "1"}}}).Body.(*views.MapBody)
	if body.Message != "Map view requires location data" {
		t.Fatalf("map message mismatch: %q", body.Message)
	}
}

type countStrategy struct{}

func (countStrategy) Type() views.ViewType { return views.ViewMap }
func (countStrategy) Template() string     { return "map" }
func (countStrategy) Build(req views.Request) any {
	return &views.MapBody{Message: fmt.Sprintf("%d locations", len(req.Data))}
}

func TestWithStrategy_ReplacesBuiltin(t *testing.T) {
	r := newRenderer(t, views.WithStrategy(countStrategy{}))
	body := r.Build(views.Request{ViewType: views.ViewMap, Data: []schema.Record{{}, {}}}).Body.(*views.MapBody)
	if body.Message != "2 locations" {
		t.Fatalf("custom strategy not used: %q", body.Message)
	}
}
