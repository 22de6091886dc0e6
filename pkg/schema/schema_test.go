package schema_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-viewgen/pkg/schema"
)

func TestNew_RejectsDuplicateKeys(t *testing.T) {
	_, err := schema.New("deals", []schema.Field{{Key: "name"}, {Key: " name "}})
	if err == nil || !strings.Contains(err.Error(), "duplicate field key") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestNew_RejectsEmptyKeyAndEntity(t *testing.T) {
	if _, err := schema.New("", nil); err == nil {
		t.Fatalf("expected error for empty entity")
	}
	if _, err := schema.New("deals", []schema.Field{{Label: "Nameless"}}); err == nil {
		t.Fatalf("expected error for empty field key")
	}
}

func TestNew_DefaultsTypeAndCopiesOptions(t *testing.T) {
	options := []schema.Option{{Label: "Open", Value: "open"}}
	s := schema.MustNew("tickets", []schema.Field{
		{Key: "title"},
		{Key: "state", Type: schema.FieldTypeStatus, Options: options},
	})
	options[0].Label = "mutated"

	title, ok := s.Field("title")
	if !ok || title.Type != schema.FieldTypeText {
		t.Fatalf("expected text default, got %#v", title)
	}
	state, _ := s.Field("state")
	if got := state.OptionLabel("open"); got != "Open" {
		t.Fatalf("option label mismatch: %q", got)
	}
	if got := state.OptionLabel("closed"); got != "closed" {
		t.Fatalf("unknown option should echo value, got %q", got)
	}
}

func TestSchema_FirstFieldOfType(t *testing.T) {
	s := schema.MustNew("events", []schema.Field{
		{Key: "name"},
		{Key: "load_in", Type: schema.FieldTypeDateTime},
		{Key: "show_date", Type: schema.FieldTypeDate},
	})

	field, ok := s.FirstFieldOfType(schema.FieldTypeDate, schema.FieldTypeDateTime)
	if !ok || field.Key != "load_in" {
		t.Fatalf("expected load_in, got %#v (ok=%v)", field, ok)
	}
	if _, ok := s.FirstFieldOfType(schema.FieldTypeImage); ok {
		t.Fatalf("expected no image field")
	}
}

func TestSchema_ComputedFields(t *testing.T) {
	s := schema.MustNew("invoices", []schema.Field{{Key: "net"}, {Key: "tax"}},
		schema.WithComputed(schema.ComputedField{
			Key:   "gross",
			Label: "Gross",
			Compute: func(r schema.Record) any {
				net, _ := r.Value("net").(float64)
				tax, _ := r.Value("tax").(float64)
				return net + tax
			},
		}, schema.ComputedField{Key: "ignored"}),
	)

	gross, ok := s.Computed("gross")
	if !ok {
		t.Fatalf("computed field gross missing")
	}
	if got := gross.Compute(schema.Record{"net": 100.0, "tax": 21.0}); got != 121.0 {
		t.Fatalf("computed value mismatch: %v", got)
	}
	if _, ok := s.Computed("ignored"); ok {
		t.Fatalf("computed field without Compute should be skipped")
	}
}

func TestFieldDisplay(t *testing.T) {
	display := schema.FieldDisplay{
		TitleField:    "name",
		SubtitleField: "company",
		BadgeField:    "status",
		BadgeVariants: map[string]string{"active": "success"},
	}
	record := schema.Record{"name": "Ada", "company": "Analytical", "status": "active"}

	got := []any{display.Title(record), display.Subtitle(record), display.Badge(record)}
	want := []any{"Ada", "Analytical", &schema.Badge{Label: "active", Variant: "success"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("display mismatch (-want +got):\n%s", diff)
	}

	if badge := display.Badge(schema.Record{"name": "Ada"}); badge != nil {
		t.Fatalf("expected nil badge for missing value, got %#v", badge)
	}
}

func TestFieldDisplay_TitleFallbacks(t *testing.T) {
	var display schema.FieldDisplay
	cases := map[string]struct {
		record schema.Record
		want   string
	}{
		"name":  {schema.Record{"name": "Venue A", "id": "v1"}, "Venue A"},
		"title": {schema.Record{"title": "Load in", "id": "t1"}, "Load in"},
		"id":    {schema.Record{"id": 42}, "42"},
		"empty": {schema.Record{}, ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := display.Title(tc.record); got != tc.want {
				t.Fatalf("title mismatch: want %q got %q", tc.want, got)
			}
		})
	}
}

func TestDisplayFuncs(t *testing.T) {
	display := schema.DisplayFuncs{
		SubtitleFunc: func(r schema.Record) string { return strings.ToUpper(r.String("city")) },
	}
	record := schema.Record{"name": "Warehouse", "city": "Lisbon"}

	if got := display.Title(record); got != "Warehouse" {
		t.Fatalf("title fallback mismatch: %q", got)
	}
	if got := display.Subtitle(record); got != "LISBON" {
		t.Fatalf("subtitle mismatch: %q", got)
	}
	if display.Badge(record) != nil {
		t.Fatalf("expected nil badge")
	}
}

func TestSchema_DisplayNeverNil(t *testing.T) {
	s := schema.MustNew("people", []schema.Field{{Key: "name"}})
	if s.Display() == nil {
		t.Fatalf("display should default to FieldDisplay")
	}
	var missing *schema.Schema
	if missing.Display() == nil {
		t.Fatalf("nil schema display should still be usable")
	}
}
