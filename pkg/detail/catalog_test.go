package detail_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-viewgen/pkg/detail"
	"github.com/goliatone/go-viewgen/pkg/schema"
	"github.com/goliatone/go-viewgen/pkg/testsupport"
)

func TestRender_ExampleCatalog(t *testing.T) {
	dir := filepath.Join("..", "..", testsupport.ExampleCatalog)
	desc := testsupport.MustLoadPage(t, dir, "contacts")
	contacts := testsupport.MustLoadRecords(t, dir, "contacts")
	deals := testsupport.MustLoadRecords(t, dir, "deals")

	var related []schema.Record
	for _, deal := range deals {
		if deal.String("contact_id") == "c1" {
			related = append(related, deal)
		}
	}

	r, err := detail.NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.Render(context.Background(), detail.Input{
		Descriptor: desc,
		Data:       contacts[0],
		Related:    map[string][]schema.Record{"deals": related},
		ActiveTab:  "deals",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	for _, want := range []string{"Ada Lovelace", "Engine retrofit", "/records/deals/d1"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output:\n%s", want, html)
		}
	}
}
