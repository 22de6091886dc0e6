package views_test

import (
	"path/filepath"
	"testing"

	"github.com/goliatone/go-viewgen/pkg/testsupport"
	"github.com/goliatone/go-viewgen/pkg/views"
)

func TestRender_ExampleCatalog(t *testing.T) {
	dir := filepath.Join("..", "..", testsupport.ExampleCatalog)
	contacts := testsupport.MustLoadSchema(t, dir, "contacts")
	data := testsupport.MustLoadRecords(t, dir, "contacts")
	if len(data) == 0 {
		t.Fatalf("expected contact fixtures in %s", dir)
	}

	r := newRenderer(t)
	for _, viewType := range []views.ViewType{views.ViewTable, views.ViewGrid, views.ViewList, views.ViewKanban} {
		t.Run(string(viewType), func(t *testing.T) {
			html := renderString(t, r, views.Request{Schema: contacts, ViewType: viewType, Data: data})
			assertContains(t, html, `data-view="`+string(viewType)+`"`, "Ada Lovelace", "Grace Hopper")
		})
	}
}
