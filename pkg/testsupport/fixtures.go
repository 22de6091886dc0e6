// Package testsupport holds fixture helpers shared by renderer and server
// tests. Helpers fail the test instead of returning errors.
package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/goliatone/go-viewgen/internal/records"
	"github.com/goliatone/go-viewgen/pkg/detail"
	"github.com/goliatone/go-viewgen/pkg/schema"
)

// ExampleCatalog is the sample catalog shipped with the repository, relative
// to the module root.
const ExampleCatalog = "examples/catalog"

// MustLoadSchema loads the schema catalog in dir and returns entity.
func MustLoadSchema(t *testing.T, dir, entity string) *schema.Schema {
	t.Helper()

	catalog, err := schema.LoadFS(os.DirFS(dir))
	if err != nil {
		t.Fatalf("load schemas from %s: %v", dir, err)
	}
	s, err := catalog.Schema(entity)
	if err != nil {
		t.Fatalf("schema %s: %v", entity, err)
	}
	return s
}

// MustLoadPage loads the detail page descriptor of entity from dir.
func MustLoadPage(t *testing.T, dir, entity string) detail.Descriptor {
	t.Helper()

	catalog, err := detail.LoadFS(os.DirFS(dir))
	if err != nil {
		t.Fatalf("load pages from %s: %v", dir, err)
	}
	desc, err := catalog.Descriptor(entity)
	if err != nil {
		t.Fatalf("page %s: %v", entity, err)
	}
	return desc
}

// MustLoadRecords returns the fixture records of entity stored in dir, in
// file order.
func MustLoadRecords(t *testing.T, dir, entity string) []schema.Record {
	t.Helper()

	mem, err := records.LoadFixtures(os.DirFS(dir))
	if err != nil {
		t.Fatalf("load records from %s: %v", dir, err)
	}
	rows, err := mem.List(context.Background(), entity, records.Query{})
	if err != nil {
		t.Fatalf("list %s: %v", entity, err)
	}
	return rows
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents. Tests can assert
// the renderer returns and writes the same payload without duplicating buffer
// setup.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
