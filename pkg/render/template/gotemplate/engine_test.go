package gotemplate_test

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-viewgen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-viewgen/pkg/testsupport"
)

//go:embed testdata/templates/*.tmpl
var embeddedTemplates embed.FS

func TestEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})

	want := "<p>Hello Ada</p>"
	if strings.TrimSpace(result) != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != result {
		t.Fatalf("writer mismatch\nwant: %q\n got: %q", result, written)
	}
}

func TestEngine_EscapesValues(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.RenderTemplate("hello", map[string]any{"name": "<script>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(result, "<script>") {
		t.Fatalf("expected autoescaped output, got %q", result)
	}
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"tenant": map[string]any{"name": "Northwind Live", "plan": "pro"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "<p>Northwind Live (pro)</p>"; strings.TrimSpace(result) != want {
		t.Fatalf("global context mismatch\nwant: %q\n got: %q", want, result)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		if input == nil {
			return "", nil
		}
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}

	result, err := engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "<p>ADA!</p>"; strings.TrimSpace(result) != want {
		t.Fatalf("filter mismatch\nwant: %q\n got: %q", want, result)
	}

	if err := engine.RegisterFilter("shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter registration to fail")
	}
}

func TestEngine_DefaultFilters(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.RenderTemplate("defaults", map[string]any{"owner": "ada lovelace"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "<span>-</span><span>AL</span>"; strings.TrimSpace(result) != want {
		t.Fatalf("default filters mismatch\nwant: %q\n got: %q", want, result)
	}
}

func TestEngine_StructDataUsesJSONNames(t *testing.T) {
	engine := newEngine(t)

	type column struct {
		Label string `json:"label"`
	}
	payload := struct {
		Columns []column `json:"columns"`
	}{Columns: []column{{Label: "Name"}, {Label: "Stage"}}}

	result, err := engine.RenderTemplate("struct", payload)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "<th>Name</th><th>Stage</th>"; strings.TrimSpace(result) != want {
		t.Fatalf("struct data mismatch\nwant: %q\n got: %q", want, result)
	}
}

func TestEngine_RenderStringDetectsInlineContent(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.Render("{{ a }}-{{ b }}", map[string]any{"a": "x", "b": "y"})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if result != "x-y" {
		t.Fatalf("inline render mismatch: %q", result)
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error when no template source configured")
	}
}

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}

	engine, err := gotemplate.New(gotemplate.WithFS(templatesFS))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
