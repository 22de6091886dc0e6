package template

import (
	"io"
)

// TemplateRenderer is the seam every HTML renderer in go-viewgen writes
// through. Views, detail pages and dashboards only depend on this contract so
// callers can swap the bundled pongo2 engine for their own implementation.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
