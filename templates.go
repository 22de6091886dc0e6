package viewgen

import (
	"io/fs"

	"github.com/goliatone/go-viewgen/pkg/dashboard"
	"github.com/goliatone/go-viewgen/pkg/detail"
	"github.com/goliatone/go-viewgen/pkg/views"
)

// EmbeddedTemplates exposes the built-in template bundles keyed by renderer
// name ("views", "detail", "dashboard") so callers can copy or override them.
func EmbeddedTemplates() map[string]fs.FS {
	return map[string]fs.FS{
		"views":     views.TemplatesFS(),
		"detail":    detail.TemplatesFS(),
		"dashboard": dashboard.TemplatesFS(),
	}
}
