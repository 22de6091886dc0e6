package render

// ContentTypeHTML is the content type of every HTML renderer in viewgen.
const ContentTypeHTML = "text/html; charset=utf-8"

// Renderer is the metadata shared by the view, detail and dashboard renderers.
// Each package exposes its own typed Render method.
type Renderer interface {
	Name() string
	ContentType() string
}
