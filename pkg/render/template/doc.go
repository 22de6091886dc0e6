// Package template defines the renderer-agnostic template contract shared by
// the view, detail and dashboard renderers. The gotemplate subpackage provides
// the default pongo2-backed implementation.
package template
