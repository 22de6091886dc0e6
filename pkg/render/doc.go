// Package render holds the pieces shared by the viewgen HTML renderers: the
// go-theme context handed to templates and the document shell that wraps
// rendered fragments into full pages.
package render
