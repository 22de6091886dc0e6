// Package format prints record values for the HTML renderers. Grouping and
// currency codes come from golang.org/x/text so output follows the configured
// language.
package format
