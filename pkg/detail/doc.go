// Package detail composes single-record pages from a Descriptor: a header,
// optional breadcrumbs and actions, and info, related-list, description,
// metadata and placeholder sections laid out flat or inside tabs.
//
// Descriptors are authored in Go or loaded from YAML/JSON where a "type"
// key selects the section variant. Actions are dispatched through
// ActionHandler to an injected Dispatcher.
package detail
