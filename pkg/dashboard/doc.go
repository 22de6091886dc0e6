// Package dashboard lays out user-configurable dashboards.
//
// A Registry, frozen by Builder.Build, maps widget definitions to the
// components that render them. A Layout holds the placed widget instances;
// the functions in layout.go are pure transforms over it and Grid applies them
// while reporting every new layout through OnLayoutChange. Renderer resolves
// each instance against the registry, renders the bodies concurrently and
// emits the grid, falling back to a "Widget not found" card for unknown ids
// and an error card when a component fails.
package dashboard
