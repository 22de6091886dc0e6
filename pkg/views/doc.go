// Package views renders schema-described record collections through
// interchangeable strategies: table, grid, list, kanban, calendar and map.
//
// Renderer.Build is a pure function of its Request and returns a
// Presentation; Renderer.Render feeds that presentation to the bundled pongo2
// templates. Neither mutates the request data, and unknown view types render
// as tables.
package views
