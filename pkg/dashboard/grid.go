package dashboard

import (
	"fmt"

	"github.com/google/uuid"
)

// Grid applies layout mutations and reports every new layout through
// OnLayoutChange. Persisting the layout is the callback's job.
type Grid struct {
	Layout         Layout
	Editing        bool
	OnLayoutChange func(Layout)

	newID func() string
}

// GridOption configures a Grid.
type GridOption func(*Grid)

// WithIDGenerator replaces the UUIDv4 id generator.
func WithIDGenerator(fn func() string) GridOption {
	return func(g *Grid) {
		if fn != nil {
			g.newID = fn
		}
	}
}

// WithLayoutChange sets the change callback.
func WithLayoutChange(fn func(Layout)) GridOption {
	return func(g *Grid) {
		g.OnLayoutChange = fn
	}
}

// WithEditing toggles the editing controls.
func WithEditing(editing bool) GridOption {
	return func(g *Grid) {
		g.Editing = editing
	}
}

// NewGrid wraps layout.
func NewGrid(layout Layout, options ...GridOption) *Grid {
	g := &Grid{
		Layout: layout.Clone(),
		newID:  uuid.NewString,
	}
	for _, opt := range options {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// AddWidget places a new instance of def and returns it.
func (g *Grid) AddWidget(def WidgetDefinition) (Widget, error) {
	if def.ID == "" {
		return Widget{}, fmt.Errorf("dashboard: definition id is required")
	}
	id := g.newID()
	if _, exists := g.Layout.Find(id); exists {
		return Widget{}, fmt.Errorf("dashboard: generated widget id %q already in layout", id)
	}
	g.apply(AddWidget(g.Layout, def, id))
	w, _ := g.Layout.Find(id)
	return w, nil
}

func (g *Grid) RemoveWidget(id string) {
	g.apply(RemoveWidget(g.Layout, id))
}

func (g *Grid) ResizeWidget(id string, size Size) {
	g.apply(ResizeWidget(g.Layout, id, size))
}

func (g *Grid) UpdateWidgetConfig(id string, partial map[string]any) {
	g.apply(UpdateWidgetConfig(g.Layout, id, partial))
}

// MoveWidget handles a drop: pos is the grid cell under the pointer.
func (g *Grid) MoveWidget(id string, pos Position) {
	g.apply(MoveWidget(g.Layout, id, pos))
}

// ToggleEditing flips the editing flag. The layout is not reported.
func (g *Grid) ToggleEditing() {
	g.Editing = !g.Editing
}

func (g *Grid) apply(next Layout) {
	g.Layout = next
	if g.OnLayoutChange != nil {
		g.OnLayoutChange(next.Clone())
	}
}
