package dashboard

import (
	"fmt"
	"sort"
)

// Position is a widget's grid cell.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Widget is one placed instance of a definition.
type Widget struct {
	ID       string         `json:"id"`
	WidgetID string         `json:"widgetId"`
	Position Position       `json:"position"`
	Size     Size           `json:"size"`
	Config   map[string]any `json:"config,omitempty"`
}

// Layout is a user's dashboard. Values are treated as immutable: every
// transform below returns a fresh copy.
type Layout struct {
	Widgets []Widget `json:"widgets"`
}

// Clone deep-copies the layout including widget configs.
func (l Layout) Clone() Layout {
	out := Layout{Widgets: make([]Widget, len(l.Widgets))}
	for i, w := range l.Widgets {
		w.Config = cloneConfig(w.Config)
		out.Widgets[i] = w
	}
	return out
}

// Find returns the widget with id.
func (l Layout) Find(id string) (Widget, bool) {
	for _, w := range l.Widgets {
		if w.ID == id {
			w.Config = cloneConfig(w.Config)
			return w, true
		}
	}
	return Widget{}, false
}

// Validate reports duplicate or empty widget ids.
func (l Layout) Validate() error {
	seen := make(map[string]struct{}, len(l.Widgets))
	for i, w := range l.Widgets {
		if w.ID == "" {
			return fmt.Errorf("dashboard: widget %d has no id", i)
		}
		if _, dup := seen[w.ID]; dup {
			return fmt.Errorf("dashboard: duplicate widget id %q", w.ID)
		}
		seen[w.ID] = struct{}{}
	}
	return nil
}

// Ordered returns the widgets sorted by row then column, keeping insertion
// order for ties.
func (l Layout) Ordered() []Widget {
	out := l.Clone().Widgets
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position.Y != out[j].Position.Y {
			return out[i].Position.Y < out[j].Position.Y
		}
		return out[i].Position.X < out[j].Position.X
	})
	return out
}

// NextRow returns the row a new widget is placed on: 0 for an empty layout,
// otherwise one past the lowest widget.
func (l Layout) NextRow() int {
	if len(l.Widgets) == 0 {
		return 0
	}
	maxY := l.Widgets[0].Position.Y
	for _, w := range l.Widgets[1:] {
		if w.Position.Y > maxY {
			maxY = w.Position.Y
		}
	}
	return maxY + 1
}

// AddWidget appends an instance of def with the given id at x=0 on the next
// free row, using the definition's default size and config.
func AddWidget(l Layout, def WidgetDefinition, id string) Layout {
	out := l.Clone()
	size := def.DefaultSize
	if !size.Valid() {
		size = SizeMedium
	}
	out.Widgets = append(out.Widgets, Widget{
		ID:       id,
		WidgetID: def.ID,
		Position: Position{X: 0, Y: l.NextRow()},
		Size:     size,
		Config:   cloneConfig(def.DefaultConfig),
	})
	return out
}

// RemoveWidget drops the widget with id.
func RemoveWidget(l Layout, id string) Layout {
	out := Layout{Widgets: make([]Widget, 0, len(l.Widgets))}
	for _, w := range l.Clone().Widgets {
		if w.ID != id {
			out.Widgets = append(out.Widgets, w)
		}
	}
	return out
}

// ResizeWidget replaces the size of the widget with id. Invalid sizes leave
// the layout unchanged.
func ResizeWidget(l Layout, id string, size Size) Layout {
	out := l.Clone()
	if !size.Valid() {
		return out
	}
	for i := range out.Widgets {
		if out.Widgets[i].ID == id {
			out.Widgets[i].Size = size
		}
	}
	return out
}

// UpdateWidgetConfig shallow-merges partial into the config of the widget
// with id.
func UpdateWidgetConfig(l Layout, id string, partial map[string]any) Layout {
	out := l.Clone()
	for i := range out.Widgets {
		if out.Widgets[i].ID != id {
			continue
		}
		if out.Widgets[i].Config == nil {
			out.Widgets[i].Config = make(map[string]any, len(partial))
		}
		for k, v := range partial {
			out.Widgets[i].Config[k] = v
		}
	}
	return out
}

// MoveWidget sets the position of the widget with id. Coordinates are
// clamped at zero.
func MoveWidget(l Layout, id string, pos Position) Layout {
	out := l.Clone()
	if pos.X < 0 {
		pos.X = 0
	}
	if pos.Y < 0 {
		pos.Y = 0
	}
	for i := range out.Widgets {
		if out.Widgets[i].ID == id {
			out.Widgets[i].Position = pos
		}
	}
	return out
}
