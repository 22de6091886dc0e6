package views

import (
	"strings"

	"github.com/goliatone/go-viewgen/pkg/schema"
)

// ViewType selects a rendering strategy.
type ViewType string

const (
	ViewTable    ViewType = "table"
	ViewGrid     ViewType = "grid"
	ViewList     ViewType = "list"
	ViewKanban   ViewType = "kanban"
	ViewCalendar ViewType = "calendar"
	ViewMap      ViewType = "map"
)

// ViewTypes lists the supported view types in menu order.
func ViewTypes() []ViewType {
	return []ViewType{ViewTable, ViewGrid, ViewList, ViewKanban, ViewCalendar, ViewMap}
}

// ParseViewType maps a tag to a ViewType. Unknown tags select the table.
func ParseViewType(tag string) ViewType {
	switch vt := ViewType(strings.ToLower(strings.TrimSpace(tag))); vt {
	case ViewTable, ViewGrid, ViewList, ViewKanban, ViewCalendar, ViewMap:
		return vt
	case "timeline":
		return ViewCalendar
	default:
		return ViewTable
	}
}

// ViewConfig overrides the schema's per-view hints for one request.
type ViewConfig struct {
	ImageField string   `json:"imageField,omitempty"`
	CardFields []string `json:"cardFields,omitempty"`
	GroupField string   `json:"groupField,omitempty"`
	DateField  string   `json:"dateField,omitempty"`
}

// Request is the input of one render pass. Data is treated as read-only.
type Request struct {
	Schema         *schema.Schema
	ViewType       ViewType
	Data           []schema.Record
	ViewConfig     ViewConfig
	Loading        bool
	Err            error
	VisibleColumns []string
	RowLink        func(schema.Record) string
}

// State of a presentation.
type State string

const (
	StateReady   State = "ready"
	StateLoading State = "loading"
	StateError   State = "error"
)

// Presentation is the template-ready output of a strategy.
type Presentation struct {
	ViewType ViewType `json:"viewType"`
	State    State    `json:"state"`
	Message  string   `json:"message,omitempty"`
	Template string   `json:"-"`
	Body     any      `json:"body,omitempty"`
}

// Column is a resolved table column.
type Column struct {
	Key      string           `json:"key"`
	Label    string           `json:"label"`
	Type     schema.FieldType `json:"type,omitempty"`
	Computed bool             `json:"computed,omitempty"`
}

// TableRow holds the stringified cells of one record.
type TableRow struct {
	ID    string   `json:"id,omitempty"`
	Href  string   `json:"href,omitempty"`
	Cells []string `json:"cells"`
}

// TableBody is the table strategy output.
type TableBody struct {
	Columns []Column   `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

// Item is the shared title/subtitle/badge representation used by the list,
// kanban and calendar strategies.
type Item struct {
	ID       string        `json:"id,omitempty"`
	Href     string        `json:"href,omitempty"`
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle,omitempty"`
	Badge    *schema.Badge `json:"badge,omitempty"`
}

// Attribute is one label/value pair of a card's attribute strip.
type Attribute struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Card is a grid card.
type Card struct {
	Item
	Image           string      `json:"image,omitempty"`
	ShowPlaceholder bool        `json:"showPlaceholder,omitempty"`
	Attributes      []Attribute `json:"attributes,omitempty"`
}

// GridBody is the grid strategy output.
type GridBody struct {
	Cards []Card `json:"cards"`
}

// ListBody is the list strategy output.
type ListBody struct {
	Items []Item `json:"items"`
	Empty bool   `json:"empty"`
}

// KanbanColumn is one bucket of the board.
type KanbanColumn struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Dynamic bool   `json:"dynamic,omitempty"`
	Cards   []Item `json:"cards"`
}

// KanbanBody is the kanban strategy output.
type KanbanBody struct {
	GroupField string         `json:"groupField"`
	Columns    []KanbanColumn `json:"columns"`
}

// CalendarGroup is one day bucket.
type CalendarGroup struct {
	Label string `json:"label"`
	Items []Item `json:"items"`
}

// CalendarBody is the calendar strategy output.
type CalendarBody struct {
	DateField string          `json:"dateField"`
	Groups    []CalendarGroup `json:"groups"`
}

// MapBody is the placeholder shown by the map strategy.
type MapBody struct {
	Message string `json:"message"`
}
