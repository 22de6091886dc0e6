package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-viewgen/pkg/format"
	"github.com/goliatone/go-viewgen/pkg/render"
	"github.com/goliatone/go-viewgen/pkg/schema"
)

// Built-in component keys.
const (
	ComponentStat       = "stat"
	ComponentRecordList = "record-list"
	ComponentLiveCost   = "live-cost"
	ComponentNotes      = "notes"
)

// DefaultRecordListLimit is used when a record-list widget has no limit.
const DefaultRecordListLimit = 5

// RecordSource returns the latest records of an entity.
type RecordSource interface {
	List(ctx context.Context, entity string, limit int) ([]schema.Record, error)
}

// CostSnapshot is the latest reading of the running production cost feed.
type CostSnapshot struct {
	Total    float64   `json:"total"`
	Currency string    `json:"currency"`
	PerHour  float64   `json:"perHour"`
	AsOf     time.Time `json:"asOf"`
}

// CostSource returns the most recent cost snapshot. A zero AsOf means no
// reading has arrived yet.
type CostSource interface {
	Latest(ctx context.Context) (CostSnapshot, error)
}

// Notice is a component error whose text is safe to show on the error card.
type Notice string

func (n Notice) Error() string { return string(n) }

// SchemaLookup resolves entity schemas for record titles.
type SchemaLookup func(entity string) (*schema.Schema, error)

// BuiltinDeps carries the data sources of the built-in widgets. Missing
// sources turn the affected widgets into error cards.
type BuiltinDeps struct {
	Records   RecordSource
	Costs     CostSource
	Schemas   SchemaLookup
	Formatter *format.Formatter
}

// BuiltinDefinitions lists the catalog entries of the built-in widgets.
func BuiltinDefinitions() []WidgetDefinition {
	return []WidgetDefinition{
		{
			ID:          "stat",
			Name:        "Stat",
			Description: "A single figure with a caption",
			Category:    "General",
			Component:   ComponentStat,
			DefaultSize: SizeSmall,
			DefaultConfig: map[string]any{
				"label": "Metric",
			},
			ConfigSchema: []ConfigField{
				{Key: "label", Label: "Label", Type: ConfigText, Default: "Metric"},
				{Key: "value", Label: "Value", Type: ConfigNumber},
				{Key: "unit", Label: "Unit", Type: ConfigText},
			},
		},
		{
			ID:          "recent-records",
			Name:        "Recent records",
			Description: "Latest records of an entity",
			Category:    "Data",
			Component:   ComponentRecordList,
			DefaultSize: SizeMedium,
			DefaultConfig: map[string]any{
				"limit": float64(DefaultRecordListLimit),
			},
			ConfigSchema: []ConfigField{
				{Key: "entity", Label: "Entity", Type: ConfigText},
				{Key: "limit", Label: "Rows", Type: ConfigNumber, Default: float64(DefaultRecordListLimit)},
				{Key: "showSubtitle", Label: "Show subtitle", Type: ConfigBoolean, Default: true},
			},
		},
		{
			ID:          "live-cost",
			Name:        "Live production cost",
			Description: "Running cost from the live feed",
			Category:    "Finance",
			Component:   ComponentLiveCost,
			DefaultSize: SizeSmall,
		},
		{
			ID:          "notes",
			Name:        "Notes",
			Description: "Free text pinned to the dashboard",
			Category:    "General",
			Component:   ComponentNotes,
			DefaultSize: SizeMedium,
			ConfigSchema: []ConfigField{
				{Key: "text", Label: "Text", Type: ConfigText},
			},
		},
	}
}

// RegisterBuiltins defines the built-in widgets and registers their
// components on b.
func RegisterBuiltins(b *Builder, deps BuiltinDeps) *Builder {
	if deps.Formatter == nil {
		deps.Formatter = format.Default()
	}
	return b.Define(BuiltinDefinitions()...).
		Component(ComponentStat, statComponent{formatter: deps.Formatter}).
		Component(ComponentRecordList, recordListComponent{deps: deps}).
		Component(ComponentLiveCost, liveCostComponent{deps: deps}).
		Component(ComponentNotes, ComponentFunc(renderNotes))
}

type statComponent struct {
	formatter *format.Formatter
}

func (c statComponent) Render(_ context.Context, w Widget) (Content, error) {
	value := format.Empty
	if raw, ok := w.Config["value"]; ok && raw != nil {
		value = c.formatter.Number(raw)
	}
	return Content{
		Template: "widgets/stat",
		Data: map[string]any{
			"label": configString(w.Config, "label"),
			"value": value,
			"unit":  configString(w.Config, "unit"),
		},
	}, nil
}

type recordListComponent struct {
	deps BuiltinDeps
}

type recordListItem struct {
	ID       string `json:"id"`
	Href     string `json:"href,omitempty"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

func (c recordListComponent) Render(ctx context.Context, w Widget) (Content, error) {
	entity := configString(w.Config, "entity")
	if entity == "" {
		return Content{}, Notice("Choose an entity to list")
	}
	if c.deps.Records == nil {
		return Content{}, Notice("No record source configured")
	}
	limit := DefaultRecordListLimit
	if n, ok := format.ToFloat(w.Config["limit"]); ok && n >= 1 {
		limit = int(n)
	}
	records, err := c.deps.Records.List(ctx, entity, limit)
	if err != nil {
		return Content{}, fmt.Errorf("dashboard: list %s: %w", entity, err)
	}

	display := schema.Displayable(schema.FieldDisplay{})
	label := entity
	if c.deps.Schemas != nil {
		if s, err := c.deps.Schemas(entity); err == nil {
			display = s.Display()
			if s.LabelPlural != "" {
				label = s.LabelPlural
			}
		}
	}

	showSubtitle := true
	if raw, ok := w.Config["showSubtitle"]; ok {
		showSubtitle = format.Truthy(raw)
	}
	items := make([]recordListItem, 0, len(records))
	for _, rec := range records {
		if len(items) == limit {
			break
		}
		item := recordListItem{ID: rec.ID(), Title: display.Title(rec)}
		if item.ID != "" {
			item.Href = "/records/" + entity + "/" + item.ID
		}
		if showSubtitle {
			item.Subtitle = display.Subtitle(rec)
		}
		items = append(items, item)
	}
	return Content{
		Template: "widgets/record-list",
		Data: map[string]any{
			"entity": entity,
			"label":  label,
			"items":  items,
		},
	}, nil
}

type liveCostComponent struct {
	deps BuiltinDeps
}

func (c liveCostComponent) Render(ctx context.Context, _ Widget) (Content, error) {
	if c.deps.Costs == nil {
		return Content{}, Notice("Live feed is not configured")
	}
	snap, err := c.deps.Costs.Latest(ctx)
	if err != nil {
		return Content{}, fmt.Errorf("dashboard: live cost: %w", err)
	}
	data := map[string]any{"waiting": snap.AsOf.IsZero()}
	if !snap.AsOf.IsZero() {
		f := c.deps.Formatter
		data["total"] = f.Currency(snap.Total, snap.Currency)
		data["perHour"] = f.Currency(snap.PerHour, snap.Currency)
		data["asOf"] = f.DateTime(snap.AsOf)
	}
	return Content{Template: "widgets/live-cost", Data: data}, nil
}

func renderNotes(_ context.Context, w Widget) (Content, error) {
	text := configString(w.Config, "text")
	if text == "" {
		return Content{HTML: `<p class="vg-widget__empty">No notes yet</p>`}, nil
	}
	return Content{HTML: `<div class="vg-notes">` + render.SanitizeHTML(text) + `</div>`}, nil
}

func configString(cfg map[string]any, key string) string {
	v, ok := cfg[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
