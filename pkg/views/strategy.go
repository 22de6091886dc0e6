package views

import (
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-viewgen/pkg/format"
	"github.com/goliatone/go-viewgen/pkg/schema"
)

// Strategy builds the presentation body for one view type. Build must not
// mutate the request and must not panic on malformed data.
type Strategy interface {
	Type() ViewType
	Template() string
	Build(req Request) any
}

// DefaultKanbanColumns are used when the group field declares no options.
var DefaultKanbanColumns = []schema.Option{
	{Label: "To Do", Value: "todo"},
	{Label: "In Progress", Value: "in_progress"},
	{Label: "Done", Value: "done"},
}

const (
	defaultGroupField = "status"
	defaultStatus     = "todo"
	defaultDateField  = "created_at"
	noDateLabel       = "No Date"
	invalidDateLabel  = "Invalid Date"
	mapMessage        = "Map view requires location data"
)

type tableStrategy struct{}

func (tableStrategy) Type() ViewType   { return ViewTable }
func (tableStrategy) Template() string { return "table" }

func (tableStrategy) Build(req Request) any {
	columns := ResolveColumns(req.Schema, req.VisibleColumns)
	body := &TableBody{Columns: columns, Rows: make([]TableRow, 0, len(req.Data))}
	for _, record := range req.Data {
		row := TableRow{
			ID:    record.ID(),
			Href:  rowLink(req, record),
			Cells: make([]string, 0, len(columns)),
		}
		for _, col := range columns {
			row.Cells = append(row.Cells, format.Cell(columnValue(req.Schema, col, record)))
		}
		body.Rows = append(body.Rows, row)
	}
	return body
}

// ResolveColumns derives the table columns of s. Column keys come from the
// table view (or every declared field when no table view exists); keys
// resolve against fields then computed fields and fall back to the raw key as
// label. A non-empty visible list filters the result while keeping the
// schema's order.
func ResolveColumns(s *schema.Schema, visible []string) []Column {
	keys := tableKeys(s)

	var allowed map[string]struct{}
	if len(visible) > 0 {
		allowed = make(map[string]struct{}, len(visible))
		for _, key := range visible {
			allowed[strings.TrimSpace(key)] = struct{}{}
		}
	}

	columns := make([]Column, 0, len(keys))
	for _, key := range keys {
		if allowed != nil {
			if _, ok := allowed[key]; !ok {
				continue
			}
		}
		columns = append(columns, resolveColumn(s, key))
	}
	return columns
}

func tableKeys(s *schema.Schema) []string {
	if table := s.Views().Table; table != nil {
		return append([]string(nil), table.Columns...)
	}
	fields := s.Fields()
	keys := make([]string, 0, len(fields))
	for _, field := range fields {
		keys = append(keys, field.Key)
	}
	return keys
}

func resolveColumn(s *schema.Schema, key string) Column {
	if field, ok := s.Field(key); ok {
		return Column{Key: key, Label: field.DisplayLabel(), Type: field.Type}
	}
	if computed, ok := s.Computed(key); ok {
		label := computed.Label
		if label == "" {
			label = key
		}
		return Column{Key: key, Label: label, Type: computed.Type, Computed: true}
	}
	return Column{Key: key, Label: key}
}

func columnValue(s *schema.Schema, col Column, record schema.Record) (value any) {
	if !col.Computed {
		return record.Value(col.Key)
	}
	computed, ok := s.Computed(col.Key)
	if !ok {
		return nil
	}
	defer func() {
		if recover() != nil {
			value = nil
		}
	}()
	return computed.Compute(record)
}

type gridStrategy struct{}

func (gridStrategy) Type() ViewType   { return ViewGrid }
func (gridStrategy) Template() string { return "grid" }

func (gridStrategy) Build(req Request) any {
	imageField := req.ViewConfig.ImageField
	cardFields := req.ViewConfig.CardFields
	if grid := req.Schema.Views().Grid; grid != nil {
		if imageField == "" {
			imageField = grid.ImageField
		}
		if len(cardFields) == 0 {
			cardFields = grid.CardFields
		}
	}

	body := &GridBody{Cards: make([]Card, 0, len(req.Data))}
	for _, record := range req.Data {
		card := Card{Item: buildItem(req, record)}
		if imageField != "" {
			if value := record.Value(imageField); format.Truthy(value) {
				card.Image = safeImageURL(record.String(imageField))
			}
			card.ShowPlaceholder = card.Image == ""
		}
		for _, key := range cardFields {
			value := record.Value(key)
			if !format.Truthy(value) {
				continue
			}
			card.Attributes = append(card.Attributes, Attribute{
				Key:   key,
				Label: fieldLabel(req.Schema, key),
				Value: format.Cell(value),
			})
		}
		body.Cards = append(body.Cards, card)
	}
	return body
}

type listStrategy struct{}

func (listStrategy) Type() ViewType   { return ViewList }
func (listStrategy) Template() string { return "list" }

func (listStrategy) Build(req Request) any {
	body := &ListBody{Items: make([]Item, 0, len(req.Data)), Empty: len(req.Data) == 0}
	for _, record := range req.Data {
		body.Items = append(body.Items, buildItem(req, record))
	}
	return body
}

type kanbanStrategy struct{}

func (kanbanStrategy) Type() ViewType   { return ViewKanban }
func (kanbanStrategy) Template() string { return "kanban" }

// Build buckets records by the group field. Records without a value land in
// "todo"; values outside the declared options open a new column.
func (kanbanStrategy) Build(req Request) any {
	groupField := req.ViewConfig.GroupField
	if groupField == "" {
		if kanban := req.Schema.Views().Kanban; kanban != nil && kanban.GroupField != "" {
			groupField = kanban.GroupField
		}
	}
	if groupField == "" {
		groupField = defaultGroupField
	}

	declared := DefaultKanbanColumns
	if field, ok := req.Schema.Field(groupField); ok && len(field.Options) > 0 {
		declared = field.Options
	}

	body := &KanbanBody{GroupField: groupField, Columns: make([]KanbanColumn, 0, len(declared))}
	index := make(map[string]int, len(declared))
	for _, opt := range declared {
		if _, dup := index[opt.Value]; dup {
			continue
		}
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		index[opt.Value] = len(body.Columns)
		body.Columns = append(body.Columns, KanbanColumn{Key: opt.Value, Label: label, Cards: []Item{}})
	}

	for _, record := range req.Data {
		status := strings.TrimSpace(record.String(groupField))
		if status == "" {
			status = defaultStatus
		}
		pos, ok := index[status]
		if !ok {
			pos = len(body.Columns)
			index[status] = pos
			body.Columns = append(body.Columns, KanbanColumn{Key: status, Label: status, Dynamic: true, Cards: []Item{}})
		}
		body.Columns[pos].Cards = append(body.Columns[pos].Cards, buildItem(req, record))
	}
	return body
}

type calendarStrategy struct {
	formatter *format.Formatter
}

func (calendarStrategy) Type() ViewType   { return ViewCalendar }
func (calendarStrategy) Template() string { return "calendar" }

// Build groups records by day of the date field. Dated groups are ordered
// chronologically, followed by "Invalid Date" for values that do not parse
// and "No Date" for records without a value.
func (c calendarStrategy) Build(req Request) any {
	dateField := DateField(req.Schema, req.ViewConfig)
	f := c.formatter
	if f == nil {
		f = format.Default()
	}

	type bucket struct {
		day   time.Time
		group CalendarGroup
	}
	var (
		dated   []*bucket
		byLabel = make(map[string]*bucket)
		invalid *CalendarGroup
		undated *CalendarGroup
	)

	for _, record := range req.Data {
		item := buildItem(req, record)
		raw := record.Value(dateField)
		t, ok := format.ParseTime(raw)
		if !ok && !isBlank(raw) {
			if invalid == nil {
				invalid = &CalendarGroup{Label: invalidDateLabel}
			}
			invalid.Items = append(invalid.Items, item)
			continue
		}
		if !ok {
			if undated == nil {
				undated = &CalendarGroup{Label: noDateLabel}
			}
			undated.Items = append(undated.Items, item)
			continue
		}
		label := f.Day(t)
		b, exists := byLabel[label]
		if !exists {
			local := t.In(f.Location())
			b = &bucket{
				day:   time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, f.Location()),
				group: CalendarGroup{Label: label},
			}
			byLabel[label] = b
			dated = append(dated, b)
		}
		b.group.Items = append(b.group.Items, item)
	}

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].day.Before(dated[j].day)
	})

	body := &CalendarBody{DateField: dateField, Groups: make([]CalendarGroup, 0, len(dated)+1)}
	for _, b := range dated {
		body.Groups = append(body.Groups, b.group)
	}
	if invalid != nil {
		body.Groups = append(body.Groups, *invalid)
	}
	if undated != nil {
		body.Groups = append(body.Groups, *undated)
	}
	return body
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case *time.Time:
		return v == nil || v.IsZero()
	case time.Time:
		return v.IsZero()
	}
	return false
}

// DateField picks the calendar grouping field: the request override, the
// schema's calendar view, the first date or datetime field, then created_at.
func DateField(s *schema.Schema, cfg ViewConfig) string {
	if cfg.DateField != "" {
		return cfg.DateField
	}
	if cal := s.Views().Calendar; cal != nil && cal.DateField != "" {
		return cal.DateField
	}
	if field, ok := s.FirstFieldOfType(schema.FieldTypeDate, schema.FieldTypeDateTime); ok {
		return field.Key
	}
	return defaultDateField
}

type mapStrategy struct{}

func (mapStrategy) Type() ViewType   { return ViewMap }
func (mapStrategy) Template() string { return "map" }

func (mapStrategy) Build(Request) any {
	return &MapBody{Message: mapMessage}
}

func buildItem(req Request, record schema.Record) Item {
	display := req.Schema.Display()
	return Item{
		ID:       record.ID(),
		Href:     rowLink(req, record),
		Title:    display.Title(record),
		Subtitle: display.Subtitle(record),
		Badge:    display.Badge(record),
	}
}

func rowLink(req Request, record schema.Record) string {
	if req.RowLink == nil {
		return ""
	}
	return req.RowLink(record)
}

// safeImageURL drops image sources with schemes browsers could execute.
func safeImageURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"https://", "http://", "/", "data:image/"} {
		if strings.HasPrefix(lower, prefix) {
			return trimmed
		}
	}
	if !strings.Contains(lower, ":") {
		return trimmed
	}
	return ""
}

func fieldLabel(s *schema.Schema, key string) string {
	if field, ok := s.Field(key); ok {
		return field.DisplayLabel()
	}
	if computed, ok := s.Computed(key); ok && computed.Label != "" {
		return computed.Label
	}
	return key
}
