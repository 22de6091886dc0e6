package schema

import (
	"fmt"
	"strings"
)

// FieldType is the semantic type of a field. It drives formatting and which
// view strategies can use the field (dates for calendars, status for kanban).
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeLongText FieldType = "long_text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeCurrency FieldType = "currency"
	FieldTypePercent  FieldType = "percent"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDate     FieldType = "date"
	FieldTypeDateTime FieldType = "datetime"
	FieldTypeEmail    FieldType = "email"
	FieldTypePhone    FieldType = "phone"
	FieldTypeURL      FieldType = "url"
	FieldTypeImage    FieldType = "image"
	FieldTypeSelect   FieldType = "select"
	FieldTypeStatus   FieldType = "status"
	FieldTypeBadge    FieldType = "badge"
	FieldTypeRelation FieldType = "relation"
)

// IsTemporal reports whether values of this type are dates or timestamps.
func (t FieldType) IsTemporal() bool {
	return t == FieldTypeDate || t == FieldTypeDateTime
}

// Option is one entry of a field's ordered choice list.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Field describes a single stored attribute of an entity.
type Field struct {
	Key     string    `json:"key" yaml:"key"`
	Label   string    `json:"label" yaml:"label"`
	Type    FieldType `json:"type" yaml:"type"`
	Format  string    `json:"format,omitempty" yaml:"format,omitempty"`
	Options []Option  `json:"options,omitempty" yaml:"options,omitempty"`
}

// DisplayLabel returns Label, falling back to the key.
func (f Field) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Key
}

// OptionLabel returns the label declared for value, or value itself.
func (f Field) OptionLabel(value string) string {
	for _, opt := range f.Options {
		if opt.Value == value {
			if opt.Label != "" {
				return opt.Label
			}
			break
		}
	}
	return value
}

// ComputedField is a read-only column derived from the record.
type ComputedField struct {
	Key     string
	Label   string
	Type    FieldType
	Compute func(Record) any
}

// TableView lists the columns shown by the table strategy.
type TableView struct {
	Columns []string `json:"columns" yaml:"columns"`
}

// GridView configures card grids.
type GridView struct {
	CardFields []string `json:"cardFields,omitempty" yaml:"cardFields,omitempty"`
	ImageField string   `json:"imageField,omitempty" yaml:"imageField,omitempty"`
}

// ListView configures the single column list.
type ListView struct {
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// KanbanView names the field used to bucket cards. Defaults to "status".
type KanbanView struct {
	GroupField string `json:"groupField,omitempty" yaml:"groupField,omitempty"`
}

// CalendarView names the date field used to bucket records.
type CalendarView struct {
	DateField string `json:"dateField,omitempty" yaml:"dateField,omitempty"`
}

// Views bundles the per-strategy configuration of a schema.
type Views struct {
	Table    *TableView    `json:"table,omitempty" yaml:"table,omitempty"`
	Grid     *GridView     `json:"grid,omitempty" yaml:"grid,omitempty"`
	List     *ListView     `json:"list,omitempty" yaml:"list,omitempty"`
	Kanban   *KanbanView   `json:"kanban,omitempty" yaml:"kanban,omitempty"`
	Calendar *CalendarView `json:"calendar,omitempty" yaml:"calendar,omitempty"`
}

// Schema is the static description of an entity type. Construct it with New
// so field keys are validated; a Schema is immutable once built.
type Schema struct {
	Entity      string
	Label       string
	LabelPlural string

	fields   []Field
	index    map[string]int
	computed map[string]ComputedField
	views    Views
	display  Displayable
}

// SchemaOption configures a Schema during New.
type SchemaOption func(*Schema)

// WithViews attaches view configuration.
func WithViews(views Views) SchemaOption {
	return func(s *Schema) {
		s.views = views
	}
}

// WithComputed registers computed fields addressable by table columns.
func WithComputed(fields ...ComputedField) SchemaOption {
	return func(s *Schema) {
		for _, field := range fields {
			if strings.TrimSpace(field.Key) == "" || field.Compute == nil {
				continue
			}
			if s.computed == nil {
				s.computed = make(map[string]ComputedField)
			}
			s.computed[field.Key] = field
		}
	}
}

// WithDisplay sets the display derivation for records of this schema.
func WithDisplay(display Displayable) SchemaOption {
	return func(s *Schema) {
		s.display = display
	}
}

// WithLabels sets singular and plural entity labels.
func WithLabels(singular, plural string) SchemaOption {
	return func(s *Schema) {
		s.Label = singular
		s.LabelPlural = plural
	}
}

// New validates the field set and returns an immutable schema.
func New(entity string, fields []Field, options ...SchemaOption) (*Schema, error) {
	entity = strings.TrimSpace(entity)
	if entity == "" {
		return nil, fmt.Errorf("schema: entity name is required")
	}

	s := &Schema{
		Entity: entity,
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			return nil, fmt.Errorf("schema: %s declares a field without key", entity)
		}
		if _, exists := s.index[key]; exists {
			return nil, fmt.Errorf("schema: %s declares duplicate field key %q", entity, key)
		}
		field.Key = key
		if field.Type == "" {
			field.Type = FieldTypeText
		}
		field.Options = append([]Option(nil), field.Options...)
		s.index[key] = len(s.fields)
		s.fields = append(s.fields, field)
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.display == nil {
		s.display = FieldDisplay{}
	}
	return s, nil
}

// MustNew panics when New fails. Intended for schemas authored in Go.
func MustNew(entity string, fields []Field, options ...SchemaOption) *Schema {
	s, err := New(entity, fields, options...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns a copy of the declared fields in order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}
	return append([]Field(nil), s.fields...)
}

// Field looks up a declared field by key.
func (s *Schema) Field(key string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	idx, ok := s.index[key]
	if !ok {
		return Field{}, false
	}
	return s.fields[idx], true
}

// Computed looks up a computed field by key.
func (s *Schema) Computed(key string) (ComputedField, bool) {
	if s == nil || s.computed == nil {
		return ComputedField{}, false
	}
	field, ok := s.computed[key]
	return field, ok
}

// Views returns the view configuration.
func (s *Schema) Views() Views {
	if s == nil {
		return Views{}
	}
	return s.views
}

// Display returns the display derivation, never nil.
func (s *Schema) Display() Displayable {
	if s == nil || s.display == nil {
		return FieldDisplay{}
	}
	return s.display
}

// FirstFieldOfType returns the first declared field matching any of types.
func (s *Schema) FirstFieldOfType(types ...FieldType) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	for _, field := range s.fields {
		for _, t := range types {
			if field.Type == t {
				return field, true
			}
		}
	}
	return Field{}, false
}
