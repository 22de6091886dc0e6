package schema

import (
	"fmt"
	"strings"
)

// Record is one row of entity data keyed by field key.
type Record map[string]any

// Value returns the raw value stored under key.
func (r Record) Value(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// String returns the value under key rendered with fmt.Sprint, or "" when the
// key is absent or nil.
func (r Record) String(key string) string {
	value := r.Value(key)
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// ID returns the record identifier stored under "id".
func (r Record) ID() string {
	return r.String("id")
}

// Badge is a short pill label with a visual variant.
type Badge struct {
	Label   string `json:"label"`
	Variant string `json:"variant,omitempty"`
}

// Displayable derives the headline values of a record. Implementations must
// be pure; renderers call each method once per record per pass.
type Displayable interface {
	Title(Record) string
	Subtitle(Record) string
	Badge(Record) *Badge
}

// FieldDisplay derives display values straight from field keys so schemas
// authored as YAML or JSON get a display without code.
type FieldDisplay struct {
	TitleField    string            `json:"titleField,omitempty" yaml:"titleField,omitempty"`
	SubtitleField string            `json:"subtitleField,omitempty" yaml:"subtitleField,omitempty"`
	BadgeField    string            `json:"badgeField,omitempty" yaml:"badgeField,omitempty"`
	BadgeVariants map[string]string `json:"badgeVariants,omitempty" yaml:"badgeVariants,omitempty"`
}

var _ Displayable = FieldDisplay{}

// Title returns the title field value, falling back to "name", "title" and the
// record id in that order.
func (d FieldDisplay) Title(r Record) string {
	if d.TitleField != "" {
		return r.String(d.TitleField)
	}
	for _, key := range []string{"name", "title"} {
		if v := r.String(key); v != "" {
			return v
		}
	}
	return r.ID()
}

func (d FieldDisplay) Subtitle(r Record) string {
	if d.SubtitleField == "" {
		return ""
	}
	return r.String(d.SubtitleField)
}

func (d FieldDisplay) Badge(r Record) *Badge {
	if d.BadgeField == "" {
		return nil
	}
	label := strings.TrimSpace(r.String(d.BadgeField))
	if label == "" {
		return nil
	}
	return &Badge{Label: label, Variant: d.BadgeVariants[label]}
}

// DisplayFuncs adapts plain functions to Displayable. A nil TitleFunc falls
// back to FieldDisplay's defaults; other nil functions yield empty values.
type DisplayFuncs struct {
	TitleFunc    func(Record) string
	SubtitleFunc func(Record) string
	BadgeFunc    func(Record) *Badge
}

var _ Displayable = DisplayFuncs{}

func (d DisplayFuncs) Title(r Record) string {
	if d.TitleFunc == nil {
		return FieldDisplay{}.Title(r)
	}
	return d.TitleFunc(r)
}

func (d DisplayFuncs) Subtitle(r Record) string {
	if d.SubtitleFunc == nil {
		return ""
	}
	return d.SubtitleFunc(r)
}

func (d DisplayFuncs) Badge(r Record) *Badge {
	if d.BadgeFunc == nil {
		return nil
	}
	return d.BadgeFunc(r)
}
