package dashboard

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-viewgen/pkg/format"
)

// FormField is one rendered input of a widget config form.
type FormField struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Input   string `json:"input"`
	Value   string `json:"value,omitempty"`
	Checked bool   `json:"checked,omitempty"`
}

// Form is the configure dialog of a widget instance.
type Form struct {
	WidgetID string      `json:"widgetId"`
	Title    string      `json:"title"`
	Fields   []FormField `json:"fields"`
}

// ConfigForm builds typed inputs for def's config schema, filled from the
// instance config with schema defaults for missing keys.
func ConfigForm(def WidgetDefinition, w Widget) Form {
	form := Form{
		WidgetID: w.ID,
		Title:    "Configure " + firstNonEmpty(def.Name, def.ID),
		Fields:   make([]FormField, 0, len(def.ConfigSchema)),
	}
	for _, field := range def.ConfigSchema {
		value, ok := w.Config[field.Key]
		if !ok {
			value = field.Default
		}
		ff := FormField{Key: field.Key, Label: firstNonEmpty(field.Label, field.Key)}
		switch field.Type {
		case ConfigNumber:
			ff.Input = "number"
			if value != nil {
				ff.Value = fmt.Sprint(value)
			}
		case ConfigBoolean:
			ff.Input = "checkbox"
			ff.Checked = format.Truthy(value)
		default:
			ff.Input = "text"
			if value != nil {
				ff.Value = fmt.Sprint(value)
			}
		}
		form.Fields = append(form.Fields, ff)
	}
	return form
}

// ParseConfig coerces submitted form values into a partial config. Keys not
// in the schema are ignored. Unchecked checkboxes are absent from a form
// post, so boolean fields always produce a value.
func ParseConfig(def WidgetDefinition, values url.Values) (map[string]any, error) {
	partial := make(map[string]any, len(def.ConfigSchema))
	for _, field := range def.ConfigSchema {
		raw, present := values[field.Key]
		value := ""
		if len(raw) > 0 {
			value = strings.TrimSpace(raw[len(raw)-1])
		}
		switch field.Type {
		case ConfigBoolean:
			partial[field.Key] = present && parseBool(value)
		case ConfigNumber:
			if !present {
				continue
			}
			if value == "" {
				partial[field.Key] = nil
				continue
			}
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("dashboard: config field %q must be a number", field.Key)
			}
			partial[field.Key] = n
		default:
			if present {
				partial[field.Key] = value
			}
		}
	}
	return partial, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "", "on", "true", "1", "yes":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
