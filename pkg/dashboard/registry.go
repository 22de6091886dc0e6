package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrWidgetNotFound is returned when a widget id or its component cannot be
// resolved.
var ErrWidgetNotFound = errors.New("dashboard: widget not found")

// Size is the footprint of a widget on the 12 column grid.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
	SizeFull   Size = "full"
)

// Sizes lists every size in ascending order.
func Sizes() []Size {
	return []Size{SizeSmall, SizeMedium, SizeLarge, SizeFull}
}

// Valid reports whether s is a known size.
func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge, SizeFull:
		return true
	}
	return false
}

// Span returns the number of grid columns s occupies.
func (s Size) Span() int {
	switch s {
	case SizeSmall:
		return 3
	case SizeLarge:
		return 9
	case SizeFull:
		return 12
	default:
		return 6
	}
}

// ParseSize maps a tag to a Size, defaulting to medium.
func ParseSize(tag string) Size {
	s := Size(strings.ToLower(strings.TrimSpace(tag)))
	if s.Valid() {
		return s
	}
	return SizeMedium
}

// ConfigFieldType is the input type of a config field.
type ConfigFieldType string

const (
	ConfigText    ConfigFieldType = "text"
	ConfigNumber  ConfigFieldType = "number"
	ConfigBoolean ConfigFieldType = "boolean"
)

// ConfigField describes one configurable widget setting.
type ConfigField struct {
	Key     string          `json:"key" yaml:"key"`
	Label   string          `json:"label" yaml:"label"`
	Type    ConfigFieldType `json:"type" yaml:"type"`
	Default any             `json:"default,omitempty" yaml:"default,omitempty"`
}

// WidgetDefinition is a catalog entry users can add to their dashboard.
type WidgetDefinition struct {
	ID            string         `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	Category      string         `json:"category,omitempty" yaml:"category,omitempty"`
	Component     string         `json:"component" yaml:"component"`
	DefaultSize   Size           `json:"defaultSize" yaml:"defaultSize"`
	DefaultConfig map[string]any `json:"defaultConfig,omitempty" yaml:"defaultConfig,omitempty"`
	ConfigSchema  []ConfigField  `json:"configSchema,omitempty" yaml:"configSchema,omitempty"`
}

// Content is what a component produces. Either Template (rendered with Data
// by the dashboard renderer) or HTML (trusted markup) is used.
type Content struct {
	Template string
	Data     any
	HTML     string
}

// Component renders the body of a widget instance.
type Component interface {
	Render(ctx context.Context, w Widget) (Content, error)
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(ctx context.Context, w Widget) (Content, error)

func (f ComponentFunc) Render(ctx context.Context, w Widget) (Content, error) {
	return f(ctx, w)
}

// Registry maps widget ids to definitions and component keys to components.
// It is produced by Builder.Build and is read-only afterwards.
type Registry struct {
	definitions map[string]WidgetDefinition
	order       []string
	components  map[string]Component
}

// Definition returns the definition registered under id.
func (r *Registry) Definition(id string) (WidgetDefinition, bool) {
	if r == nil {
		return WidgetDefinition{}, false
	}
	def, ok := r.definitions[id]
	if !ok {
		return WidgetDefinition{}, false
	}
	return cloneDefinition(def), true
}

// Definitions returns every definition in registration order.
func (r *Registry) Definitions() []WidgetDefinition {
	if r == nil {
		return nil
	}
	out := make([]WidgetDefinition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneDefinition(r.definitions[id]))
	}
	return out
}

// Categories returns the distinct definition categories, sorted.
func (r *Registry) Categories() []string {
	seen := make(map[string]struct{})
	for _, def := range r.Definitions() {
		if def.Category != "" {
			seen[def.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Component returns the component registered under key.
func (r *Registry) Component(key string) (Component, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.components[key]
	return c, ok
}

// Resolve looks up the definition for widgetID and then its component.
func (r *Registry) Resolve(widgetID string) (WidgetDefinition, Component, error) {
	def, ok := r.Definition(widgetID)
	if !ok {
		return WidgetDefinition{}, nil, fmt.Errorf("%w: %q", ErrWidgetNotFound, widgetID)
	}
	component, ok := r.Component(def.Component)
	if !ok {
		return def, nil, fmt.Errorf("%w: component %q for %q", ErrWidgetNotFound, def.Component, widgetID)
	}
	return def, component, nil
}

// Builder collects definitions and components before the registry is frozen.
type Builder struct {
	definitions []WidgetDefinition
	components  map[string]Component
	errs        []error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{components: make(map[string]Component)}
}

// Define adds definitions.
func (b *Builder) Define(defs ...WidgetDefinition) *Builder {
	b.definitions = append(b.definitions, defs...)
	return b
}

// Component registers a component under key.
func (b *Builder) Component(key string, c Component) *Builder {
	key = strings.TrimSpace(key)
	switch {
	case key == "" || c == nil:
		b.errs = append(b.errs, errors.New("dashboard: component key and implementation required"))
	case b.components[key] != nil:
		b.errs = append(b.errs, fmt.Errorf("dashboard: component %q already registered", key))
	default:
		b.components[key] = c
	}
	return b
}

// Build validates the collected entries and returns a frozen registry.
// Definitions may reference components that were never registered; such
// widgets render as "Widget not found".
func (b *Builder) Build() (*Registry, error) {
	errs := append([]error(nil), b.errs...)
	reg := &Registry{
		definitions: make(map[string]WidgetDefinition, len(b.definitions)),
		components:  make(map[string]Component, len(b.components)),
	}
	for key, c := range b.components {
		reg.components[key] = c
	}
	for _, def := range b.definitions {
		def.ID = strings.TrimSpace(def.ID)
		if def.ID == "" {
			errs = append(errs, fmt.Errorf("dashboard: definition %q has no id", def.Name))
			continue
		}
		if _, exists := reg.definitions[def.ID]; exists {
			errs = append(errs, fmt.Errorf("dashboard: definition %q already defined", def.ID))
			continue
		}
		if def.DefaultSize == "" {
			def.DefaultSize = SizeMedium
		}
		if !def.DefaultSize.Valid() {
			errs = append(errs, fmt.Errorf("dashboard: definition %q has invalid size %q", def.ID, def.DefaultSize))
			continue
		}
		if err := validateConfigSchema(def); err != nil {
			errs = append(errs, err)
			continue
		}
		reg.definitions[def.ID] = cloneDefinition(def)
		reg.order = append(reg.order, def.ID)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return reg, nil
}

// MustBuild panics when Build fails.
func (b *Builder) MustBuild() *Registry {
	reg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return reg
}

func validateConfigSchema(def WidgetDefinition) error {
	seen := make(map[string]struct{}, len(def.ConfigSchema))
	for _, field := range def.ConfigSchema {
		if strings.TrimSpace(field.Key) == "" {
			return fmt.Errorf("dashboard: definition %q has a config field without key", def.ID)
		}
		if _, dup := seen[field.Key]; dup {
			return fmt.Errorf("dashboard: definition %q repeats config field %q", def.ID, field.Key)
		}
		seen[field.Key] = struct{}{}
		switch field.Type {
		case ConfigText, ConfigNumber, ConfigBoolean:
		default:
			return fmt.Errorf("dashboard: definition %q config field %q has unsupported type %q", def.ID, field.Key, field.Type)
		}
	}
	return nil
}

func cloneDefinition(def WidgetDefinition) WidgetDefinition {
	out := def
	out.DefaultConfig = cloneConfig(def.DefaultConfig)
	out.ConfigSchema = append([]ConfigField(nil), def.ConfigSchema...)
	return out
}

func cloneConfig(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
