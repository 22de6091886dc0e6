package prompt

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-viewgen/pkg/dashboard"
)

// PickerOption configures AddWidget.
type PickerOption func(*picker)

type picker struct {
	gridOpts []dashboard.GridOption
}

// WithIDGenerator replaces the widget instance id generator.
func WithIDGenerator(fn func() string) PickerOption {
	return func(p *picker) {
		p.gridOpts = append(p.gridOpts, dashboard.WithIDGenerator(fn))
	}
}

// AddWidget asks which catalog widget to place, its size and its config, and
// returns layout with the new instance appended.
func AddWidget(ctx context.Context, driver Driver, registry *dashboard.Registry, layout dashboard.Layout, options ...PickerOption) (dashboard.Layout, dashboard.Widget, error) {
	p := &picker{}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}

	defs := registry.Definitions()
	if len(defs) == 0 {
		return layout, dashboard.Widget{}, fmt.Errorf("prompt: widget catalog is empty")
	}
	labels := make([]string, len(defs))
	for i, def := range defs {
		labels[i] = definitionLabel(def)
	}
	idx, err := driver.Select(ctx, SelectConfig{Message: "Widget", Options: labels, PageSize: 12})
	if err != nil {
		return layout, dashboard.Widget{}, err
	}
	if idx < 0 || idx >= len(defs) {
		return layout, dashboard.Widget{}, fmt.Errorf("prompt: no widget selected")
	}
	def := defs[idx]

	size, err := askSize(ctx, driver, def.DefaultSize)
	if err != nil {
		return layout, dashboard.Widget{}, err
	}
	values, err := askConfig(ctx, driver, def)
	if err != nil {
		return layout, dashboard.Widget{}, err
	}
	partial, err := dashboard.ParseConfig(def, values)
	if err != nil {
		return layout, dashboard.Widget{}, err
	}

	grid := dashboard.NewGrid(layout, p.gridOpts...)
	placed, err := grid.AddWidget(def)
	if err != nil {
		return layout, dashboard.Widget{}, err
	}
	grid.ResizeWidget(placed.ID, size)
	if len(partial) > 0 {
		grid.UpdateWidgetConfig(placed.ID, partial)
	}
	placed, _ = grid.Layout.Find(placed.ID)
	return grid.Layout, placed, nil
}

func definitionLabel(def dashboard.WidgetDefinition) string {
	label := def.Name
	if label == "" {
		label = def.ID
	}
	if def.Category != "" {
		label += " (" + def.Category + ")"
	}
	return label
}

func askSize(ctx context.Context, driver Driver, preset dashboard.Size) (dashboard.Size, error) {
	sizes := dashboard.Sizes()
	options := make([]string, len(sizes))
	def := 1
	for i, size := range sizes {
		options[i] = string(size)
		if size == preset {
			def = i
		}
	}
	idx, err := driver.Select(ctx, SelectConfig{Message: "Size", Options: options, DefaultIndex: def})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(sizes) {
		return sizes[def], nil
	}
	return sizes[idx], nil
}

// askConfig prompts each config field, pre-filled like the dashboard's own
// configure form, and returns the answers in form encoding.
func askConfig(ctx context.Context, driver Driver, def dashboard.WidgetDefinition) (url.Values, error) {
	form := dashboard.ConfigForm(def, dashboard.Widget{Config: def.DefaultConfig})
	values := make(url.Values, len(form.Fields))
	for _, field := range form.Fields {
		switch field.Input {
		case "checkbox":
			ok, err := driver.Confirm(ctx, ConfirmConfig{Message: field.Label, Default: field.Checked})
			if err != nil {
				return nil, err
			}
			if ok {
				values.Set(field.Key, "true")
			}
		case "number":
			answer, err := driver.Input(ctx, InputConfig{
				Message:   field.Label,
				Default:   field.Value,
				Validator: validateNumber,
			})
			if err != nil {
				return nil, err
			}
			values.Set(field.Key, answer)
		default:
			answer, err := driver.Input(ctx, InputConfig{Message: field.Label, Default: field.Value})
			if err != nil {
				return nil, err
			}
			values.Set(field.Key, answer)
		}
	}
	return values, nil
}

func validateNumber(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	return nil
}
