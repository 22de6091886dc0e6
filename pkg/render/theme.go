package render

import (
	"encoding/json"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// ThemeContext is the template-facing view of a go-theme renderer config.
type ThemeContext struct {
	Name         string            `json:"name"`
	Variant      string            `json:"variant"`
	Partials     map[string]string `json:"partials,omitempty"`
	Tokens       map[string]string `json:"tokens,omitempty"`
	CSSVars      map[string]string `json:"cssVars,omitempty"`
	CSSVarsStyle string            `json:"css_vars_style,omitempty"`
	JSON         string            `json:"json,omitempty"`
	Stylesheet   string            `json:"stylesheet,omitempty"`
}

// NewThemeContext flattens cfg for templates. A nil cfg yields the zero value.
func NewThemeContext(cfg *theme.RendererConfig) ThemeContext {
	if cfg == nil {
		return ThemeContext{}
	}
	ctx := ThemeContext{
		Name:     cfg.Theme,
		Variant:  cfg.Variant,
		Partials: copyStringMap(cfg.Partials),
		Tokens:   copyStringMap(cfg.Tokens),
		CSSVars:  copyStringMap(cfg.CSSVars),
	}
	ctx.CSSVarsStyle = cssVarsStyle(ctx.CSSVars)
	ctx.JSON = themeJSON(ctx)
	ctx.Stylesheet = AssetURL(cfg, "viewgen.css")
	return ctx
}

// AssetURL resolves key through the theme's asset resolver, returning "" when
// no resolver is configured.
func AssetURL(cfg *theme.RendererConfig, key string) string {
	if cfg == nil || cfg.AssetURL == nil || strings.TrimSpace(key) == "" {
		return ""
	}
	return cfg.AssetURL(key)
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

func themeJSON(ctx ThemeContext) string {
	payload := struct {
		Name    string            `json:"name,omitempty"`
		Variant string            `json:"variant,omitempty"`
		Tokens  map[string]string `json:"tokens,omitempty"`
		CSSVars map[string]string `json:"cssVars,omitempty"`
	}{
		Name:    ctx.Name,
		Variant: ctx.Variant,
		Tokens:  ctx.Tokens,
		CSSVars: ctx.CSSVars,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}
