package dashboard

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var configurable = WidgetDefinition{
	ID:   "recent",
	Name: "Recent records",
	ConfigSchema: []ConfigField{
		{Key: "entity", Label: "Entity", Type: ConfigText},
		{Key: "limit", Label: "Rows", Type: ConfigNumber, Default: 5.0},
		{Key: "showSubtitle", Label: "Show subtitle", Type: ConfigBoolean, Default: true},
	},
}

func TestConfigForm_UsesInstanceThenDefaults(t *testing.T) {
	form := ConfigForm(configurable, Widget{ID: "w1", Config: map[string]any{"entity": "deals"}})

	want := Form{
		WidgetID: "w1",
		Title:    "Configure Recent records",
		Fields: []FormField{
			{Key: "entity", Label: "Entity", Input: "text", Value: "deals"},
			{Key: "limit", Label: "Rows", Input: "number", Value: "5"},
			{Key: "showSubtitle", Label: "Show subtitle", Input: "checkbox", Checked: true},
		},
	}
	if diff := cmp.Diff(want, form); diff != "" {
		t.Fatalf("form mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfig(t *testing.T) {
	got, err := ParseConfig(configurable, url.Values{
		"entity":  {" contacts "},
		"limit":   {"8"},
		"ignored": {"x"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[string]any{"entity": "contacts", "limit": 8.0, "showSubtitle": false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfig_CheckboxOn(t *testing.T) {
	got, err := ParseConfig(configurable, url.Values{"showSubtitle": {"on"}})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got["showSubtitle"] != true {
		t.Fatalf("showSubtitle = %v, want true", got["showSubtitle"])
	}
	if _, ok := got["limit"]; ok {
		t.Fatalf("absent number field should not be set")
	}
}

func TestParseConfig_RejectsBadNumber(t *testing.T) {
	if _, err := ParseConfig(configurable, url.Values{"limit": {"many"}}); err == nil {
		t.Fatalf("expected number error")
	}
}
