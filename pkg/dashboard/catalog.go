package dashboard

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type definitionFile struct {
	Widgets []WidgetDefinition `json:"widgets" yaml:"widgets"`
}

// LoadDefinitions reads widget definitions from every *.json, *.yaml and
// *.yml file in fsys that declares a top-level "widgets" list. Files without
// the key are skipped so the directory can be shared with schema catalogs.
// Duplicate ids are caught later by Builder.Build.
func LoadDefinitions(fsys fs.FS) ([]WidgetDefinition, error) {
	if fsys == nil {
		return nil, nil
	}
	var defs []WidgetDefinition
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
		default:
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("dashboard: read %s: %w", path, err)
		}
		doc, err := parseDefinitionFile(data, path)
		if err != nil {
			return err
		}
		for i := range doc.Widgets {
			if doc.Widgets[i].DefaultSize != "" && !doc.Widgets[i].DefaultSize.Valid() {
				return fmt.Errorf("dashboard: %s: widget %q has invalid size %q", path, doc.Widgets[i].ID, doc.Widgets[i].DefaultSize)
			}
		}
		defs = append(defs, doc.Widgets...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return defs, nil
}

func parseDefinitionFile(data []byte, source string) (definitionFile, error) {
	var doc definitionFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return doc, fmt.Errorf("dashboard: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	doc = definitionFile{}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return definitionFile{}, fmt.Errorf("dashboard: parse %s: invalid JSON or YAML", source)
}
