package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownEntity is returned when a catalog lookup misses.
var ErrUnknownEntity = errors.New("schema: unknown entity")

// Catalog is an immutable set of schemas keyed by entity name.
type Catalog struct {
	schemas map[string]*Schema
}

// NewCatalog indexes schemas by entity, rejecting duplicates.
func NewCatalog(schemas ...*Schema) (*Catalog, error) {
	c := &Catalog{schemas: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		if s == nil {
			continue
		}
		if _, exists := c.schemas[s.Entity]; exists {
			return nil, fmt.Errorf("schema: duplicate entity %q", s.Entity)
		}
		c.schemas[s.Entity] = s
	}
	return c, nil
}

// Schema returns the schema registered for entity.
func (c *Catalog) Schema(entity string) (*Schema, error) {
	if c != nil {
		if s, ok := c.schemas[entity]; ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
}

// Names returns the entity names in sorted order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports how many schemas the catalog holds.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.schemas)
}

type catalogFile struct {
	Entities map[string]entityFile `json:"entities" yaml:"entities"`
}

type entityFile struct {
	Label       string       `json:"label" yaml:"label"`
	LabelPlural string       `json:"labelPlural" yaml:"labelPlural"`
	Fields      []Field      `json:"fields" yaml:"fields"`
	Views       Views        `json:"views" yaml:"views"`
	Display     FieldDisplay `json:"display" yaml:"display"`
}

// LoadFS walks fsys and parses every *.json, *.yaml and *.yml file as a schema
// catalog document. Entity names must be unique across files.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	catalog := &Catalog{schemas: make(map[string]*Schema)}
	if fsys == nil {
		return catalog, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !IsCatalogFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		doc, err := parseCatalogFile(data, path)
		if err != nil {
			return err
		}

		for name, raw := range doc.Entities {
			entity := strings.TrimSpace(name)
			if entity == "" {
				return fmt.Errorf("schema: file %s defines an empty entity name", path)
			}
			if _, exists := catalog.schemas[entity]; exists {
				return fmt.Errorf("schema: duplicate entity %q (file %s)", entity, path)
			}
			s, err := New(entity, raw.Fields,
				WithLabels(raw.Label, raw.LabelPlural),
				WithViews(raw.Views),
				WithDisplay(raw.Display),
			)
			if err != nil {
				return fmt.Errorf("%w (file %s)", err, path)
			}
			catalog.schemas[entity] = s
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// IsCatalogFile reports whether path has a catalog file extension.
func IsCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func parseCatalogFile(data []byte, source string) (catalogFile, error) {
	var doc catalogFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return catalogFile{}, fmt.Errorf("schema: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	doc = catalogFile{}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return catalogFile{}, fmt.Errorf("schema: parse %s: invalid JSON or YAML", source)
}
