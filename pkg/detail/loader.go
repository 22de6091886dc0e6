package detail

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-viewgen/pkg/schema"
)

// ErrUnknownPage is returned when no descriptor exists for an entity.
var ErrUnknownPage = errors.New("detail: unknown page")

// Catalog holds descriptors keyed by entity.
type Catalog struct {
	pages map[string]Descriptor
}

// Descriptor returns the descriptor for entity.
func (c *Catalog) Descriptor(entity string) (Descriptor, error) {
	if c != nil {
		if d, ok := c.pages[entity]; ok {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownPage, entity)
}

// Entities returns the entities with a descriptor, sorted.
func (c *Catalog) Entities() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.pages))
	for entity := range c.pages {
		out = append(out, entity)
	}
	sort.Strings(out)
	return out
}

type pagesFile struct {
	Pages map[string]descriptorFile `json:"pages" yaml:"pages"`
}

type descriptorFile struct {
	TitleField    string        `json:"titleField" yaml:"titleField"`
	SubtitleField string        `json:"subtitleField" yaml:"subtitleField"`
	BadgeField    string        `json:"badgeField" yaml:"badgeField"`
	AvatarField   string        `json:"avatarField" yaml:"avatarField"`
	Breadcrumbs   []Breadcrumb  `json:"breadcrumbs" yaml:"breadcrumbs"`
	Actions       []Action      `json:"actions" yaml:"actions"`
	Tabs          []Tab         `json:"tabs" yaml:"tabs"`
	Sections      []sectionFile `json:"sections" yaml:"sections"`
}

// sectionFile is the flattened union; Type selects the variant.
type sectionFile struct {
	Type        SectionKind `json:"type" yaml:"type"`
	ID          string      `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Fields      []InfoField `json:"fields" yaml:"fields"`
	Entity      string      `json:"entity" yaml:"entity"`
	Columns     []Column    `json:"columns" yaml:"columns"`
	Limit       int         `json:"limit" yaml:"limit"`
	LinkPattern string      `json:"linkPattern" yaml:"linkPattern"`
	ForeignKey  string      `json:"foreignKey" yaml:"foreignKey"`
	Field       string      `json:"field" yaml:"field"`
}

// LoadFS walks fsys and decodes every JSON/YAML file with a top-level "pages"
// map. Files without pages are ignored so descriptors can share a directory
// with schema catalogs.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	catalog := &Catalog{pages: make(map[string]Descriptor)}
	if fsys == nil {
		return catalog, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !schema.IsCatalogFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("detail: read %s: %w", path, err)
		}
		doc, err := parsePagesFile(data, path)
		if err != nil {
			return err
		}
		for name, raw := range doc.Pages {
			entity := strings.TrimSpace(name)
			if entity == "" {
				return fmt.Errorf("detail: file %s defines a page without entity", path)
			}
			if _, exists := catalog.pages[entity]; exists {
				return fmt.Errorf("detail: duplicate page %q (file %s)", entity, path)
			}
			desc, err := raw.descriptor(entity)
			if err != nil {
				return fmt.Errorf("detail: page %q (file %s): %w", entity, path, err)
			}
			catalog.pages[entity] = desc
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// Decode parses a single descriptor document (JSON or YAML) without the
// "pages" wrapper.
func Decode(data []byte, entity string) (Descriptor, error) {
	var raw descriptorFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return Descriptor{}, errors.New("detail: descriptor is empty")
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		raw = descriptorFile{}
		if yerr := yaml.Unmarshal(data, &raw); yerr != nil {
			return Descriptor{}, errors.New("detail: invalid JSON or YAML descriptor")
		}
	}
	return raw.descriptor(entity)
}

func parsePagesFile(data []byte, source string) (pagesFile, error) {
	var doc pagesFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return pagesFile{}, fmt.Errorf("detail: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	doc = pagesFile{}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return pagesFile{}, fmt.Errorf("detail: parse %s: invalid JSON or YAML", source)
}

func (f descriptorFile) descriptor(entity string) (Descriptor, error) {
	d := Descriptor{
		Entity:        entity,
		TitleField:    f.TitleField,
		SubtitleField: f.SubtitleField,
		BadgeField:    f.BadgeField,
		AvatarField:   f.AvatarField,
		Breadcrumbs:   f.Breadcrumbs,
		Actions:       f.Actions,
		Tabs:          f.Tabs,
		Sections:      make([]Section, 0, len(f.Sections)),
	}
	counts := make(map[SectionKind]int)
	for i, raw := range f.Sections {
		kind := SectionKind(strings.TrimSpace(string(raw.Type)))
		id := strings.TrimSpace(raw.ID)
		if id == "" {
			counts[kind]++
			id = string(kind)
			if counts[kind] > 1 {
				id = fmt.Sprintf("%s-%d", kind, counts[kind])
			}
		}
		section, err := raw.section(kind, id)
		if err != nil {
			return Descriptor{}, fmt.Errorf("section %d: %w", i, err)
		}
		d.Sections = append(d.Sections, section)
	}
	return d, nil
}

func (f sectionFile) section(kind SectionKind, id string) (Section, error) {
	switch kind {
	case KindInfo:
		return InfoSection{ID: id, Title: f.Title, Fields: f.Fields}, nil
	case KindRelatedList:
		return RelatedListSection{ID: id, Title: f.Title, Entity: f.Entity, Columns: f.Columns, Limit: f.Limit, LinkPattern: f.LinkPattern, ForeignKey: f.ForeignKey}, nil
	case KindDescription:
		return DescriptionSection{ID: id, Title: f.Title, Field: f.Field}, nil
	case KindMetadata:
		keys := make([]string, 0, len(f.Fields))
		for _, field := range f.Fields {
			keys = append(keys, field.Key)
		}
		return MetadataSection{ID: id, Title: f.Title, Fields: keys}, nil
	case KindActivity:
		return ActivitySection{ID: id, Title: f.Title}, nil
	case KindComments:
		return CommentsSection{ID: id, Title: f.Title}, nil
	case KindAttachments:
		return AttachmentsSection{ID: id, Title: f.Title}, nil
	case "":
		return nil, errors.New("missing type")
	default:
		return nil, fmt.Errorf("unknown section type %q", kind)
	}
}

// UnmarshalJSON accepts either a bare key string or a full field object.
func (f *InfoField) UnmarshalJSON(data []byte) error {
	var key string
	if err := json.Unmarshal(data, &key); err == nil {
		*f = InfoField{Key: key}
		return nil
	}
	type plain InfoField
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = InfoField(p)
	return nil
}

// UnmarshalYAML accepts either a bare key scalar or a full field mapping.
func (f *InfoField) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*f = InfoField{Key: node.Value}
		return nil
	}
	type plain InfoField
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*f = InfoField(p)
	return nil
}
