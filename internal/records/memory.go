package records

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-viewgen/pkg/schema"
)

// Memory keeps records in process, in insertion order. Used for demos, the
// CLI render command and tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]schema.Record
}

var _ Source = (*Memory)(nil)

// NewMemory seeds a store; the seed maps are copied.
func NewMemory(seed map[string][]schema.Record) *Memory {
	m := &Memory{records: make(map[string][]schema.Record, len(seed))}
	for entity, rows := range seed {
		for _, row := range rows {
			m.Add(entity, row)
		}
	}
	return m
}

// Add appends a copy of record to entity.
func (m *Memory) Add(entity string, record schema.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[entity] = append(m.records[entity], cloneRecord(record))
}

func (m *Memory) List(ctx context.Context, entity string, q Query) ([]schema.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := q.limit()
	out := make([]schema.Record, 0)
	for _, row := range m.records[entity] {
		if !matches(row, q.Filter) {
			continue
		}
		out = append(out, cloneRecord(row))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, entity, id string) (schema.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, row := range m.records[entity] {
		if row.ID() == id {
			return cloneRecord(row), nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, entity, id)
}

func matches(row schema.Record, filter map[string]string) bool {
	for field, want := range filter {
		if row.String(field) != want {
			return false
		}
	}
	return true
}

func cloneRecord(r schema.Record) schema.Record {
	out := make(schema.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type fixtureFile struct {
	Records map[string][]map[string]any `json:"records" yaml:"records"`
}

// LoadFixtures walks fsys for JSON or YAML documents with a top-level
// "records" map of entity to rows. Files without that key are skipped so
// fixtures can share a directory with the catalog.
func LoadFixtures(fsys fs.FS) (*Memory, error) {
	m := NewMemory(nil)
	if fsys == nil {
		return m, nil
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
			return fmt.Errorf("records: read %s: %w", path, err)
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			return fmt.Errorf("records: file %s is empty", path)
		}
		var doc fixtureFile
		if err := json.Unmarshal(data, &doc); err != nil {
			doc = fixtureFile{}
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("records: parse %s: invalid JSON or YAML", path)
			}
		}
		for entity, rows := range doc.Records {
			for i, row := range rows {
				if schema.Record(row).ID() == "" {
					return fmt.Errorf("records: %s row %d of %s has no id", path, i, entity)
				}
				m.Add(entity, row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
