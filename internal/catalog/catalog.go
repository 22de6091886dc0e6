// Package catalog loads the declarative configuration of a viewgen
// deployment (entity schemas, detail pages, widget definitions) from one
// directory and keeps the current snapshot swappable for hot reload.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/goliatone/go-viewgen/pkg/dashboard"
	"github.com/goliatone/go-viewgen/pkg/detail"
	"github.com/goliatone/go-viewgen/pkg/schema"
)

// Snapshot is one consistent, read-only load of the catalog directory.
type Snapshot struct {
	Schemas *schema.Catalog
	Pages   *detail.Catalog
	Widgets *dashboard.Registry
}

// Load parses fsys into a snapshot. Built-in widgets are always registered;
// catalog widget definitions are added after them.
func Load(fsys fs.FS, deps dashboard.BuiltinDeps) (*Snapshot, error) {
	schemas, err := schema.LoadFS(fsys)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	pages, err := detail.LoadFS(fsys)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	defs, err := dashboard.LoadDefinitions(fsys)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	if deps.Schemas == nil {
		deps.Schemas = schemas.Schema
	}
	registry, err := dashboard.RegisterBuiltins(dashboard.NewBuilder(), deps).
		Define(defs...).
		Build()
	if err != nil {
		return nil, fmt.Errorf("catalog: widgets: %w", err)
	}
	return &Snapshot{Schemas: schemas, Pages: pages, Widgets: registry}, nil
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used for reload reports.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithWidgetDeps wires the data sources of the built-in widgets.
func WithWidgetDeps(deps dashboard.BuiltinDeps) Option {
	return func(c *Catalog) {
		c.deps = deps
	}
}

// OnReload registers a callback invoked after each successful reload.
func OnReload(fn func(*Snapshot)) Option {
	return func(c *Catalog) {
		if fn != nil {
			c.listeners = append(c.listeners, fn)
		}
	}
}

// Catalog serves the latest snapshot of a directory.
type Catalog struct {
	dir       string
	fsys      fs.FS
	deps      dashboard.BuiltinDeps
	logger    *zap.Logger
	listeners []func(*Snapshot)

	reloadMu sync.Mutex
	current  atomic.Pointer[Snapshot]
}

// Open loads dir once. The initial load must succeed.
func Open(dir string, options ...Option) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog: %s is not a directory", dir)
	}

	c := &Catalog{dir: dir, fsys: os.DirFS(dir), logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	snap, err := Load(c.fsys, c.deps)
	if err != nil {
		return nil, err
	}
	c.current.Store(snap)
	return c, nil
}

// Dir returns the watched directory.
func (c *Catalog) Dir() string { return c.dir }

// Current returns the active snapshot.
func (c *Catalog) Current() *Snapshot {
	return c.current.Load()
}

// Reload parses the directory again. On failure the previous snapshot stays
// active and the error is returned.
func (c *Catalog) Reload() error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	snap, err := Load(c.fsys, c.deps)
	if err != nil {
		return err
	}
	c.current.Store(snap)
	c.logger.Info("catalog reloaded",
		zap.String("dir", c.dir),
		zap.Int("schemas", snap.Schemas.Len()),
		zap.Int("pages", len(snap.Pages.Entities())),
		zap.Int("widgets", len(snap.Widgets.Definitions())),
	)
	for _, fn := range c.listeners {
		fn(snap)
	}
	return nil
}

// Lint reports cross-document problems the loaders accept: descriptor lint
// errors, pages or related lists naming unknown entities, and record-list
// widgets pointing at unknown entities.
func Lint(s *Snapshot) []error {
	if s == nil {
		return nil
	}
	var problems []error
	for _, entity := range s.Pages.Entities() {
		desc, err := s.Pages.Descriptor(entity)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		if err := desc.Validate(); err != nil {
			problems = append(problems, unwrapJoined(err)...)
		}
		if _, err := s.Schemas.Schema(entity); err != nil {
			problems = append(problems, fmt.Errorf("catalog: page %q has no schema", entity))
		}
		for _, section := range desc.Sections {
			rel, ok := section.(detail.RelatedListSection)
			if !ok {
				continue
			}
			if _, err := s.Schemas.Schema(rel.Entity); err != nil {
				problems = append(problems, fmt.Errorf("catalog: page %q related list %q names unknown entity %q", entity, rel.ID, rel.Entity))
			}
		}
	}
	for _, def := range s.Widgets.Definitions() {
		if def.Component != dashboard.ComponentRecordList {
			continue
		}
		entity, _ := def.DefaultConfig["entity"].(string)
		if entity == "" {
			continue
		}
		if _, err := s.Schemas.Schema(entity); err != nil {
			problems = append(problems, fmt.Errorf("catalog: widget %q lists unknown entity %q", def.ID, entity))
		}
	}
	return problems
}

func unwrapJoined(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}
