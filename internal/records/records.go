package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-viewgen/pkg/dashboard"
	"github.com/goliatone/go-viewgen/pkg/detail"
	"github.com/goliatone/go-viewgen/pkg/schema"
)

// ErrNotFound is returned by Get when the record does not exist.
var ErrNotFound = errors.New("records: not found")

// DefaultLimit applies when a query sets no limit.
const DefaultLimit = 200

// Query narrows a List call. Filter matches fields by exact string value.
type Query struct {
	Limit  int
	Filter map[string]string
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// Source reads entity records. Ordering is backend defined.
type Source interface {
	List(ctx context.Context, entity string, q Query) ([]schema.Record, error)
	Get(ctx context.Context, entity, id string) (schema.Record, error)
}

// ForeignKey returns the field linking section rows to parentEntity, using
// the section's explicit key or "<singular parent>_id".
func ForeignKey(section detail.RelatedListSection, parentEntity string) string {
	if key := strings.TrimSpace(section.ForeignKey); key != "" {
		return key
	}
	singular := strings.TrimSuffix(parentEntity, "s")
	return singular + "_id"
}

// FetchDetail loads a record and every related-list collection of desc
// concurrently. The record lookup error wins; a failing related fetch fails
// the whole page.
func FetchDetail(ctx context.Context, src Source, desc detail.Descriptor, id string) (schema.Record, map[string][]schema.Record, error) {
	g, gctx := errgroup.WithContext(ctx)

	var record schema.Record
	g.Go(func() error {
		r, err := src.Get(gctx, desc.Entity, id)
		if err != nil {
			return err
		}
		record = r
		return nil
	})

	sections := relatedSections(desc)
	results := make([][]schema.Record, len(sections))
	for i, section := range sections {
		g.Go(func() error {
			rows, err := src.List(gctx, section.Entity, Query{
				// one extra row lets the page report hidden rows
				Limit:  section.EffectiveLimit() + 1,
				Filter: map[string]string{ForeignKey(section, desc.Entity): id},
			})
			if err != nil {
				return fmt.Errorf("records: related %s: %w", section.Entity, err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	related := make(map[string][]schema.Record, len(sections))
	for i, section := range sections {
		related[section.Entity] = append(related[section.Entity], results[i]...)
	}
	return record, related, nil
}

func relatedSections(desc detail.Descriptor) []detail.RelatedListSection {
	var out []detail.RelatedListSection
	seen := make(map[string]struct{})
	for _, s := range desc.Sections {
		rel, ok := s.(detail.RelatedListSection)
		if !ok || rel.Entity == "" {
			continue
		}
		if _, dup := seen[rel.Entity]; dup {
			continue
		}
		seen[rel.Entity] = struct{}{}
		out = append(out, rel)
	}
	return out
}

// ForDashboard adapts src to the dashboard record-list widget.
func ForDashboard(src Source) dashboard.RecordSource {
	return dashboardSource{src: src}
}

type dashboardSource struct {
	src Source
}

func (d dashboardSource) List(ctx context.Context, entity string, limit int) ([]schema.Record, error) {
	return d.src.List(ctx, entity, Query{Limit: limit})
}
