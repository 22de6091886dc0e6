package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	viewgen "github.com/goliatone/go-viewgen"
	"github.com/goliatone/go-viewgen/internal/catalog"
	"github.com/goliatone/go-viewgen/internal/records"
	"github.com/goliatone/go-viewgen/pkg/render"
	"github.com/goliatone/go-viewgen/pkg/schema"
)

type renderOptions struct {
	catalogDir string
	entity     string
	view       string
	dataPath   string
	recordID   string
	page       bool
	output     string
}

func newRenderCommand() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a view or detail page to HTML without a server",
		Example: `  viewgen render --catalog examples/catalog --entity contacts --view kanban
  viewgen render --catalog examples/catalog --entity contacts --record c1 --page -o c1.html`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.catalogDir, "catalog", "catalog", "catalog directory")
	f.StringVar(&opts.entity, "entity", "", "entity to render")
	f.StringVar(&opts.view, "view", "table", "view type: table, grid, list, kanban, calendar")
	f.StringVar(&opts.dataPath, "data", "", "JSON array of records (defaults to the catalog's records)")
	f.StringVar(&opts.recordID, "record", "", "render the detail page of this record instead of a view")
	f.BoolVar(&opts.page, "page", false, "wrap the output in a full HTML document")
	f.StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	ctx := cmd.Context()
	cat, err := catalog.Open(opts.catalogDir)
	if err != nil {
		return err
	}
	snap := cat.Current()

	source, err := loadRecords(opts)
	if err != nil {
		return err
	}

	var body []byte
	title := opts.entity
	if opts.recordID != "" {
		desc, err := snap.Pages.Descriptor(opts.entity)
		if err != nil {
			return err
		}
		record, related, err := records.FetchDetail(ctx, source, desc, opts.recordID)
		if err != nil {
			return err
		}
		if body, err = viewgen.RenderDetail(ctx, desc, record, related); err != nil {
			return err
		}
		if t := record.String(desc.TitleField); t != "" {
			title = t
		}
	} else {
		sc, err := snap.Schemas.Schema(opts.entity)
		if err != nil {
			return err
		}
		data, err := source.List(ctx, opts.entity, records.Query{})
		if err != nil {
			return err
		}
		if body, err = viewgen.RenderView(ctx, sc, data, opts.view); err != nil {
			return err
		}
		if sc.LabelPlural != "" {
			title = sc.LabelPlural
		}
	}

	if opts.page {
		page, err := render.NewPage()
		if err != nil {
			return err
		}
		if body, err = page.Render(ctx, render.PageData{Title: title, Body: body}); err != nil {
			return err
		}
	}
	return writeOutput(cmd.OutOrStdout(), opts.output, body)
}

// loadRecords reads --data when given; otherwise the fixtures stored in the
// catalog directory.
func loadRecords(opts *renderOptions) (records.Source, error) {
	if opts.dataPath == "" {
		return records.LoadFixtures(os.DirFS(opts.catalogDir))
	}
	raw, err := os.ReadFile(opts.dataPath)
	if err != nil {
		return nil, fmt.Errorf("render: read data: %w", err)
	}
	var rows []schema.Record
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("render: %s must hold a JSON array of records: %w", opts.dataPath, err)
	}
	return records.NewMemory(map[string][]schema.Record{opts.entity: rows}), nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "written to %s\n", path)
	return nil
}
