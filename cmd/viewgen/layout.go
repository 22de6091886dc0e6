package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-viewgen/internal/catalog"
	"github.com/goliatone/go-viewgen/internal/prompt"
	"github.com/goliatone/go-viewgen/pkg/dashboard"
)

// newPromptDriver is swapped in tests.
var newPromptDriver = func(out io.Writer) prompt.Driver {
	return prompt.NewSurveyDriver(out)
}

func newLayoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Edit dashboard layout files",
	}
	cmd.AddCommand(newLayoutAddCommand())
	return cmd
}

func newLayoutAddCommand() *cobra.Command {
	var catalogDir, file string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Pick a widget from the catalog and append it to a layout file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := catalog.Open(catalogDir)
			if err != nil {
				return err
			}
			layout, err := readLayout(file)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			next, placed, err := prompt.AddWidget(cmd.Context(), newPromptDriver(out), cat.Current().Widgets, layout)
			if err != nil {
				if errors.Is(err, prompt.ErrAborted) {
					fmt.Fprintln(out, "aborted, layout unchanged")
					return nil
				}
				return err
			}
			if err := writeLayout(file, next); err != nil {
				return err
			}
			fmt.Fprintf(out, "added %s (%s) to %s\n", placed.WidgetID, placed.ID, file)
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogDir, "catalog", "catalog", "catalog directory")
	cmd.Flags().StringVarP(&file, "file", "f", "layout.json", "layout JSON file; created when missing")
	return cmd
}

func readLayout(path string) (dashboard.Layout, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return dashboard.Layout{}, nil
	}
	if err != nil {
		return dashboard.Layout{}, fmt.Errorf("layout: read %s: %w", path, err)
	}
	var layout dashboard.Layout
	if err := json.Unmarshal(raw, &layout); err != nil {
		return dashboard.Layout{}, fmt.Errorf("layout: decode %s: %w", path, err)
	}
	if err := layout.Validate(); err != nil {
		return dashboard.Layout{}, fmt.Errorf("layout: %s: %w", path, err)
	}
	return layout, nil
}

func writeLayout(path string, layout dashboard.Layout) error {
	raw, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("layout: encode: %w", err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("layout: write %s: %w", path, err)
	}
	return nil
}
