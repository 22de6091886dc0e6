package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-viewgen/internal/catalog"
)

func newLintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint [catalog-dir]",
		Short: "Check schemas, detail pages and widget definitions for broken references",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "catalog"
			if len(args) == 1 {
				dir = args[0]
			}
			cat, err := catalog.Open(dir)
			if err != nil {
				return err
			}
			problems := catalog.Lint(cat.Current())
			out := cmd.OutOrStdout()
			for _, problem := range problems {
				fmt.Fprintf(out, "- %v\n", problem)
			}
			if len(problems) > 0 {
				return fmt.Errorf("lint: %d problem(s) in %s", len(problems), dir)
			}
			snap := cat.Current()
			fmt.Fprintf(out, "%s: %d schemas, %d pages, %d widgets ok\n",
				dir, snap.Schemas.Len(), len(snap.Pages.Entities()), len(snap.Widgets.Definitions()))
			return nil
		},
	}
}
