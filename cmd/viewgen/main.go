package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "viewgen",
		Short: "Declarative views, detail pages and dashboards",
		Long: `viewgen renders entity collections, record detail pages and configurable
dashboards from schema, page and widget descriptors kept in a catalog
directory.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ./viewgen.yaml)")

	root.AddCommand(
		newServeCommand(opts),
		newRenderCommand(),
		newLintCommand(),
		newLayoutCommand(),
		newTokenCommand(opts),
	)
	return root
}
