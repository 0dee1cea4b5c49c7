// Package console is the composer command line.
//
//	composer resolve root --catalog catalog.yaml --output table
//	composer validate --catalog catalog.yaml
//	composer serve
package console

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-composer/framework/config"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	catalogPath string
	envFiles    []string
}

// load reads the configuration the way serve does, then applies the
// --catalog flag when it was given.
func (g *globals) load(cmd *cobra.Command) *config.Config {
	cfg := config.Load(g.envFiles...)
	if cmd.Flags().Changed("catalog") {
		cfg.Catalog.Path = g.catalogPath
	}
	return cfg
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "composer",
		Short: "Resolve dependency-injection configuration graphs",
		Long: `Composer walks a catalog of modules, components, selectors and
registrars from a root module and produces one flat registry of definitions.

Quick start:
  composer validate --catalog catalog.yaml   # Check the catalog
  composer resolve root                      # Print the registry for root
  composer serve                             # Start the inspection API`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.catalogPath, "catalog", "c", "catalog.yaml", "catalog file path (overrides CATALOG_PATH)")
	root.PersistentFlags().StringSliceVar(&g.envFiles, "env", []string{".env"}, "dotenv files to load")

	root.AddCommand(
		newResolveCommand(g),
		newValidateCommand(g),
		newServeCommand(g),
		newVersionCommand(),
	)
	return root
}

// contextOf returns the command context, or Background when run outside
// ExecuteContext.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
