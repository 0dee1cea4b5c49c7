package console

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-composer/framework/catalog"
	"github.com/km-arc/go-composer/framework/config"
	"github.com/km-arc/go-composer/framework/container"
)

func newValidateCommand(g *globals) *cobra.Command {
	var roots []string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a catalog file",
		Long: `Validate the catalog file.

Checks:
  - The file exists and is valid YAML
  - Every entry has a well-formed identity and a known kind
  - Identities are unique across all sections
  - Each --root resolves without error (optional)

Examples:
  composer validate
  composer validate --catalog catalog.yaml --root App --root Worker`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, g, roots)
		},
	}

	cmd.Flags().StringSliceVar(&roots, "root", nil, "root modules to resolve as part of validation")
	return cmd
}

func runValidate(cmd *cobra.Command, g *globals, roots []string) error {
	cfg := g.load(cmd)
	out := cmd.OutOrStdout()
	path := cfg.Catalog.Path

	fmt.Fprintf(out, "Validating %s...\n\n", path)

	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(out, "  %s Catalog file exists\n", crossMark)
		return fmt.Errorf("catalog file not found: %s", path)
	}
	fmt.Fprintf(out, "  %s Catalog file exists\n", checkMark)

	f, err := catalog.Load(path)
	if err != nil {
		fmt.Fprintf(out, "  %s Catalog syntax valid\n", crossMark)
		return err
	}
	fmt.Fprintf(out, "  %s Catalog syntax valid\n", checkMark)

	c, err := catalog.Build(f)
	if err != nil {
		fmt.Fprintf(out, "  %s Identities unique\n", crossMark)
		return err
	}
	fmt.Fprintf(out, "  %s Identities unique\n", checkMark)

	stats := f.Stats()
	fmt.Fprintf(out, "  %s Modules: %d, components: %d, selectors: %d, registrars: %d\n",
		checkMark, stats["modules"], stats["components"], stats["selectors"], stats["registrars"])

	resolver := container.NewResolver(c,
		container.WithPolicy(cfg.Policy()),
		container.WithMaxSelectorDepth(cfg.Resolver.MaxSelectorDepth),
		container.WithProperties(config.Properties(g.envFiles...)),
	)

	failed := 0
	for _, root := range roots {
		res, err := resolver.Resolve(contextOf(cmd), root)
		if err != nil {
			failed++
			fmt.Fprintf(out, "  %s Resolve %s: %s (%v)\n", crossMark, root, container.FailureKind(err), err)
			continue
		}
		fmt.Fprintf(out, "  %s Resolve %s: %d definitions, %d overrides\n",
			checkMark, root, res.Registry.Len(), len(res.Diagnostics))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d roots failed to resolve", failed, len(roots))
	}

	fmt.Fprintln(out, "\nCatalog is valid.")
	return nil
}
