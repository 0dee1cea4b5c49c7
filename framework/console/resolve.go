package console

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-composer/framework/catalog"
	"github.com/km-arc/go-composer/framework/config"
	"github.com/km-arc/go-composer/framework/container"
	"github.com/km-arc/go-composer/framework/logging"
)

type resolveOptions struct {
	strict   bool
	maxDepth int
	output   string
}

func newResolveCommand(g *globals) *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve [root]",
		Short: "Resolve a root module and print its registry",
		Long: `Resolve the catalog from a root module and print the resulting registry.

The root defaults to RESOLVER_ROOT. Properties visible to selectors and
registrars are the --env files overlaid by the process environment.

Examples:
  composer resolve root
  composer resolve App --strict --output json
  composer resolve App --env .env --env .env.local`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, g, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail on definition conflicts (overrides RESOLVER_STRICT)")
	cmd.Flags().IntVar(&opts.maxDepth, "max-selector-depth", 0, "bound on nested selector expansion (overrides RESOLVER_MAX_SELECTOR_DEPTH)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "output format: table or json")
	return cmd
}

func runResolve(cmd *cobra.Command, g *globals, opts *resolveOptions, args []string) error {
	if opts.output != "table" && opts.output != "json" {
		return fmt.Errorf("unknown output format %q (want table or json)", opts.output)
	}

	cfg := g.load(cmd)
	if cmd.Flags().Changed("strict") {
		cfg.Resolver.Strict = opts.strict
	}
	if cmd.Flags().Changed("max-selector-depth") {
		cfg.Resolver.MaxSelectorDepth = opts.maxDepth
	}

	root := cfg.Resolver.Root
	if len(args) == 1 {
		root = args[0]
	}
	if root == "" {
		return fmt.Errorf("no root module given and RESOLVER_ROOT is not set")
	}

	c, err := catalog.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	logger := logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
	resolver := container.NewResolver(c,
		container.WithPolicy(cfg.Policy()),
		container.WithMaxSelectorDepth(cfg.Resolver.MaxSelectorDepth),
		container.WithProperties(config.Properties(g.envFiles...)),
		container.WithLogger(logger),
	)

	res, err := resolver.Resolve(contextOf(cmd), root)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", root, err)
	}

	if opts.output == "json" {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	return writeTable(cmd.OutOrStdout(), res)
}

func writeJSON(w io.Writer, res *container.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func writeTable(w io.Writer, res *container.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tSOURCE\tORIGIN")
	for _, d := range res.Registry.Definitions() {
		origin := d.Origin.String()
		if origin == "" {
			origin = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.Kind, d.Source, origin)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, d := range res.Diagnostics {
		fmt.Fprintf(w, "override: %s\n", d)
	}
	fmt.Fprintf(w, "\n%d definitions, %d overrides, policy %s, pass %s\n",
		res.Registry.Len(), len(res.Diagnostics), res.Registry.Policy(), res.PassID)
	return nil
}
