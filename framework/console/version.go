package console

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-composer/framework/app"
)

var (
	// Set via ldflags at build time
	commit    = "none"
	buildDate = "unknown"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "composer %s\n", app.Version)
			fmt.Fprintf(out, "  commit:  %s\n", commit)
			fmt.Fprintf(out, "  built:   %s\n", buildDate)
		},
	}
}
