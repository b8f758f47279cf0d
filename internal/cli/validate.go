/*
PURPOSE:
  Defines the 'validate' subcommand.
  Checks the config document and settings without running the benchmark.

REQUIREMENTS:
  Implementation-discovered:
  - Useful validation step before a long search.

ARCHITECTURE INTEGRATION:
  - Calls: internal/benchdoc.Load()

ERROR HANDLING:
  - Returns the document error (ConfigMissingField / ConfigInvalid).
  - A benchmark binary missing from PATH is a warning, not an error.

USAGE:
  forest-capacity validate ./config.json
*/

package cli

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/daryltucker/forest-capacity/internal/benchdoc"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config.json>",
	Short: "Check the config document and runner settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := benchdoc.Load(args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "config:       %s\n", doc.Path())
		fmt.Fprintf(w, "out_dir:      %s\n", doc.OutDir())
		fmt.Fprintf(w, "user_counts:  %v\n", doc.UserCounts())
		if n, ok := doc.OptimalUserCount(); ok {
			fmt.Fprintf(w, "optimal:      %d\n", n)
		}
		fmt.Fprintf(w, "benchmark:    %s %v\n", settings.BenchmarkBinary, settings.BenchmarkArgs)
		fmt.Fprintf(w, "search:       start=%d increment=%d max=%d\n", settings.StartUsers, settings.Increment, settings.MaxUserCount)

		if _, err := exec.LookPath(settings.BenchmarkBinary); err != nil {
			fmt.Fprintf(w, "warning:      %v\n", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
