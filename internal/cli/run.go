/*
PURPOSE:
  Defines the 'run' subcommand.
  Searches for the optimal user count and optionally soaks at it.

REQUIREMENTS:
  User-specified:
  - One positional argument: the benchmark config document.
  - --continuous keeps running trials at the optimal count until interrupted.

  Implementation-discovered:
  - Ctrl-C must stop a continuous run between trials, never mid-trial.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Run()
  - Uses: settings loaded by root.go

ERROR HANDLING:
  - Returns error if the document is invalid or no optimal count is found.

USAGE:
  forest-capacity run ./echoswift_config.json --continuous

RELATED FILES:
  - internal/cli/root.go
*/

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daryltucker/forest-capacity/internal/engine"
)

var continuousMode bool

var runCmd = &cobra.Command{
	Use:   "run <config.json>",
	Short: "Search for the optimal user count",
	Long: `Runs the capacity search against the benchmark described by <config.json>.
The process follows a strict protocol:
1. Probe: starting at start_users, add increment users per trial until a trial fails
   the thresholds (TTFT <= 2000 ms, latency per token <= 200 ms/token).
2. Refine: binary search between the last passing and the first failing count.
3. Report: write Results/summary_report.csv and optimal_user_count into the document.
4. Soak (--continuous): repeat trials at the optimal count until interrupted.

Every trial is appended to Results/trials.jsonl.`,
	Example: `  # Search only
  forest-capacity run ./config.json

  # Search, then soak at the optimum until Ctrl-C
  forest-capacity run ./config.json --continuous

  # Bound the probe and each trial
  forest-capacity run ./config.json --max-users 400 --trial-timeout 20m`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		return engine.Run(ctx, settings, args[0], continuousMode)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&continuousMode, "continuous", false, "after the search, run trials at the optimal count until interrupted")
	runCmd.Flags().String("binary", "", "benchmark executable (overrides settings)")
	runCmd.Flags().Int("start-users", 0, "user count of the first probe")
	runCmd.Flags().Int("increment", 0, "users added per probe")
	runCmd.Flags().Int("max-users", 0, "stop probing above this count (0 = unbounded)")
	runCmd.Flags().Duration("trial-timeout", 0, "kill a trial that runs longer than this (0 = none)")
	runCmd.Flags().Duration("delay", 0, "pause between continuous trials")
	runCmd.Flags().Int("iterations", 0, "stop the continuous run after this many trials (0 = forever)")

	for _, name := range []string{"binary", "start-users", "increment", "max-users", "trial-timeout", "delay", "iterations"} {
		_ = v.BindPFlag(name, runCmd.Flags().Lookup(name))
	}
}
