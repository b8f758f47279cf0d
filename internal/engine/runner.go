/*
PURPOSE:
  High-level runner that orchestrates a capacity test.
  Search for the optimal user count, report it, then optionally soak at it.

REQUIREMENTS:
  User-specified:
  - Write the summary report and optimal_user_count when the search succeeds.
  - With --continuous, loop forever at the optimal count.

  Implementation-discovered:
  - Continuous mode without an optimum has nothing to run; refuse instead of looping.
  - Every trial goes to the JSON Lines trial log as well as the console.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/benchdoc, internal/engine (Searcher, Continuous, Pipeline), internal/output

ERROR HANDLING:
  - Errors end the current phase. Report-writing errors are logged only.

IMPLEMENTATION RULES:
  - Load document -> ensure Results/ -> Search -> Report -> (Continuous).

USAGE:
  engine.Run(ctx, cfg, "config.json", continuous)

RELATED FILES:
  - internal/engine/search.go
  - internal/engine/continuous.go
*/

package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/daryltucker/forest-capacity/internal/benchdoc"
	"github.com/daryltucker/forest-capacity/internal/config"
	"github.com/daryltucker/forest-capacity/internal/model"
	"github.com/daryltucker/forest-capacity/internal/output"
)

// Engine wires the settings, the trial source and the reporting sinks.
type Engine struct {
	Config  *config.Config
	Console *output.Console
	// Trials overrides the benchmark pipeline. Nil means run the real benchmark.
	Trials Trialer
}

// New creates a new Engine.
func New(cfg *config.Config) *Engine {
	return &Engine{
		Config:  cfg,
		Console: output.NewConsole(nil),
	}
}

// Run executes a full capacity test with a default Engine.
func Run(ctx context.Context, cfg *config.Config, docPath string, continuous bool) error {
	return New(cfg).Run(ctx, docPath, continuous)
}

// Run executes the search and, if asked, the continuous loop.
func (e *Engine) Run(ctx context.Context, docPath string, continuous bool) error {
	doc, err := benchdoc.Load(docPath)
	if err != nil {
		return err
	}

	resultsDir := filepath.Join(doc.OutDir(), e.Config.ResultsDirName)
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return fmt.Errorf("failed to create results directory %s: %w", resultsDir, err)
	}

	runID := output.NewRunID()
	trialLog, err := output.OpenTrialLog(filepath.Join(resultsDir, output.TrialLogFileName), runID)
	if err != nil {
		output.Logger.Warn("Trial log disabled", "error", err)
		trialLog = nil
	} else {
		defer trialLog.Close()
	}
	output.Logger.Info("Capacity test starting", "run_id", runID, "config", docPath, "out_dir", doc.OutDir())

	trials := e.Trials
	if trials == nil {
		trials = &Pipeline{
			Runner:       NewRunner(e.Config),
			DocumentPath: docPath,
			OutDir:       doc.OutDir(),
			ResultsDir:   resultsDir,
		}
	}

	searcher := &Searcher{
		Trials:       trials,
		Accept:       e.Config.Thresholds.Accepts,
		Start:        e.Config.StartUsers,
		Increment:    e.Config.Increment,
		MaxUserCount: e.Config.MaxUserCount,
		Observe:      e.observer(trialLog, model.ModeSearch),
	}
	res := searcher.Search(ctx)
	if !res.Found {
		e.Console.NoResult(res.Err.Error())
		return fmt.Errorf("no optimal user count found: %w", res.Err)
	}

	summaryPath := filepath.Join(resultsDir, output.SummaryFileName)
	rec := model.NewSummaryRecord(res.OptimalUserCount, res.Metrics, res.BenchmarkTime)
	output.WriteSummary(summaryPath, rec)
	e.Console.Result(rec)

	if err := recordOptimal(docPath, res.OptimalUserCount); err != nil {
		output.Logger.Error("Failed to record optimal user count in config document", "error", err)
	}

	if !continuous {
		return nil
	}

	soak := &Continuous{
		Trials:        trials,
		Accept:        e.Config.Thresholds.Accepts,
		Delay:         e.Config.ContinuousDelay,
		MaxIterations: e.Config.MaxIterations,
		Observe:       e.observer(trialLog, model.ModeContinuous),
		Report: func(n int, m model.TrialMetrics, elapsed time.Duration) {
			output.WriteSummary(summaryPath, model.NewSummaryRecord(n, m, elapsed))
		},
	}
	return soak.RunForever(ctx, res.OptimalUserCount)
}

// observer fans a trial event out to the logger, the console and the trial log.
func (e *Engine) observer(trialLog *output.TrialLog, mode model.Mode) func(TrialEvent) {
	return func(ev TrialEvent) {
		entry := model.TrialEntry{
			Mode:      mode,
			Phase:     ev.Phase,
			UserCount: ev.UserCount,
			Elapsed:   ev.Elapsed,
			Accepted:  ev.Accepted,
		}
		if ev.Err != nil {
			output.Logger.Error("Trial failed", "phase", ev.Phase, "users", ev.UserCount, "error", ev.Err)
			entry.Error = ev.Err.Error()
		} else {
			m := ev.Metrics
			entry.Metrics = &m
			output.Logger.Info("Trial complete",
				"phase", ev.Phase,
				"users", ev.UserCount,
				"ttft_ms", m.TTFT,
				"latency_ms", m.Latency,
				"latency_per_token_ms", m.LatencyPerToken,
				"throughput_tps", m.Throughput,
				"total_throughput_tps", m.TotalThroughput,
				"accepted", ev.Accepted,
			)
			e.Console.Trial(ev.Phase, ev.UserCount, m, ev.Accepted)
		}
		if trialLog != nil {
			if err := trialLog.Write(entry); err != nil {
				output.Logger.Error("Failed to write trial log", "error", err)
			}
		}
	}
}

func recordOptimal(docPath string, n int) error {
	doc, err := benchdoc.Load(docPath)
	if err != nil {
		return err
	}
	doc.SetOptimal(n)
	return doc.Save()
}
