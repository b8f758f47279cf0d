/*
PURPOSE:
  Continuous Runner. Repeats trials at the optimal user count for soak testing.

REQUIREMENTS:
  User-specified:
  - Run trials at a fixed count until interrupted.
  - Overwrite the summary report after every successful trial.

  Implementation-discovered:
  - An interrupt stops the loop between trials, never mid-trial. The benchmark
    runs in its own process group, so a trial that still fails after an
    interrupt is counted as the interrupt.
  - max_iterations bounds the loop for scripted soaks.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine.Run (--continuous)
  - Uses: Trialer, Report callback (summary writer)

ERROR HANDLING:
  - Cancellation returns nil.
  - A failed trial stops the loop and returns the wrapped reason.

RELATED FILES:
  - internal/engine/search.go
*/

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/daryltucker/forest-capacity/internal/model"
	"github.com/daryltucker/forest-capacity/internal/output"
)

// Continuous repeats trials at a fixed user count for soak testing.
type Continuous struct {
	Trials Trialer
	Accept func(ttft, latencyPerToken, latency float64) bool
	Delay  time.Duration
	// MaxIterations stops the loop after that many successful trials. 0 means forever.
	MaxIterations int
	Report        func(userCount int, m model.TrialMetrics, elapsed time.Duration)
	Observe       func(TrialEvent)
}

// RunForever loops until ctx is cancelled, a trial fails or MaxIterations is
// reached. Cancellation is only honoured between trials. A cancelled ctx
// returns nil; a failed trial returns its reason.
func (c *Continuous) RunForever(ctx context.Context, userCount int) error {
	if userCount < 1 {
		return fmt.Errorf("continuous run needs a positive user count, got %d", userCount)
	}
	output.Logger.Info("Starting continuous benchmark", "users", userCount, "delay", c.Delay)

	for i := 1; c.MaxIterations == 0 || i <= c.MaxIterations; i++ {
		if ctx.Err() != nil {
			output.Logger.Info("Continuous benchmarking stopped by user", "iterations", i-1)
			return nil
		}

		m, elapsed, err := c.Trials.Trial(ctx, userCount)
		ev := TrialEvent{Phase: fmt.Sprintf("soak #%d", i), UserCount: userCount, Metrics: m, Elapsed: elapsed, Err: err}
		if err == nil {
			accept := c.Accept
			if accept == nil {
				accept = Accepts
			}
			ev.Accepted = accept(m.TTFT, m.LatencyPerToken, m.Latency)
		}
		if c.Observe != nil {
			c.Observe(ev)
		}
		if err != nil && ctx.Err() != nil {
			output.Logger.Info("Continuous benchmarking stopped by user", "iterations", i-1, "trial_error", err)
			return nil
		}
		if err != nil {
			output.Logger.Error("Benchmark run failed. Stopping continuous benchmark.", "iteration", i, "error", err)
			return fmt.Errorf("continuous run stopped at iteration %d: %w", i, err)
		}

		if c.Report != nil {
			c.Report(userCount, m, elapsed)
		}

		if c.MaxIterations != 0 && i == c.MaxIterations {
			break
		}
		if !wait(ctx, c.Delay) {
			output.Logger.Info("Continuous benchmarking stopped by user", "iterations", i)
			return nil
		}
	}
	return nil
}

// wait sleeps for d and reports false if ctx ended first.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
