/*
PURPOSE:
  Production Trialer. Chains the Trial Runner and the Metrics Extractor.

IMPLEMENTATION RULES:
  - The benchmark never sees ctx cancellation. Only trial_timeout stops it.
*/

package engine

import (
	"context"
	"time"

	"github.com/daryltucker/forest-capacity/internal/model"
)

// Pipeline is the production Trialer: dispatch, run, copy, extract.
type Pipeline struct {
	Runner       *Runner
	DocumentPath string
	OutDir       string
	ResultsDir   string
}

// Trial runs the benchmark at userCount and extracts its metrics.
// The benchmark itself is never interrupted by ctx; only the runner's own
// timeout can stop it.
func (p *Pipeline) Trial(ctx context.Context, userCount int) (model.TrialMetrics, time.Duration, error) {
	out := p.Runner.RunTrial(context.WithoutCancel(ctx), model.TrialRequest{
		UserCount:    userCount,
		DocumentPath: p.DocumentPath,
		OutDir:       p.OutDir,
	})
	if !out.Succeeded() {
		return model.TrialMetrics{}, out.Elapsed, out.Err
	}
	m, err := Extract(p.ResultsDir, userCount)
	return m, out.Elapsed, err
}

// Metrics re-reads the canonical artifact for a count already tried.
func (p *Pipeline) Metrics(userCount int) (model.TrialMetrics, error) {
	return Extract(p.ResultsDir, userCount)
}
