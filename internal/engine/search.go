/*
PURPOSE:
  Search Controller. Finds the highest user count whose trial passes the
  acceptance criterion.

REQUIREMENTS:
  User-specified:
  - Phase 1: linear probe from 56 users in steps of 10 until a trial is rejected.
  - Phase 2: binary search between the last accepted and the first rejected count.
  - Any trial or extraction failure aborts the search with no result.
  - Re-extract the metrics of the returned count once the search settles.

  Implementation-discovered:
  - Acceptance is assumed monotonically non-increasing in user count. Not verified.
  - Phase 2 returns low-1, which is exactly the boundary K when low <= K < high.
    When every mid is rejected, mid eventually equals low and re-validates it.
  - Zero users cannot be measured: a mid below 1 is treated as rejected without a trial.
  - Without max_user_count a system that never rejects keeps Phase 1 probing forever.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine.Run
  - Uses: Trialer (Pipeline in production, fakes in tests)

ERROR HANDLING:
  - Returns a SearchResult; Err is set whenever Found is false.

IMPLEMENTATION RULES:
  - Sequential. One trial at a time.
  - Context is checked between trials only.
  - A trial that fails after an interrupt reports the interrupt, not its own error.

RELATED FILES:
  - internal/engine/pipeline.go
  - internal/engine/criterion.go
*/

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daryltucker/forest-capacity/internal/model"
	"github.com/daryltucker/forest-capacity/internal/output"
)

// Search phases, as reported in TrialEvent.Phase.
const (
	PhaseProbe  = "probe"
	PhaseRefine = "refine"
)

// ErrNoOptimal is returned when the search settles without an acceptable count.
var ErrNoOptimal = errors.New("no valid optimal user count found")

// Trialer runs a trial and reads back metrics for a count already tried.
type Trialer interface {
	Trial(ctx context.Context, userCount int) (model.TrialMetrics, time.Duration, error)
	Metrics(userCount int) (model.TrialMetrics, error)
}

// TrialEvent describes one completed (or failed) trial.
type TrialEvent struct {
	Phase     string
	UserCount int
	Metrics   model.TrialMetrics
	Elapsed   time.Duration
	Accepted  bool
	Err       error
}

// SearchResult is the outcome of Search.
type SearchResult struct {
	Found            bool
	OptimalUserCount int
	Metrics          model.TrialMetrics
	BenchmarkTime    time.Duration
	// BestKnown is the highest count accepted before the search stopped.
	BestKnown int
	// Visited lists every user count dispatched, in order.
	Visited []int
	// ProbeLow and ProbeHigh are the bounds handed to Phase 2.
	ProbeLow, ProbeHigh int
	Refined             bool
	Err                 error
}

// Searcher holds the search parameters.
type Searcher struct {
	Trials       Trialer
	Accept       func(ttft, latencyPerToken, latency float64) bool
	Start        int
	Increment    int
	MaxUserCount int
	Observe      func(TrialEvent)
}

type searchState struct {
	low, high        int
	previousAccepted int
	current          int
	increment        int
}

// Search runs the linear probe followed by the binary-search refinement.
func (s *Searcher) Search(ctx context.Context) SearchResult {
	st := searchState{current: s.Start, increment: s.Increment}
	res := SearchResult{}
	elapsed := make(map[int]time.Duration)

	optimal := 0
	for {
		if err := ctx.Err(); err != nil {
			return s.abort(res, fmt.Errorf("search interrupted: %w", err))
		}
		if s.MaxUserCount > 0 && st.current > s.MaxUserCount {
			output.Logger.Warn("Probe reached max_user_count without a rejection",
				"max_user_count", s.MaxUserCount, "last_accepted", st.previousAccepted)
			optimal = st.previousAccepted
			break
		}

		ok, err := s.try(ctx, PhaseProbe, st.current, &res, elapsed)
		if err != nil {
			return s.abort(res, fmt.Errorf("probe at %d users: %w", st.current, err))
		}
		if ok {
			st.previousAccepted = st.current
			st.current += st.increment
			continue
		}

		st.low, st.high = st.previousAccepted, st.current
		res.ProbeLow, res.ProbeHigh = st.low, st.high
		res.Refined = true
		output.Logger.Info("Refining", "low", st.low, "high", st.high)

		optimal, err = s.refine(ctx, st.low, st.high, &res, elapsed)
		if err != nil {
			return s.abort(res, fmt.Errorf("refinement between %d and %d users: %w", st.low, st.high, err))
		}
		break
	}

	res.OptimalUserCount = optimal
	if optimal < 1 {
		res.Err = ErrNoOptimal
		return res
	}

	m, err := s.Trials.Metrics(optimal)
	if err != nil {
		res.Err = fmt.Errorf("re-reading metrics for %d users: %w", optimal, err)
		return res
	}
	res.Found = true
	res.Metrics = m
	res.BenchmarkTime = elapsed[optimal]
	return res
}

// refine narrows (low, high) and returns low-1 once low == high.
func (s *Searcher) refine(ctx context.Context, low, high int, res *SearchResult, elapsed map[int]time.Duration) (int, error) {
	for low < high {
		if err := ctx.Err(); err != nil {
			return low - 1, err
		}
		mid := (low + high) / 2
		if mid < 1 {
			high = mid
			continue
		}

		ok, err := s.try(ctx, PhaseRefine, mid, res, elapsed)
		if err != nil {
			return low - 1, err
		}
		if ok {
			low = mid + 1
		} else {
			high = mid
		}
	}
	return low - 1, nil
}

func (s *Searcher) try(ctx context.Context, phase string, n int, res *SearchResult, elapsed map[int]time.Duration) (bool, error) {
	res.Visited = append(res.Visited, n)

	m, took, err := s.Trials.Trial(ctx, n)
	if err != nil && ctx.Err() != nil {
		// A trial broken by the interrupt says nothing about the count.
		err = fmt.Errorf("interrupted during trial: %w (%v)", ctx.Err(), err)
	}
	ev := TrialEvent{Phase: phase, UserCount: n, Metrics: m, Elapsed: took, Err: err}
	if err == nil {
		ev.Accepted = s.accept(m)
		elapsed[n] = took
		if ev.Accepted && n > res.BestKnown {
			res.BestKnown = n
		}
	}
	if s.Observe != nil {
		s.Observe(ev)
	}
	return ev.Accepted, err
}

func (s *Searcher) accept(m model.TrialMetrics) bool {
	if s.Accept != nil {
		return s.Accept(m.TTFT, m.LatencyPerToken, m.Latency)
	}
	return Accepts(m.TTFT, m.LatencyPerToken, m.Latency)
}

func (s *Searcher) abort(res SearchResult, err error) SearchResult {
	output.Logger.Error("Search aborted", "best_known", res.BestKnown, "error", err)
	res.Found = false
	res.Err = err
	return res
}
