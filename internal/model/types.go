/*
PURPOSE:
  Defines the core data structures used throughout Forest Capacity.
  These models describe a trial request, its outcome, the metrics it produced
  and the summary rows written for it.

REQUIREMENTS:
  User-specified:
  - Record TTFT, latency, latency per token, throughput and total throughput.
  - Record the wall-clock time of each benchmark run.

  Implementation-discovered:
  - A trial either yields an artifact or a reason it did not; make that explicit.
  - Need JSON tags for the trial log.

ARCHITECTURE INTEGRATION:
  - Used by: internal/engine, internal/output
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs).

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Metrics are plain float64 in the units the benchmark reports (ms, tokens/s).

RELATED FILES:
  - internal/output/csv.go
  - internal/output/json.go
*/

package model

import (
	"time"
)

// Mode tells which phase produced a record.
type Mode string

const (
	ModeSearch     Mode = "search"
	ModeContinuous Mode = "continuous"
)

// TrialRequest is everything the Trial Runner needs to dispatch one trial.
type TrialRequest struct {
	UserCount    int
	DocumentPath string
	OutDir       string
}

// TrialMetrics holds the averaged metrics of one trial.
type TrialMetrics struct {
	TTFT            float64 `json:"ttft_ms"`
	LatencyPerToken float64 `json:"latency_per_token_ms"`
	Latency         float64 `json:"latency_ms"`
	Throughput      float64 `json:"throughput_tps"`
	TotalThroughput float64 `json:"total_throughput_tps"`
}

// NewTrialMetrics derives TotalThroughput from the per-user throughput.
func NewTrialMetrics(ttft, latencyPerToken, latency, throughput float64, userCount int) TrialMetrics {
	return TrialMetrics{
		TTFT:            ttft,
		LatencyPerToken: latencyPerToken,
		Latency:         latency,
		Throughput:      throughput,
		TotalThroughput: throughput * float64(userCount),
	}
}

// TrialOutcome is either a success carrying the canonical artifact path
// or a failure carrying its reason. Elapsed is set in both cases once the
// benchmark process was started.
type TrialOutcome struct {
	UserCount    int
	ArtifactPath string
	Elapsed      time.Duration
	Err          error
}

// Succeeded reports whether the trial produced an artifact.
func (o TrialOutcome) Succeeded() bool {
	return o.Err == nil
}

// Success builds a successful outcome.
func Success(userCount int, artifact string, elapsed time.Duration) TrialOutcome {
	return TrialOutcome{UserCount: userCount, ArtifactPath: artifact, Elapsed: elapsed}
}

// Failed builds a failed outcome.
func Failed(userCount int, reason error, elapsed time.Duration) TrialOutcome {
	return TrialOutcome{UserCount: userCount, Elapsed: elapsed, Err: reason}
}

// Thresholds is the validation table. Latency is measured and reported but
// does not gate acceptance.
type Thresholds struct {
	TTFT            float64 `yaml:"ttft_ms"`
	LatencyPerToken float64 `yaml:"latency_per_token_ms"`
	Latency         float64 `yaml:"latency_ms"`
}

// DefaultThresholds is the fixed acceptance table.
var DefaultThresholds = Thresholds{
	TTFT:            2000,
	LatencyPerToken: 200,
	Latency:         200,
}

// Accepts checks TTFT and latency per token. The latency argument is ignored.
func (t Thresholds) Accepts(ttft, latencyPerToken, _ float64) bool {
	return ttft <= t.TTFT && latencyPerToken <= t.LatencyPerToken
}

// SummaryRecord is the single row of the summary report. Per-trial history,
// with run ids and timestamps, lives in TrialEntry.
type SummaryRecord struct {
	UserCount        int
	TTFT             float64
	Latency          float64
	LatencyPerToken  float64
	Throughput       float64
	TotalThroughput  float64
	WallClockSeconds float64
}

// NewSummaryRecord builds a SummaryRecord from a trial's metrics.
func NewSummaryRecord(userCount int, m TrialMetrics, elapsed time.Duration) SummaryRecord {
	return SummaryRecord{
		UserCount:        userCount,
		TTFT:             m.TTFT,
		Latency:          m.Latency,
		LatencyPerToken:  m.LatencyPerToken,
		Throughput:       m.Throughput,
		TotalThroughput:  m.TotalThroughput,
		WallClockSeconds: elapsed.Seconds(),
	}
}

// TrialEntry is one line of the trial log.
type TrialEntry struct {
	RunID     string        `json:"run_id"`
	Mode      Mode          `json:"mode"`
	Phase     string        `json:"phase,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	UserCount int           `json:"user_count"`
	Elapsed   time.Duration `json:"elapsed"`
	Accepted  bool          `json:"accepted"`
	Metrics   *TrialMetrics `json:"metrics,omitempty"`
	Error     string        `json:"error,omitempty"`
}
