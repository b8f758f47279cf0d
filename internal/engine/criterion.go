package engine

import "github.com/daryltucker/forest-capacity/internal/model"

// Accepts reports whether a trial passes the fixed thresholds:
// TTFT <= 2000 ms and latency per token <= 200 ms/token.
// End-to-end latency has a threshold in the table but never gates acceptance.
func Accepts(ttft, latencyPerToken, latency float64) bool {
	return model.DefaultThresholds.Accepts(ttft, latencyPerToken, latency)
}
