/*
PURPOSE:
  Writes the summary report CSV.
  One header row and one data row, replaced on every call.

REQUIREMENTS:
  User-specified:
  - Summary at <out_dir>/Results/summary_report.csv.
  - Columns: Optimal User Count, TTFT, Latency, Latency per Token, Throughput,
    Total Throughput, Benchmark Time.
  - Overwritten each time (not cumulative); the history lives in trials.jsonl.

  Implementation-discovered:
  - A failed report write must never stop a search or a soak run.
  - Write through a temp file so a reader polling the report never sees half a row.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine
  - Consumes: internal/model.SummaryRecord

ERROR HANDLING:
  - WriteSummary logs and swallows errors; writeSummaryFile returns them for tests.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush and check writer.Error() before rename.

USAGE:
  output.WriteSummary(filepath.Join(resultsDir, output.SummaryFileName), rec)

RELATED FILES:
  - internal/model/types.go
*/

package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/daryltucker/forest-capacity/internal/model"
)

// SummaryFileName is the report file inside the results directory.
const SummaryFileName = "summary_report.csv"

// SummaryHeader is the column order of the summary report.
var SummaryHeader = []string{
	"Optimal User Count",
	"TTFT(ms)",
	"Latency(ms)",
	"Latency per Token(ms/token)",
	"Throughput(tokens/second)",
	"Total Throughput(tokens/second)",
	"Benchmark Time(seconds)",
}

// WriteSummary overwrites the summary report at path with a single row.
// Errors are logged, never returned.
func WriteSummary(path string, r model.SummaryRecord) bool {
	if err := writeSummaryFile(path, r); err != nil {
		Logger.Error("Failed to write summary report", "path", path, "error", err)
		return false
	}
	Logger.Info("Summary report generated", "path", path, "user_count", r.UserCount)
	return true
}

func summaryRow(r model.SummaryRecord) []string {
	return []string{
		strconv.Itoa(r.UserCount),
		formatFloat(r.TTFT),
		formatFloat(r.Latency),
		formatFloat(r.LatencyPerToken),
		formatFloat(r.Throughput),
		formatFloat(r.TotalThroughput),
		fmt.Sprintf("%.4f", r.WallClockSeconds),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeSummaryFile(path string, r model.SummaryRecord) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, ".summary-*")
	if err != nil {
		return err
	}
	tmpName := f.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(f)
	if err := w.Write(SummaryHeader); err != nil {
		f.Close()
		return err
	}
	if err := w.Write(summaryRow(r)); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
