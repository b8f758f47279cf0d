/*
PURPOSE:
  Metrics Extractor. Reads the first data row of a canonical artifact.

REQUIREMENTS:
  User-specified:
  - Columns TTFT(ms), latency_per_token(ms/token), latency(ms),
    throughput(tokens/second), found by header name.
  - Total throughput is throughput times the user count.

  Implementation-discovered:
  - Spreadsheet exports prepend a BOM and pad headers with spaces.

ERROR HANDLING:
  - ARTIFACT_MISSING when the file is absent.
  - ARTIFACT_MALFORMED for a missing column, no data row or a non-numeric cell.
*/

package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/daryltucker/forest-capacity/internal/failure"
	"github.com/daryltucker/forest-capacity/internal/model"
)

// Column names in avg_Response.csv.
const (
	ColTTFT            = "TTFT(ms)"
	ColLatencyPerToken = "latency_per_token(ms/token)"
	ColLatency         = "latency(ms)"
	ColThroughput      = "throughput(tokens/second)"
)

// Extract reads the canonical artifact for userCount from resultsDir and
// returns the metrics of its first data row. No retries.
func Extract(resultsDir string, userCount int) (model.TrialMetrics, error) {
	path := CanonicalArtifactPath(resultsDir, userCount)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.TrialMetrics{}, failure.New(failure.ArtifactMissing, "results artifact not found", failure.WithPath(path))
		}
		return model.TrialMetrics{}, failure.New(failure.ArtifactMissing, "cannot open results artifact",
			failure.WithPath(path), failure.WithCause(err))
	}
	defer f.Close()

	values, err := readFirstRow(f, ColTTFT, ColLatencyPerToken, ColLatency, ColThroughput)
	if err != nil {
		var fe *failure.Error
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return model.TrialMetrics{}, err
	}

	return model.NewTrialMetrics(values[0], values[1], values[2], values[3], userCount), nil
}

// readFirstRow returns the numeric values of the named columns in the first
// data row, in the order given.
func readFirstRow(r io.Reader, columns ...string) ([]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, failure.New(failure.ArtifactMalformed, "missing header row", failure.WithCause(err))
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	row, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, failure.New(failure.ArtifactMalformed, "no data rows")
		}
		return nil, failure.New(failure.ArtifactMalformed, "unreadable data row", failure.WithCause(err))
	}

	values := make([]float64, len(columns))
	for i, col := range columns {
		idx, ok := index[col]
		if !ok {
			return nil, failure.New(failure.ArtifactMalformed, "column missing", failure.WithField(col))
		}
		if idx >= len(row) {
			return nil, failure.New(failure.ArtifactMalformed, "row too short", failure.WithField(col))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			return nil, failure.New(failure.ArtifactMalformed, fmt.Sprintf("value %q is not numeric", row[idx]),
				failure.WithField(col), failure.WithCause(err))
		}
		values[i] = v
	}
	return values, nil
}
