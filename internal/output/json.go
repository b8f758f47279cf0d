/*
PURPOSE:
  Appends every trial to a JSON Lines file (NDJSON).
  The summary CSV is overwritten on each run; this file is the cumulative history.

REQUIREMENTS:
  User-specified:
  - Keep a record of every trial of a search and every continuous iteration.

  Implementation-discovered:
  - JSON Lines is append-friendly: a crash loses at most the last line.
  - Several invocations share one file, so each line carries a run id.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine
  - Consumes: internal/model.TrialEntry

ERROR HANDLING:
  - Returns error on file open or write failure; the engine logs and continues.

IMPLEMENTATION RULES:
  - Use encoding/json.NewEncoder.
  - Thread-safe.

USAGE:
  l, err := output.OpenTrialLog(filepath.Join(resultsDir, output.TrialLogFileName))
  l.Write(entry)
  l.Close()
*/

package output

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daryltucker/forest-capacity/internal/model"
)

// TrialLogFileName is the trial history file inside the results directory.
const TrialLogFileName = "trials.jsonl"

// TrialLog appends trial entries to a JSON Lines file.
type TrialLog struct {
	file    *os.File
	encoder *json.Encoder
	runID   string
	mu      sync.Mutex
}

// NewRunID returns a fresh identifier for one invocation.
func NewRunID() string {
	return uuid.NewString()
}

// OpenTrialLog opens (or creates) the log at path in append mode.
func OpenTrialLog(path, runID string) (*TrialLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &TrialLog{
		file:    f,
		encoder: json.NewEncoder(f),
		runID:   runID,
	}, nil
}

// RunID returns the id stamped on every entry.
func (l *TrialLog) RunID() string {
	return l.runID
}

// Write appends one entry, filling in run id and timestamp when unset.
func (l *TrialLog) Write(e model.TrialEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.RunID == "" {
		e.RunID = l.runID
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return l.encoder.Encode(e)
}

// Close closes the underlying file.
func (l *TrialLog) Close() error {
	return l.file.Close()
}
