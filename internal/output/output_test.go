package output

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/forest-capacity/internal/model"
)

func TestMain(m *testing.M) {
	Discard()
	color.NoColor = true
	os.Exit(m.Run())
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteSummaryCreatesDirsAndSingleRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "Results", SummaryFileName)
	rec := model.NewSummaryRecord(90, model.NewTrialMetrics(1800.5, 150, 12000, 10, 90), 42*time.Second)

	require.True(t, WriteSummary(path, rec))

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, SummaryHeader, rows[0])
	assert.Equal(t, []string{"90", "1800.5", "12000", "150", "10", "900", "42.0000"}, rows[1])
}

func TestWriteSummaryOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), SummaryFileName)

	require.True(t, WriteSummary(path, model.SummaryRecord{UserCount: 56}))
	require.True(t, WriteSummary(path, model.SummaryRecord{UserCount: 66}))

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "66", rows[1][0])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteSummaryFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "Results")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))

	assert.False(t, WriteSummary(filepath.Join(blocker, SummaryFileName), model.SummaryRecord{UserCount: 1}))
}

func TestTrialLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), TrialLogFileName)
	runID := NewRunID()

	for _, n := range []int{56, 66} {
		l, err := OpenTrialLog(path, runID)
		require.NoError(t, err)
		m := model.NewTrialMetrics(1, 2, 3, 4, n)
		require.NoError(t, l.Write(model.TrialEntry{Mode: model.ModeSearch, Phase: "probe", UserCount: n, Accepted: true, Metrics: &m}))
		require.NoError(t, l.Close())
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []model.TrialEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e model.TrialEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		got = append(got, e)
	}
	require.Len(t, got, 2)
	assert.Equal(t, 56, got[0].UserCount)
	assert.Equal(t, 66, got[1].UserCount)
	assert.Equal(t, runID, got[1].RunID)
	assert.False(t, got[0].Timestamp.IsZero())
	assert.Equal(t, 264.0, got[1].Metrics.TotalThroughput)
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Trial("probe", 56, model.NewTrialMetrics(1500, 100, 9000, 10, 56), true)
	c.Trial("refine", 91, model.NewTrialMetrics(2500, 100, 9000, 10, 91), false)
	c.Result(model.SummaryRecord{UserCount: 90})
	c.NoResult("ARTIFACT_MALFORMED")

	out := buf.String()
	assert.Contains(t, out, "PASS [probe] users=56")
	assert.Contains(t, out, "FAIL [refine] users=91")
	assert.Contains(t, out, "Optimal user count: 90")
	assert.True(t, strings.Contains(out, "NONE no valid optimal user count found"))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}
