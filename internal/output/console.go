/*
PURPOSE:
  Human-facing console output: one PASS/FAIL line per trial and a boxed
  result once the search settles.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine observer and Run
  - Dependencies: github.com/fatih/color, github.com/charmbracelet/lipgloss

IMPLEMENTATION RULES:
  - Colors follow color.NoColor, so piped output stays plain.
*/

package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/daryltucker/forest-capacity/internal/model"
)

var (
	passLabel = color.New(color.FgGreen, color.Bold).SprintFunc()
	failLabel = color.New(color.FgRed, color.Bold).SprintFunc()

	resultStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
)

// Console prints the human-facing trial lines next to the structured log.
type Console struct {
	w io.Writer
}

// NewConsole returns a Console writing to w, or stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

// Trial prints one line per trial with a PASS/FAIL marker.
func (c *Console) Trial(phase string, userCount int, m model.TrialMetrics, accepted bool) {
	label := failLabel("FAIL")
	if accepted {
		label = passLabel("PASS")
	}
	fmt.Fprintf(c.w, "%s [%s] users=%d ttft=%.2fms latency=%.2fms latency/token=%.2fms throughput=%.2ft/s total=%.2ft/s\n",
		label, phase, userCount, m.TTFT, m.Latency, m.LatencyPerToken, m.Throughput, m.TotalThroughput)
}

// Result renders the final search result block.
func (c *Console) Result(r model.SummaryRecord) {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Optimal user count: %d", r.UserCount)),
		fmt.Sprintf("TTFT              %.2f ms", r.TTFT),
		fmt.Sprintf("Latency           %.2f ms", r.Latency),
		fmt.Sprintf("Latency/token     %.2f ms", r.LatencyPerToken),
		fmt.Sprintf("Throughput        %.2f tokens/s", r.Throughput),
		fmt.Sprintf("Total throughput  %.2f tokens/s", r.TotalThroughput),
		fmt.Sprintf("Benchmark time    %.1f s", r.WallClockSeconds),
	}
	fmt.Fprintln(c.w, resultStyle.Render(strings.Join(lines, "\n")))
}

// NoResult reports that no optimal count was found.
func (c *Console) NoResult(reason string) {
	fmt.Fprintf(c.w, "%s no valid optimal user count found: %s\n", failLabel("NONE"), reason)
}
