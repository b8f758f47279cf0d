/*
PURPOSE:
  Trial Runner. Dispatches one trial of the external benchmark at a fixed
  user count and collects its output artifact.

REQUIREMENTS:
  User-specified:
  - Rewrite user_counts in the config document before each invocation.
  - Invoke `<binary> start --config <doc>` synchronously and time it.
  - Copy <out_dir>/<N>_User/avg_Response.csv to <out_dir>/Results/avg_Response_User<N>.csv.

  Implementation-discovered:
  - The benchmark's exit code is unreliable; success is the presence of the artifact.
  - A hung benchmark blocks forever unless trial_timeout is set (default: none).
  - Keep the tail of stdout/stderr for debugging failed runs without buffering everything.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Pipeline)
  - Uses: internal/benchdoc, internal/failure, internal/model, internal/output

ERROR HANDLING:
  - Never panics; every failure is returned in the TrialOutcome.
  - LaunchError, TrialTimeout, ArtifactMissing, or the document's own codes.

IMPLEMENTATION RULES:
  - No retries.
  - Copying the artifact is idempotent: a re-run overwrites the previous copy.

USAGE:
  r := engine.NewRunner(cfg)
  out := r.RunTrial(ctx, model.TrialRequest{UserCount: 66, DocumentPath: path})

RELATED FILES:
  - internal/engine/extract.go
  - internal/benchdoc/document.go
*/

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/daryltucker/forest-capacity/internal/benchdoc"
	"github.com/daryltucker/forest-capacity/internal/config"
	"github.com/daryltucker/forest-capacity/internal/failure"
	"github.com/daryltucker/forest-capacity/internal/model"
	"github.com/daryltucker/forest-capacity/internal/output"
)

const (
	artifactName = "avg_Response.csv"
	tailSize     = 4096
)

// Runner invokes the external benchmark.
type Runner struct {
	Binary         string
	Args           []string
	Timeout        time.Duration
	ResultsDirName string
}

// NewRunner creates a Runner from the settings.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		Binary:         cfg.BenchmarkBinary,
		Args:           cfg.BenchmarkArgs,
		Timeout:        cfg.TrialTimeout,
		ResultsDirName: cfg.ResultsDirName,
	}
}

// ArtifactSourcePath is where the benchmark leaves the averages for n users.
func ArtifactSourcePath(outDir string, n int) string {
	return filepath.Join(outDir, fmt.Sprintf("%d_User", n), artifactName)
}

// CanonicalArtifactPath is the per-count copy inside the results directory.
func CanonicalArtifactPath(resultsDir string, n int) string {
	return filepath.Join(resultsDir, fmt.Sprintf("avg_Response_User%d.csv", n))
}

// RunTrial runs one trial. It blocks until the benchmark exits or the
// configured timeout fires.
func (r *Runner) RunTrial(ctx context.Context, req model.TrialRequest) model.TrialOutcome {
	doc, err := benchdoc.Dispatch(req.DocumentPath, req.UserCount)
	if err != nil {
		return model.Failed(req.UserCount, fmt.Errorf("failed to update config document: %w", err), 0)
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = doc.OutDir()
	}

	elapsed, err := r.invoke(ctx, req)
	if err != nil {
		return model.Failed(req.UserCount, err, elapsed)
	}

	resultsDir := filepath.Join(outDir, r.ResultsDirName)
	artifact, err := CopyArtifact(outDir, resultsDir, req.UserCount)
	if err != nil {
		return model.Failed(req.UserCount, err, elapsed)
	}
	return model.Success(req.UserCount, artifact, elapsed)
}

func (r *Runner) invoke(ctx context.Context, req model.TrialRequest) (time.Duration, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, r.Args...), "--config", req.DocumentPath)
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.WaitDelay = 5 * time.Second
	detach(cmd)
	stdout := &tailWriter{max: tailSize}
	stderr := &tailWriter{max: tailSize}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	output.Logger.Info("Starting benchmark", "binary", r.Binary, "users", req.UserCount)
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return elapsed, failure.New(failure.TrialTimeout,
			fmt.Sprintf("benchmark did not finish within %s", r.Timeout), failure.WithCause(err))
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		output.Logger.Warn("Benchmark exited with non-zero status",
			"users", req.UserCount, "code", exitErr.ExitCode())
		output.Logger.Debug("Benchmark output", "stdout", stdout.String(), "stderr", stderr.String())
	default:
		return elapsed, failure.New(failure.LaunchError, "could not run benchmark",
			failure.WithPath(r.Binary), failure.WithCause(err))
	}

	output.Logger.Info("Benchmark finished", "users", req.UserCount, "elapsed", elapsed.Round(time.Millisecond))
	return elapsed, nil
}

// CopyArtifact copies the benchmark's averages for n users into resultsDir.
func CopyArtifact(outDir, resultsDir string, n int) (string, error) {
	src := ArtifactSourcePath(outDir, n)
	dst := CanonicalArtifactPath(resultsDir, n)

	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", failure.New(failure.ArtifactMissing, fmt.Sprintf("%s not found for %d users", artifactName, n),
				failure.WithPath(src))
		}
		return "", failure.New(failure.ArtifactMissing, "cannot open artifact", failure.WithPath(src), failure.WithCause(err))
	}
	defer in.Close()

	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory %s: %w", resultsDir, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	output.Logger.Info("Copied artifact", "from", src, "to", dst)
	return dst, nil
}

// tailWriter keeps the last max bytes written to it.
type tailWriter struct {
	max int
	buf []byte
}

func (t *tailWriter) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) >= t.max {
		t.buf = append(t.buf[:0], p[len(p)-t.max:]...)
		return n, nil
	}
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return n, nil
}

func (t *tailWriter) String() string {
	return string(t.buf)
}
