package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/forest-capacity/internal/failure"
	"github.com/daryltucker/forest-capacity/internal/model"
)

func TestContinuousReportsEveryIteration(t *testing.T) {
	f := newFakeTrials(acceptUpTo(90))
	var reported []int
	c := &Continuous{
		Trials:        f,
		MaxIterations: 3,
		Report: func(n int, m model.TrialMetrics, elapsed time.Duration) {
			reported = append(reported, n)
			assert.Equal(t, 90*time.Millisecond, elapsed)
		},
	}

	require.NoError(t, c.RunForever(context.Background(), 90))
	assert.Equal(t, []int{90, 90, 90}, f.calls)
	assert.Equal(t, []int{90, 90, 90}, reported)
}

func TestContinuousStopsOnFailure(t *testing.T) {
	f := newFakeTrials(acceptUpTo(90))
	f.fail[90] = failure.New(failure.ArtifactMalformed, "no rows")
	reports := 0
	c := &Continuous{
		Trials:        f,
		MaxIterations: 5,
		Report:        func(int, model.TrialMetrics, time.Duration) { reports++ },
	}

	err := c.RunForever(context.Background(), 90)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.ArtifactMalformed))
	assert.Len(t, f.calls, 1)
	assert.Zero(t, reports)
}

func TestContinuousCancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newFakeTrials(acceptUpTo(90))
	c := &Continuous{
		Trials: f,
		Delay:  time.Hour,
		Report: func(int, model.TrialMetrics, time.Duration) { cancel() },
	}

	done := make(chan error, 1)
	go func() { done <- c.RunForever(ctx, 90) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("continuous run did not stop after cancellation")
	}
	assert.Len(t, f.calls, 1, "cancellation must not start another trial")
}

func TestContinuousCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := newFakeTrials(acceptUpTo(90))

	require.NoError(t, (&Continuous{Trials: f}).RunForever(ctx, 90))
	assert.Empty(t, f.calls)
}

func TestContinuousRejectsNonPositiveCount(t *testing.T) {
	f := newFakeTrials(acceptUpTo(90))
	assert.Error(t, (&Continuous{Trials: f}).RunForever(context.Background(), 0))
	assert.Empty(t, f.calls)
}

func TestContinuousObserverMarksAcceptance(t *testing.T) {
	f := newFakeTrials(acceptUpTo(90))
	var events []TrialEvent
	c := &Continuous{
		Trials:        f,
		MaxIterations: 1,
		Observe:       func(ev TrialEvent) { events = append(events, ev) },
	}

	require.NoError(t, c.RunForever(context.Background(), 95))
	require.Len(t, events, 1)
	assert.False(t, events[0].Accepted)
	assert.Equal(t, "soak #1", events[0].Phase)
}
