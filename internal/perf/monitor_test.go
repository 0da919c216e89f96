package perf

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/tgienger/taskhub/internal/logging"
)

// fakeClock advances by the next step on every call.
type fakeClock struct {
	t     time.Time
	steps []time.Duration
	calls int
}

func (c *fakeClock) now() time.Time {
	if c.calls > 0 && c.calls%2 == 1 {
		c.t = c.t.Add(c.steps[(c.calls/2)%len(c.steps)])
	}
	c.calls++
	return c.t
}

func newTestMonitor(steps ...time.Duration) *Monitor {
	m := NewMonitor(nil)
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), steps: steps}
	m.now = clock.now
	return m
}

func TestMeasure_PassesResultThrough(t *testing.T) {
	m := newTestMonitor(time.Millisecond)

	got, err := Measure(context.Background(), m, "tasks", OpRead, func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	records := m.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "tasks", records[0].Entity)
	assert.Equal(t, OpRead, records[0].Operation)
	assert.True(t, records[0].Success)
	assert.Equal(t, time.Millisecond, records[0].Duration)
}

func TestMeasure_PropagatesError(t *testing.T) {
	m := newTestMonitor(time.Millisecond)
	boom := errors.New("boom")

	err := Exec(context.Background(), m, "tags", OpDelete, func(context.Context) error {
		return boom
	})
	assert.Same(t, boom, err)

	records := m.Records()
	require.Len(t, records, 1)
	assert.False(t, records[0].Success)
	assert.Equal(t, "boom", records[0].Error)
}

func TestMeasure_NilMonitor(t *testing.T) {
	var m *Monitor

	got, err := Measure(context.Background(), m, "tasks", OpRead, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Nil(t, m.Records())
	assert.Empty(t, m.Report())
	m.Clear()
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	m := newTestMonitor(10*time.Millisecond, 20*time.Millisecond, 30*time.Millisecond)
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("x") }

	require.NoError(t, Exec(ctx, m, "tags", OpCreate, ok))     // 10ms
	require.NoError(t, Exec(ctx, m, "projects", OpDelete, ok)) // 20ms
	require.NoError(t, Exec(ctx, m, "projects", OpCreate, ok)) // 30ms
	require.NoError(t, Exec(ctx, m, "projects", OpCreate, ok)) // 10ms
	require.Error(t, Exec(ctx, m, "projects", OpCreate, fail)) // 20ms, failure

	report := m.Report()
	require.Len(t, report, 3)

	assert.Equal(t, Stat{
		Entity:    "projects",
		Operation: OpCreate,
		Count:     2,
		Failures:  1,
		Total:     40 * time.Millisecond,
		Avg:       20 * time.Millisecond,
		Min:       10 * time.Millisecond,
		Max:       30 * time.Millisecond,
	}, report[0])
	assert.Equal(t, OpDelete, report[1].Operation)
	assert.Equal(t, "tags", report[2].Entity)
}

func TestClear(t *testing.T) {
	m := newTestMonitor(time.Millisecond)
	require.NoError(t, Exec(context.Background(), m, "tasks", OpUpdate, func(context.Context) error { return nil }))

	m.Clear()
	assert.Empty(t, m.Records())
	assert.Empty(t, m.Report())
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	m := newTestMonitor(time.Millisecond)

	require.NoError(t, Exec(ctx, m, "tasks", OpCreate, func(context.Context) error { return nil }))
	require.Error(t, Exec(ctx, m, "tasks", OpCreate, func(context.Context) error { return errors.New("x") }))

	assert.Equal(t, 2, testutil.CollectAndCount(m.metrics.OperationDuration))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.metrics.FailuresTotal.WithLabelValues("tasks", OpCreate)))
}

func TestMeasure_LogsAtDebug(t *testing.T) {
	logger := logging.NewTestLogger()
	m := NewMonitor(logger.Logger)

	require.NoError(t, Exec(context.Background(), m, "comments", OpCreate, func(context.Context) error { return nil }))
	logger.AssertLogged(t, zapcore.DebugLevel, "operation")
}
