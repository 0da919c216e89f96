// Package perf times repository operations.
//
// Measure wraps an operation, records its duration and outcome, and returns
// the operation's result untouched. A nil *Monitor passes calls through, so
// instrumentation can be switched off without touching call sites.
package perf

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tgienger/taskhub/internal/logging"
	"github.com/tgienger/taskhub/internal/models"
)

// Operation names used as labels.
const (
	OpCreate = "create"
	OpRead   = "read"
	OpUpdate = "update"
	OpDelete = "delete"
)

var (
	entityOrder    = []string{models.EntityProjects, models.EntityTasks, models.EntityTags, models.EntityComments}
	operationOrder = []string{OpCreate, OpRead, OpUpdate, OpDelete}
)

// Record is one timed operation.
type Record struct {
	Entity    string
	Operation string
	Start     time.Time
	Duration  time.Duration
	Success   bool
	Error     string
}

// Monitor keeps an in-memory log of records and feeds a prometheus registry.
type Monitor struct {
	mu       sync.Mutex
	records  []Record
	registry *prometheus.Registry
	metrics  *Metrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewMonitor creates a monitor with its own prometheus registry. A nil
// logger discards output.
func NewMonitor(logger *logging.Logger) *Monitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	reg := prometheus.NewRegistry()
	return &Monitor{
		registry: reg,
		metrics:  NewMetrics(reg),
		logger:   logger.Named("perf"),
		now:      time.Now,
	}
}

// Registry returns the registry holding the monitor's metrics.
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// Measure runs fn and records how long it took and whether it failed.
// Errors are returned unchanged.
func Measure[T any](ctx context.Context, m *Monitor, entity, op string, fn func(context.Context) (T, error)) (T, error) {
	if m == nil {
		return fn(ctx)
	}

	start := m.now()
	value, err := fn(ctx)
	m.record(ctx, Record{
		Entity:    entity,
		Operation: op,
		Start:     start,
		Duration:  m.now().Sub(start),
		Success:   err == nil,
		Error:     errString(err),
	})
	return value, err
}

// Exec is Measure for operations that only return an error.
func Exec(ctx context.Context, m *Monitor, entity, op string, fn func(context.Context) error) error {
	_, err := Measure(ctx, m, entity, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (m *Monitor) record(ctx context.Context, r Record) {
	m.mu.Lock()
	m.records = append(m.records, r)
	m.mu.Unlock()

	m.metrics.observe(r)
	if !m.logger.Enabled(zapcore.DebugLevel) {
		return
	}
	m.logger.Debug(ctx, "operation",
		zap.String("entity", r.Entity),
		zap.String("op", r.Operation),
		zap.Duration("duration", r.Duration),
		zap.Bool("success", r.Success),
	)
}

// Records returns a copy of every record in the order they were taken.
func (m *Monitor) Records() []Record {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records)
}

// Clear drops the record history. Prometheus series are cumulative and kept.
func (m *Monitor) Clear() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
}

// Stat aggregates the records of one entity and operation. Durations cover
// successful records only; failures are counted separately.
type Stat struct {
	Entity    string
	Operation string
	Count     int
	Failures  int
	Total     time.Duration
	Avg       time.Duration
	Min       time.Duration
	Max       time.Duration
}

// Report groups records by entity and operation. Groups are ordered
// projects, tasks, tags, comments and create, read, update, delete; any
// other labels follow in first-seen order.
func (m *Monitor) Report() []Stat {
	records := m.Records()

	type groupKey struct{ entity, op string }
	groups := make(map[groupKey]*Stat)
	var seen []groupKey

	for _, r := range records {
		k := groupKey{r.Entity, r.Operation}
		s, ok := groups[k]
		if !ok {
			s = &Stat{Entity: r.Entity, Operation: r.Operation}
			groups[k] = s
			seen = append(seen, k)
		}
		if !r.Success {
			s.Failures++
			continue
		}
		if s.Count == 0 || r.Duration < s.Min {
			s.Min = r.Duration
		}
		if r.Duration > s.Max {
			s.Max = r.Duration
		}
		s.Count++
		s.Total += r.Duration
	}

	rank := func(order []string, v string) int {
		if i := slices.Index(order, v); i >= 0 {
			return i
		}
		return len(order)
	}
	slices.SortStableFunc(seen, func(a, b groupKey) int {
		if d := rank(entityOrder, a.entity) - rank(entityOrder, b.entity); d != 0 {
			return d
		}
		return rank(operationOrder, a.op) - rank(operationOrder, b.op)
	})

	out := make([]Stat, 0, len(seen))
	for _, k := range seen {
		s := groups[k]
		if s.Count > 0 {
			s.Avg = s.Total / time.Duration(s.Count)
		}
		out = append(out, *s)
	}
	return out
}
