package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger keeps every entry, at every level, in memory.
type TestLogger struct {
	*Logger
	logs *observer.ObservedLogs
}

func NewTestLogger() *TestLogger {
	core, logs := observer.New(zapcore.DebugLevel)
	return &TestLogger{Logger: &Logger{zap: zap.New(core)}, logs: logs}
}

// Matching returns the entries at exactly level whose message contains snippet.
func (t *TestLogger) Matching(level zapcore.Level, snippet string) []observer.LoggedEntry {
	return t.logs.FilterLevelExact(level).FilterMessageSnippet(snippet).All()
}

func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, snippet string) {
	tb.Helper()
	if len(t.Matching(level, snippet)) == 0 {
		tb.Errorf("no %s entry containing %q among %d entries", level, snippet, t.logs.Len())
	}
}

func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, snippet string) {
	tb.Helper()
	if n := len(t.Matching(level, snippet)); n > 0 {
		tb.Errorf("%d unexpected %s entries containing %q", n, level, snippet)
	}
}
