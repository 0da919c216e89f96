package bench

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskhub/internal/auth"
	"github.com/tgienger/taskhub/internal/cache"
	"github.com/tgienger/taskhub/internal/db"
	"github.com/tgienger/taskhub/internal/filter"
	"github.com/tgienger/taskhub/internal/perf"
	"github.com/tgienger/taskhub/internal/repository"
)

func TestRun(t *testing.T) {
	ctx := context.Background()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	session := auth.NewSession(database, nil)
	_, err = session.SignIn(ctx, "bench@example.com", "")
	require.NoError(t, err)

	monitor := perf.NewMonitor(nil)
	repos := repository.New(database, session,
		repository.WithCache(cache.New()),
		repository.WithMonitor(monitor),
	)

	var seen []string
	report, err := Run(ctx, repos, monitor, Options{
		Iterations: 3,
		Progress:   func(entity string) { seen = append(seen, entity) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"projects", "tags", "tasks", "comments"}, seen)

	type row struct {
		entity, op string
		count      int
	}
	var got []row
	for _, s := range report {
		assert.Zero(t, s.Failures, "%s %s", s.Entity, s.Operation)
		assert.LessOrEqual(t, s.Min, s.Avg)
		assert.LessOrEqual(t, s.Avg, s.Max)
		got = append(got, row{s.Entity, s.Operation, s.Count})
	}
	assert.Equal(t, []row{
		{"projects", "create", 4},
		{"projects", "update", 3},
		{"projects", "delete", 4},
		{"tasks", "create", 3},
		{"tasks", "update", 3},
		{"tasks", "delete", 3},
		{"tags", "create", 3},
		{"tags", "update", 3},
		{"tags", "delete", 3},
		{"comments", "create", 3},
		{"comments", "delete", 3},
	}, got)

	// Nothing is left behind.
	projects, err := repos.Projects.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
	tasks, err := repos.Tasks.List(ctx, filter.Tasks{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	tags, err := repos.Tags.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
