package views

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskhub/internal/apperr"
	"github.com/tgienger/taskhub/internal/auth"
	"github.com/tgienger/taskhub/internal/cache"
	"github.com/tgienger/taskhub/internal/db"
	"github.com/tgienger/taskhub/internal/filter"
	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/repository"
)

func setupRepos(t *testing.T) (*repository.Repositories, *auth.Session) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	session := auth.NewSession(database, nil)
	_, err = session.SignIn(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	return repository.New(database, session, repository.WithCache(cache.New())), session
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCycleStatus(t *testing.T) {
	got := []string{""}
	for i := 0; i < len(models.TaskStatuses)+2; i++ {
		got = append(got, cycleStatus(got[len(got)-1], models.TaskStatuses))
	}
	assert.Equal(t, []string{"", "pending", "in_progress", "completed", filter.All, "pending"}, got)
}

func TestParseDue(t *testing.T) {
	d, err := parseDue("  ")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseDue("2026-04-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), *d)
	assert.Equal(t, "2026-04-01", formatDue(d))

	_, err = parseDue("04/01/2026")
	assert.Error(t, err)
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{apperr.Required(models.EntityTasks, "title"), "Title is required"},
		{apperr.Invalid(models.EntityTags, "color", "red"), `Invalid color: invalid value "red"`},
		{apperr.NotFound(models.EntityTasks, "t1"), "That item no longer exists"},
		{apperr.ErrUnauthenticated, "Signed out. Please sign in again"},
		{&repository.TagLinkError{TaskID: "t1", Op: "attach", RolledBack: true, Err: errors.New("x")}, "Could not attach tags; the task was not created"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, describeError(tt.err))
	}
}

func TestProjectListView_LoadsProgress(t *testing.T) {
	ctx := context.Background()
	repos, _ := setupRepos(t)

	p, err := repos.Projects.Create(ctx, models.NewProject{Name: "Launch"})
	require.NoError(t, err)
	_, err = repos.Tasks.Create(ctx, models.NewTask{ProjectID: p.ID, Title: "Write copy", Status: models.TaskCompleted})
	require.NoError(t, err)
	_, err = repos.Tasks.Create(ctx, models.NewTask{ProjectID: p.ID, Title: "Ship"})
	require.NoError(t, err)

	v := NewProjectListView(ctx, repos)
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	v.Update(v.loadProjects())

	require.Len(t, v.list.Items(), 1)
	item := v.list.Items()[0].(projectItem)
	assert.Equal(t, 50, item.progress.Percent)
	assert.Equal(t, 2, v.summary.Tasks.Total)
	assert.Contains(t, v.View(), "Launch")

	// Status cycles active -> completed and is persisted.
	_, cmd := v.Update(runes("s"))
	require.NotNil(t, cmd)
	v.Update(cmd())
	got, err := repos.Projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectCompleted, got.Status)

	// The status filter hides it again.
	v.Update(runes("v"))
	assert.Empty(t, v.list.Items())
}

func TestProjectListView_CreateRequiresName(t *testing.T) {
	ctx := context.Background()
	repos, _ := setupRepos(t)

	v := NewProjectListView(ctx, repos)
	v.Update(runes("n"))
	require.True(t, v.creating)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	v.Update(cmd())
	assert.True(t, v.creating)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(v.err))
}

func newTaskView(t *testing.T) (*TaskListView, *repository.Repositories, models.Project) {
	t.Helper()
	ctx := context.Background()
	repos, _ := setupRepos(t)

	p, err := repos.Projects.Create(ctx, models.NewProject{Name: "Launch"})
	require.NoError(t, err)

	v := NewTaskListView(ctx, repos, *p)
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	return v, repos, *p
}

func TestTaskListView_CountsAndStatusCycle(t *testing.T) {
	ctx := context.Background()
	v, repos, p := newTaskView(t)
	v.now = func() time.Time { return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) }

	late := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	task, err := repos.Tasks.Create(ctx, models.NewTask{ProjectID: p.ID, Title: "Overdue", DueDate: &late})
	require.NoError(t, err)

	v.Update(v.loadTasks()())
	require.Len(t, v.tasks, 1)
	assert.Equal(t, 1, v.counts.Pending)
	assert.Equal(t, 1, v.overdue)

	_, cmd := v.Update(runes("s"))
	require.NotNil(t, cmd)
	_, cmd = v.Update(cmd())
	v.Update(cmd())

	got, err := repos.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskInProgress, got.Status)
	assert.Equal(t, 1, v.counts.InProgress)
}

func TestTaskListView_StatusFilterKeepsCounters(t *testing.T) {
	ctx := context.Background()
	v, repos, p := newTaskView(t)

	_, err := repos.Tasks.Create(ctx, models.NewTask{ProjectID: p.ID, Title: "Todo"})
	require.NoError(t, err)
	_, err = repos.Tasks.Create(ctx, models.NewTask{ProjectID: p.ID, Title: "Done", Status: models.TaskCompleted})
	require.NoError(t, err)

	// all -> pending
	_, cmd := v.Update(runes("v"))
	v.Update(cmd())
	require.Len(t, v.tasks, 1)
	assert.Equal(t, "Todo", v.tasks[0].Title)
	assert.Equal(t, 2, v.counts.Total)
}

func TestTaskListView_CreateWithTags(t *testing.T) {
	ctx := context.Background()
	v, repos, p := newTaskView(t)

	tag, err := repos.Tags.Create(ctx, models.NewTag{Name: "Backend"})
	require.NoError(t, err)
	v.Update(v.loadTags())

	v.Update(runes("n"))
	require.True(t, v.editing)
	v.editTitle.SetValue("Build API")
	v.editFocusIdx = editFieldTags
	v.Update(runes(" "))
	assert.Equal(t, []string{tag.ID}, v.editTags)

	v.editFocusIdx = editFieldPriority
	v.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, models.PriorityHigh, v.editPriority)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	_, cmd = v.Update(cmd())
	assert.False(t, v.editing)
	v.Update(cmd())

	tasks, err := repos.Tasks.List(ctx, filter.Tasks{ProjectID: p.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, []string{tag.ID}, tasks[0].TagIDs())
	assert.Len(t, v.tasks, 1)
}

func TestTaskListView_InvalidDueKeepsForm(t *testing.T) {
	v, _, _ := newTaskView(t)

	v.Update(runes("n"))
	v.editTitle.SetValue("Plan")
	v.editDue.SetValue("tomorrow")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.True(t, v.editing)
	assert.Error(t, v.err)
}

func TestTaskListView_Comments(t *testing.T) {
	ctx := context.Background()
	v, repos, p := newTaskView(t)

	_, err := repos.Tasks.Create(ctx, models.NewTask{ProjectID: p.ID, Title: "Review"})
	require.NoError(t, err)
	v.Update(v.loadTasks()())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, v.viewingTask)
	v.Update(cmd())
	assert.Empty(t, v.comments)

	v.Update(runes("c"))
	require.True(t, v.commentInputFocused)
	v.commentInput.SetValue("Looks good")
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	v.Update(cmd())
	require.Len(t, v.comments, 1)
	assert.Equal(t, "Ada", v.comments[0].AuthorName)
	assert.Contains(t, v.View(), "Looks good")

	_, cmd = v.Update(runes("x"))
	require.NotNil(t, cmd)
	v.Update(cmd())
	assert.Empty(t, v.comments)
}

func TestTaskListView_DropsStaleLoads(t *testing.T) {
	ctx := context.Background()
	v, repos, p := newTaskView(t)

	_, err := repos.Tasks.Create(ctx, models.NewTask{ProjectID: p.ID, Title: "Review"})
	require.NoError(t, err)
	_, err = repos.Tasks.Create(ctx, models.NewTask{ProjectID: p.ID, Title: "Release"})
	require.NoError(t, err)

	v.searchInput.SetValue("Re")
	older := v.loadTasks()
	v.searchInput.SetValue("Rev")
	newer := v.loadTasks()

	// The reply for "Rev" lands first; the slower "Re" reply must not win.
	v.Update(newer())
	v.Update(older())
	require.Len(t, v.tasks, 1)
	assert.Equal(t, "Review", v.tasks[0].Title)
}

func TestTaskListView_TagFilter(t *testing.T) {
	ctx := context.Background()
	v, repos, p := newTaskView(t)

	tag, err := repos.Tags.Create(ctx, models.NewTag{Name: "Urgent"})
	require.NoError(t, err)
	_, err = repos.Tasks.Create(ctx, models.NewTask{ProjectID: p.ID, Title: "Tagged", TagIDs: []string{tag.ID}})
	require.NoError(t, err)
	_, err = repos.Tasks.Create(ctx, models.NewTask{ProjectID: p.ID, Title: "Plain"})
	require.NoError(t, err)
	v.Update(v.loadTags())

	v.Update(runes("f"))
	require.True(t, v.tagDropdownOpen)
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())
	require.Len(t, v.tasks, 1)
	assert.Equal(t, "Tagged", v.tasks[0].Title)

	// Clear
	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())
	assert.Len(t, v.tasks, 2)
	assert.False(t, v.tagDropdownOpen)
}
