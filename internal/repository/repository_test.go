package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskhub/internal/apperr"
	"github.com/tgienger/taskhub/internal/cache"
	"github.com/tgienger/taskhub/internal/db"
	"github.com/tgienger/taskhub/internal/filter"
	"github.com/tgienger/taskhub/internal/logging"
	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/perf"
)

// identity is a switchable session for tests.
type identity struct {
	id string
}

func (i *identity) UserID() (string, error) {
	if i.id == "" {
		return "", apperr.ErrUnauthenticated
	}
	return i.id, nil
}

type fixture struct {
	db     *db.DB
	cache  *cache.Cache
	who    *identity
	repos  *Repositories
	user   *models.User
	logger *logging.TestLogger
}

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to open db")
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// newFixture builds repositories over a fresh database with one signed-in
// user. wrap, when non-nil, decorates the store.
func newFixture(t *testing.T, wrap func(Store) Store, opts ...Option) *fixture {
	t.Helper()
	database := setupTestDB(t)
	user, err := database.CreateUser(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	var store Store = database
	if wrap != nil {
		store = wrap(store)
	}

	f := &fixture{
		db:     database,
		cache:  cache.New(),
		who:    &identity{id: user.ID},
		user:   user,
		logger: logging.NewTestLogger(),
	}
	opts = append([]Option{WithCache(f.cache), WithLogger(f.logger.Logger)}, opts...)
	f.repos = New(store, f.who, opts...)
	return f
}

func (f *fixture) project(t *testing.T, name string) *models.Project {
	t.Helper()
	p, err := f.repos.Projects.Create(context.Background(), models.NewProject{Name: name})
	require.NoError(t, err)
	return p
}

func (f *fixture) tag(t *testing.T, name string) *models.Tag {
	t.Helper()
	tag, err := f.repos.Tags.Create(context.Background(), models.NewTag{Name: name})
	require.NoError(t, err)
	return tag
}

func (f *fixture) task(t *testing.T, projectID, title string, tagIDs ...string) *models.Task {
	t.Helper()
	task, err := f.repos.Tasks.Create(context.Background(), models.NewTask{
		ProjectID: projectID,
		Title:     title,
		TagIDs:    tagIDs,
	})
	require.NoError(t, err)
	return task
}

func tagIDs(task *models.Task) []string {
	return task.TagIDs()
}

func TestUnauthenticated(t *testing.T) {
	f := newFixture(t, nil)
	f.who.id = ""
	ctx := context.Background()

	_, err := f.repos.Projects.List(ctx)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = f.repos.Projects.Create(ctx, models.NewProject{Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = f.repos.Tasks.List(ctx, filter.Tasks{})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = f.repos.Tasks.Update(ctx, "id", models.TaskPatch{})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = f.repos.Tags.List(ctx)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	err = f.repos.Tags.Delete(ctx, "id")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = f.repos.Comments.List(ctx, "task")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestListEmptyIsNotAnError(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	projects, err := f.repos.Projects.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	tasks, err := f.repos.Tasks.List(ctx, filter.Tasks{Status: filter.All})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestProjects_CreateValidatesAndDefaults(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.repos.Projects.Create(ctx, models.NewProject{Name: "   "})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = f.repos.Projects.Create(ctx, models.NewProject{Name: "x", Status: "archived"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	p, err := f.repos.Projects.Create(ctx, models.NewProject{Name: "  Website  "})
	require.NoError(t, err)
	assert.Equal(t, "Website", p.Name)
	assert.Equal(t, models.ProjectActive, p.Status)
	assert.Equal(t, f.user.ID, p.OwnerID)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestProjects_UpdateAndDeleteMissing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.repos.Projects.Update(ctx, "missing", models.ProjectPatch{Name: models.Ptr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = f.repos.Projects.Delete(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrRemote)
	assert.Equal(t, apperr.KindRemote, apperr.KindOf(err))

	p := f.project(t, "Website")
	status := models.ProjectOnHold
	updated, err := f.repos.Projects.Update(ctx, p.ID, models.ProjectPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectOnHold, updated.Status)
	assert.Equal(t, "Website", updated.Name)
}

func TestProjects_OwnerScoped(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.project(t, "Mine")

	other, err := f.db.CreateUser(ctx, "bob@example.com", "Bob")
	require.NoError(t, err)
	f.who.id = other.ID

	projects, err := f.repos.Projects.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	_, err = f.repos.Projects.Get(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.repos.Tasks.Create(ctx, models.NewTask{ProjectID: p.ID, Title: "sneaky"})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "project_id", verr.Field)
}

func TestProjectDelete_InvalidatesTaskReads(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.project(t, "Website")
	f.task(t, p.ID, "Design mockups")

	pending := filter.Tasks{Status: string(models.TaskPending)}
	_, err := f.repos.Tasks.List(ctx, filter.Tasks{})
	require.NoError(t, err)
	_, err = f.repos.Tasks.List(ctx, pending)
	require.NoError(t, err)

	allKey := cache.Key{Entity: models.EntityTasks, OwnerID: f.user.ID}
	pendingKey := cache.Key{Entity: models.EntityTasks, OwnerID: f.user.ID, Filter: pending.Descriptor()}
	require.True(t, f.cache.State(allKey).Valid)
	require.True(t, f.cache.State(pendingKey).Valid)

	require.NoError(t, f.repos.Projects.Delete(ctx, p.ID))

	for _, key := range []cache.Key{allKey, pendingKey} {
		state := f.cache.State(key)
		assert.True(t, state.Cached, key.String())
		assert.False(t, state.Valid, key.String())
	}

	tasks, err := f.repos.Tasks.List(ctx, filter.Tasks{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestInvalidates(t *testing.T) {
	assert.ElementsMatch(t, []string{"projects", "tasks", "comments"}, Invalidates[models.EntityProjects])
	assert.ElementsMatch(t, []string{"tasks", "projects", "comments"}, Invalidates[models.EntityTasks])
	assert.ElementsMatch(t, []string{"tags", "tasks"}, Invalidates[models.EntityTags])
	assert.ElementsMatch(t, []string{"comments"}, Invalidates[models.EntityComments])
}

func TestTagUpdate_InvalidatesTaskReads(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	tag := f.tag(t, "urgent")

	_, err := f.repos.Tasks.List(ctx, filter.Tasks{})
	require.NoError(t, err)
	key := cache.Key{Entity: models.EntityTasks, OwnerID: f.user.ID}
	require.True(t, f.cache.State(key).Valid)

	_, err = f.repos.Tags.Update(ctx, tag.ID, models.TagPatch{Name: models.Ptr("blocker")})
	require.NoError(t, err)
	assert.False(t, f.cache.State(key).Valid)
}

func TestTags_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.repos.Tags.Create(ctx, models.NewTag{Name: ""})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.repos.Tags.Create(ctx, models.NewTag{Name: "x", Color: "blue"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	tag, err := f.repos.Tags.Create(ctx, models.NewTag{Name: "design"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTagColor, tag.Color)

	_, err = f.repos.Tags.Update(ctx, tag.ID, models.TagPatch{Color: models.Ptr("#zzzzzz")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.repos.Tags.Update(ctx, "missing", models.TagPatch{Color: models.Ptr("#fff")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	tags, err := f.repos.Tags.List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
}

type countingStore struct {
	Store
	listTasks int
}

func (s *countingStore) ListTasks(ctx context.Context, q db.TaskQuery) ([]models.Task, error) {
	s.listTasks++
	return s.Store.ListTasks(ctx, q)
}

func TestTasks_ListServedFromCache(t *testing.T) {
	counter := &countingStore{}
	f := newFixture(t, func(s Store) Store {
		counter.Store = s
		return counter
	})
	ctx := context.Background()
	p := f.project(t, "Website")

	for i := 0; i < 3; i++ {
		_, err := f.repos.Tasks.List(ctx, filter.Tasks{})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, counter.listTasks)

	// Tag filtering happens after the fetch and shares the cached read.
	_, err := f.repos.Tasks.List(ctx, filter.Tasks{TagIDs: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, 1, counter.listTasks)

	f.task(t, p.ID, "New")
	tasks, err := f.repos.Tasks.List(ctx, filter.Tasks{})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, 2, counter.listTasks)
}

func TestWithMonitor_RecordsOperations(t *testing.T) {
	monitor := perf.NewMonitor(nil)
	f := newFixture(t, nil, WithMonitor(monitor))
	ctx := context.Background()

	p := f.project(t, "Website")
	_, err := f.repos.Projects.List(ctx)
	require.NoError(t, err)
	assert.Error(t, f.repos.Projects.Delete(ctx, "missing"))
	require.NoError(t, f.repos.Projects.Delete(ctx, p.ID))

	report := monitor.Report()
	require.Len(t, report, 3)
	assert.Equal(t, perf.OpCreate, report[0].Operation)
	assert.Equal(t, perf.OpRead, report[1].Operation)
	assert.Equal(t, perf.OpDelete, report[2].Operation)
	assert.Equal(t, 1, report[2].Count)
	assert.Equal(t, 1, report[2].Failures)
}

func TestComments(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.project(t, "Website")
	task := f.task(t, p.ID, "Design")

	_, err := f.repos.Comments.Create(ctx, models.NewComment{TaskID: task.ID, Content: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.repos.Comments.Create(ctx, models.NewComment{TaskID: "missing", Content: "hi"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	first, err := f.repos.Comments.Create(ctx, models.NewComment{TaskID: task.ID, Content: " first "})
	require.NoError(t, err)
	assert.Equal(t, "first", first.Content)
	assert.Equal(t, "Ada", first.AuthorName)

	comments, err := f.repos.Comments.List(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	_, err = f.repos.Comments.Create(ctx, models.NewComment{TaskID: task.ID, Content: "second"})
	require.NoError(t, err)
	comments, err = f.repos.Comments.List(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)

	// Someone else cannot delete the author's comment.
	ada := f.who.id
	other, err := f.db.CreateUser(ctx, "bob@example.com", "Bob")
	require.NoError(t, err)
	f.who.id = other.ID
	err = f.repos.Comments.Delete(ctx, first.ID)
	assert.ErrorIs(t, err, apperr.ErrRemote)

	f.who.id = ada
	require.NoError(t, f.repos.Comments.Delete(ctx, first.ID))
	err = f.repos.Comments.Delete(ctx, first.ID)
	assert.ErrorIs(t, err, apperr.ErrRemote)
}

func TestTaskDelete_InvalidatesComments(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.project(t, "Website")
	task := f.task(t, p.ID, "Design")

	_, err := f.repos.Comments.Create(ctx, models.NewComment{TaskID: task.ID, Content: "hi"})
	require.NoError(t, err)
	_, err = f.repos.Comments.List(ctx, task.ID)
	require.NoError(t, err)

	require.NoError(t, f.repos.Tasks.Delete(ctx, task.ID))
	comments, err := f.repos.Comments.List(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	err = f.repos.Tasks.Delete(ctx, task.ID)
	assert.ErrorIs(t, err, apperr.ErrRemote)
}

var errInjected = errors.New("injected failure")
