package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/taskhub/internal/models"
)

func TestCreateTask_RequiresOwnedProject(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")
	p := createProject(t, db, alice.ID, "alice")

	_, err := db.CreateTask(ctx, bob.ID, models.NewTask{
		ProjectID: p.ID, Title: "sneaky", Status: models.TaskPending, Priority: models.PriorityLow,
	})
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = db.CreateTask(ctx, alice.ID, models.NewTask{
		ProjectID: "missing", Title: "orphan", Status: models.TaskPending, Priority: models.PriorityLow,
	})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestGetTask_ExpandsProjectName(t *testing.T) {
	db := setupTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	p := createProject(t, db, owner.ID, "Website")
	task := createTask(t, db, owner.ID, p.ID, "Build header", models.TaskPending)

	assert.Equal(t, "Website", task.ProjectName)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Empty(t, task.Tags)
}

func TestListTasks_Filters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	web := createProject(t, db, owner.ID, "web")
	api := createProject(t, db, owner.ID, "api")

	createTask(t, db, owner.ID, web.ID, "Design Landing page", models.TaskPending)
	createTask(t, db, owner.ID, web.ID, "Write copy", models.TaskCompleted)
	createTask(t, db, owner.ID, api.ID, "Design schema", models.TaskInProgress)
	createTask(t, db, owner.ID, api.ID, "100% coverage", models.TaskPending)

	tests := []struct {
		name   string
		query  TaskQuery
		titles []string
	}{
		{"all, newest first", TaskQuery{}, []string{"100% coverage", "Design schema", "Write copy", "Design Landing page"}},
		{"status", TaskQuery{Status: models.TaskPending}, []string{"100% coverage", "Design Landing page"}},
		{"project", TaskQuery{ProjectID: web.ID}, []string{"Write copy", "Design Landing page"}},
		{"search is case-insensitive", TaskQuery{Search: "design"}, []string{"Design schema", "Design Landing page"}},
		{"search matches wildcards literally", TaskQuery{Search: "0%"}, []string{"100% coverage"}},
		{"combined", TaskQuery{Search: "DESIGN", ProjectID: api.ID, Status: models.TaskInProgress}, []string{"Design schema"}},
		{"no match", TaskQuery{Search: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			q.OwnerID = owner.ID
			tasks, err := db.ListTasks(ctx, q)
			require.NoError(t, err)

			titles := []string{}
			for _, task := range tasks {
				titles = append(titles, task.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestListTasks_SearchFoldsUnicode(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	p := createProject(t, db, owner.ID, "reading")
	createTask(t, db, owner.ID, p.ID, "Élan vital", models.TaskPending)
	createTask(t, db, owner.ID, p.ID, "Straße", models.TaskPending)

	for _, search := range []string{"élan", "ÉLAN", "STRAßE"} {
		tasks, err := db.ListTasks(ctx, TaskQuery{OwnerID: owner.ID, Search: search})
		require.NoError(t, err)
		assert.Len(t, tasks, 1, search)
	}
	assert.Equal(t, Fold("ÉLAN"), Fold("élan"))
}

func TestUpdateTask_Partial(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	p := createProject(t, db, owner.ID, "p")
	other := createProject(t, db, owner.ID, "other")
	task := createTask(t, db, owner.ID, p.ID, "title", models.TaskPending)

	status := models.TaskCompleted
	updated, err := db.UpdateTask(ctx, owner.ID, task.ID, models.TaskPatch{Status: &status, ProjectID: &other.ID})
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, updated.Status)
	assert.Equal(t, "title", updated.Title)
	assert.Equal(t, other.ID, updated.ProjectID)
	assert.Equal(t, "other", updated.ProjectName)

	missing := "missing"
	_, err = db.UpdateTask(ctx, owner.ID, task.ID, models.TaskPatch{ProjectID: &missing})
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = db.UpdateTask(ctx, owner.ID, "nope", models.TaskPatch{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.UpdateTask(ctx, owner.ID, "nope", models.TaskPatch{})
	assert.ErrorIs(t, err, ErrNotFound, "empty patch still resolves the row")
}

func TestTaskTags(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	stranger := createUser(t, db, "stranger@example.com")
	p := createProject(t, db, owner.ID, "p")
	task := createTask(t, db, owner.ID, p.ID, "t", models.TaskPending)

	a, err := db.CreateTag(ctx, owner.ID, models.NewTag{Name: "a", Color: "#111"})
	require.NoError(t, err)
	b, err := db.CreateTag(ctx, owner.ID, models.NewTag{Name: "b", Color: "#222"})
	require.NoError(t, err)
	foreign, err := db.CreateTag(ctx, stranger.ID, models.NewTag{Name: "f", Color: "#333"})
	require.NoError(t, err)

	require.NoError(t, db.AddTaskTags(ctx, owner.ID, task.ID, []string{b.ID, a.ID}))

	tasks, err := db.ListTasks(ctx, TaskQuery{OwnerID: owner.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, tasks[0].TagIDs())

	err = db.AddTaskTags(ctx, owner.ID, task.ID, []string{foreign.ID})
	assert.ErrorIs(t, err, ErrInvalidReference, "tags of another owner cannot be linked")

	err = db.AddTaskTags(ctx, owner.ID, task.ID, []string{a.ID})
	assert.Error(t, err, "duplicate join rows are rejected")

	require.NoError(t, db.ClearTaskTags(ctx, owner.ID, task.ID))
	got, err := db.GetTask(ctx, owner.ID, task.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	assert.ErrorIs(t, db.AddTaskTags(ctx, stranger.ID, task.ID, []string{foreign.ID}), ErrNotFound)
}

func TestTags_OrderAndUpdate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")

	for _, name := range []string{"mobile", "api", "design"} {
		_, err := db.CreateTag(ctx, owner.ID, models.NewTag{Name: name, Color: "#000"})
		require.NoError(t, err)
	}

	tags, err := db.ListTags(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "api", tags[0].Name)
	assert.Equal(t, "design", tags[1].Name)
	assert.Equal(t, "mobile", tags[2].Name)

	color := "#fff"
	updated, err := db.UpdateTag(ctx, owner.ID, tags[0].ID, models.TagPatch{Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "api", updated.Name)
	assert.Equal(t, "#fff", updated.Color)

	require.NoError(t, db.DeleteTag(ctx, owner.ID, tags[0].ID))
	assert.ErrorIs(t, db.DeleteTag(ctx, owner.ID, tags[0].ID), ErrNotFound)
}

func TestComments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner, err := db.CreateUser(ctx, "owner@example.com", "Owner")
	require.NoError(t, err)
	stranger := createUser(t, db, "stranger@example.com")
	p := createProject(t, db, owner.ID, "p")
	task := createTask(t, db, owner.ID, p.ID, "t", models.TaskPending)

	first, err := db.CreateComment(ctx, owner.ID, models.NewComment{TaskID: task.ID, Content: "first"})
	require.NoError(t, err)
	assert.Equal(t, "Owner", first.AuthorName)
	assert.Equal(t, "owner@example.com", first.AuthorEmail)
	_, err = db.CreateComment(ctx, owner.ID, models.NewComment{TaskID: task.ID, Content: "second"})
	require.NoError(t, err)

	_, err = db.CreateComment(ctx, stranger.ID, models.NewComment{TaskID: task.ID, Content: "spam"})
	assert.ErrorIs(t, err, ErrInvalidReference)

	comments, err := db.ListComments(ctx, owner.ID, task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content, "oldest first")
	assert.Equal(t, "second", comments[1].Content)

	hidden, err := db.ListComments(ctx, stranger.ID, task.ID)
	require.NoError(t, err)
	assert.Empty(t, hidden)

	assert.ErrorIs(t, db.DeleteComment(ctx, stranger.ID, first.ID), ErrNotFound, "only the author deletes")
	require.NoError(t, db.DeleteComment(ctx, owner.ID, first.ID))
}
