package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tgienger/taskhub/internal/models"
)

func task(projectID string, status models.TaskStatus, due *time.Time) models.Task {
	return models.Task{ProjectID: projectID, Status: status, DueDate: due}
}

func TestCountByStatus(t *testing.T) {
	tasks := []models.Task{
		task("p", models.TaskPending, nil),
		task("p", models.TaskPending, nil),
		task("p", models.TaskInProgress, nil),
		task("p", models.TaskCompleted, nil),
	}

	c := CountByStatus(tasks)
	assert.Equal(t, StatusCounts{Total: 4, Pending: 2, InProgress: 1, Completed: 1}, c)
	assert.Equal(t, c.Total, c.Pending+c.InProgress+c.Completed)

	assert.Equal(t, StatusCounts{}, CountByStatus(nil))
}

func TestPercentComplete(t *testing.T) {
	tests := []struct {
		count, completed, want int
	}{
		{0, 0, 0},
		{4, 1, 25},
		{3, 1, 33},
		{3, 2, 67},
		{2, 2, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PercentComplete(tt.count, tt.completed), "%d/%d", tt.completed, tt.count)
	}
}

func TestProjectProgress(t *testing.T) {
	tasks := []models.Task{
		task("a", models.TaskCompleted, nil),
		task("a", models.TaskPending, nil),
		task("a", models.TaskPending, nil),
		task("a", models.TaskInProgress, nil),
		task("b", models.TaskCompleted, nil),
	}

	assert.Equal(t, Progress{Total: 4, Completed: 1, Percent: 25}, ProjectProgress(tasks, "a"))
	assert.Equal(t, Progress{}, ProjectProgress(tasks, "none"))
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	assert.True(t, IsOverdue(task("p", models.TaskPending, &yesterday), now))
	assert.True(t, IsOverdue(task("p", models.TaskInProgress, &yesterday), now))
	assert.False(t, IsOverdue(task("p", models.TaskCompleted, &yesterday), now))
	assert.False(t, IsOverdue(task("p", models.TaskPending, &tomorrow), now))
	assert.False(t, IsOverdue(task("p", models.TaskPending, nil), now))
	assert.False(t, IsOverdue(task("p", models.TaskPending, &now), now))
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	projects := []models.Project{
		{Status: models.ProjectActive, TaskCount: 3},
		{Status: models.ProjectOnHold, TaskCount: 1},
		{Status: models.ProjectCompleted},
		{Status: models.ProjectCancelled},
	}
	tasks := []models.Task{
		task("a", models.TaskCompleted, &past),
		task("a", models.TaskPending, &past),
		task("a", models.TaskInProgress, nil),
		task("b", models.TaskPending, nil),
	}

	s := Summarize(projects, tasks, now)
	assert.Equal(t, ProjectCounts{Total: 4, Active: 1, Completed: 1, OnHold: 1, Cancelled: 1, Tasks: 4}, s.Projects)
	assert.Equal(t, 4, s.Tasks.Total)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 25, s.Percent)
	assert.Len(t, Overdue(tasks, now), 1)
}
