// Package stats derives dashboard numbers from snapshots of projects and
// tasks. Every function is pure; callers pass the clock.
package stats

import (
	"math"
	"time"

	"github.com/tgienger/taskhub/internal/models"
)

// StatusCounts partitions tasks by status.
type StatusCounts struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
}

// CountByStatus counts tasks per status. Pending+InProgress+Completed
// always equals Total for tasks with valid statuses.
func CountByStatus(tasks []models.Task) StatusCounts {
	c := StatusCounts{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case models.TaskPending:
			c.Pending++
		case models.TaskInProgress:
			c.InProgress++
		case models.TaskCompleted:
			c.Completed++
		}
	}
	return c
}

// PercentComplete returns round(completed/count*100), or 0 when count is 0.
func PercentComplete(count, completed int) int {
	if count <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(count) * 100))
}

// Progress is the completion of one project.
type Progress struct {
	Total     int
	Completed int
	Percent   int
}

// ProjectProgress computes completion over the tasks belonging to projectID.
func ProjectProgress(tasks []models.Task, projectID string) Progress {
	var p Progress
	for _, t := range tasks {
		if t.ProjectID != projectID {
			continue
		}
		p.Total++
		if t.Status == models.TaskCompleted {
			p.Completed++
		}
	}
	p.Percent = PercentComplete(p.Total, p.Completed)
	return p
}

// IsOverdue reports whether t has a due date before now and is not completed.
func IsOverdue(t models.Task, now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != models.TaskCompleted
}

// Overdue returns the overdue tasks in their original order.
func Overdue(tasks []models.Task, now time.Time) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if IsOverdue(t, now) {
			out = append(out, t)
		}
	}
	return out
}

// ProjectCounts partitions projects by status.
type ProjectCounts struct {
	Total     int
	Active    int
	Completed int
	OnHold    int
	Cancelled int
	Tasks     int // sum of embedded task counts
}

// CountProjects counts projects per status and sums their task counts.
func CountProjects(projects []models.Project) ProjectCounts {
	c := ProjectCounts{Total: len(projects)}
	for _, p := range projects {
		switch p.Status {
		case models.ProjectActive:
			c.Active++
		case models.ProjectCompleted:
			c.Completed++
		case models.ProjectOnHold:
			c.OnHold++
		case models.ProjectCancelled:
			c.Cancelled++
		}
		c.Tasks += p.TaskCount
	}
	return c
}

// Summary is the dashboard snapshot.
type Summary struct {
	Projects ProjectCounts
	Tasks    StatusCounts
	Overdue  int
	Percent  int
}

// Summarize computes the dashboard snapshot at now.
func Summarize(projects []models.Project, tasks []models.Task, now time.Time) Summary {
	counts := CountByStatus(tasks)
	return Summary{
		Projects: CountProjects(projects),
		Tasks:    counts,
		Overdue:  len(Overdue(tasks, now)),
		Percent:  PercentComplete(counts.Total, counts.Completed),
	}
}
