// Package sample seeds a demo workspace for a new user.
package sample

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/repository"
)

// ErrNotEmpty is returned when the user already has projects.
var ErrNotEmpty = errors.New("workspace already has projects")

// Result counts what Seed created.
type Result struct {
	Tags     int
	Projects int
	Tasks    int
}

type tagSeed struct {
	name, color string
}

type projectSeed struct {
	name, description string
	status            models.ProjectStatus
	dueInDays         int
}

type taskSeed struct {
	title, description string
	status             models.TaskStatus
	priority           models.Priority
	project            int   // index into projects
	dueInDays          *int  // relative to now; nil for no due date
	tags               []int // indexes into tags
}

var tags = []tagSeed{
	{"Frontend", "#3b82f6"},
	{"Backend", "#ef4444"},
	{"Design", "#8b5cf6"},
	{"Mobile", "#10b981"},
	{"API", "#f59e0b"},
	{"Database", "#6b7280"},
	{"Testing", "#ec4899"},
}

var projects = []projectSeed{
	{"E-commerce Platform", "Online store with payment integration and inventory management.", models.ProjectActive, 45},
	{"Delivery Mobile App", "Food ordering app with live tracking and ratings.", models.ProjectActive, 30},
	{"Admin Dashboard", "Web interface for user management, reports and settings.", models.ProjectActive, 60},
	{"Integration API", "REST API for third-party integrations and webhooks.", models.ProjectOnHold, 90},
}

func days(n int) *int { return &n }

var tasks = []taskSeed{
	{"Set up development environment", "Install and configure every dependency the project needs.", models.TaskPending, models.PriorityHigh, 0, days(-2), []int{0, 1}},
	{"Wireframe the main screens", "Wireframes for the home, product and checkout pages.", models.TaskPending, models.PriorityMedium, 0, days(5), []int{2}},
	{"Design the database schema", "Model the tables and relations the system needs.", models.TaskPending, models.PriorityHigh, 1, days(3), []int{5}},
	{"Market research", "Review competitors and list the essential features.", models.TaskPending, models.PriorityLow, 1, nil, nil},
	{"Set up the CI/CD pipeline", "Continuous integration and deployment pipeline.", models.TaskPending, models.PriorityMedium, 2, days(10), []int{1}},

	{"Implement authentication", "Sign up, sign in and password recovery.", models.TaskInProgress, models.PriorityHigh, 0, days(7), []int{0, 1}},
	{"Build the shopping cart", "Add and remove products from the cart.", models.TaskInProgress, models.PriorityHigh, 0, days(12), []int{0}},
	{"Build the mobile screens", "Main app screens in React Native.", models.TaskInProgress, models.PriorityMedium, 1, days(14), []int{3, 2}},
	{"Payment gateway integration", "Stripe and PayPal checkout.", models.TaskInProgress, models.PriorityHigh, 0, days(-1), []int{1, 4}},
	{"Metrics dashboard", "Charts and reports for administrators.", models.TaskInProgress, models.PriorityMedium, 2, days(21), []int{0}},

	{"Requirements analysis", "Functional and non-functional requirements document.", models.TaskCompleted, models.PriorityHigh, 0, nil, nil},
	{"Initial frontend setup", "Project scaffold with TypeScript and Tailwind.", models.TaskCompleted, models.PriorityHigh, 0, nil, []int{0}},
	{"Design system and base components", "Reusable components and design tokens.", models.TaskCompleted, models.PriorityMedium, 2, nil, []int{2, 0}},
	{"Database setup", "PostgreSQL setup and first migration.", models.TaskCompleted, models.PriorityHigh, 1, nil, []int{5}},
	{"Component unit tests", "Tests for the main components.", models.TaskCompleted, models.PriorityLow, 2, nil, []int{6, 0}},
}

// Seed creates demo tags, projects and tasks for the signed-in user. Due
// dates are relative to now so some tasks are overdue. It refuses to run
// when the user already has projects unless force is set.
func Seed(ctx context.Context, repos *repository.Repositories, now time.Time, force bool) (Result, error) {
	var res Result

	if !force {
		existing, err := repos.Projects.List(ctx)
		if err != nil {
			return res, err
		}
		if len(existing) > 0 {
			return res, ErrNotEmpty
		}
	}

	tagIDs := make([]string, len(tags))
	for i, t := range tags {
		tag, err := repos.Tags.Create(ctx, models.NewTag{Name: t.name, Color: t.color})
		if err != nil {
			return res, fmt.Errorf("failed to create tag %q: %w", t.name, err)
		}
		tagIDs[i] = tag.ID
		res.Tags++
	}

	projectIDs := make([]string, len(projects))
	for i, p := range projects {
		due := dueDate(now, p.dueInDays)
		project, err := repos.Projects.Create(ctx, models.NewProject{
			Name:        p.name,
			Description: p.description,
			Status:      p.status,
			DueDate:     &due,
		})
		if err != nil {
			return res, fmt.Errorf("failed to create project %q: %w", p.name, err)
		}
		projectIDs[i] = project.ID
		res.Projects++
	}

	for _, t := range tasks {
		in := models.NewTask{
			ProjectID:   projectIDs[t.project],
			Title:       t.title,
			Description: t.description,
			Status:      t.status,
			Priority:    t.priority,
		}
		if t.dueInDays != nil {
			due := dueDate(now, *t.dueInDays)
			in.DueDate = &due
		}
		for _, idx := range t.tags {
			in.TagIDs = append(in.TagIDs, tagIDs[idx])
		}
		if _, err := repos.Tasks.Create(ctx, in); err != nil {
			return res, fmt.Errorf("failed to create task %q: %w", t.title, err)
		}
		res.Tasks++
	}

	return res, nil
}

// dueDate returns midnight UTC n days from now.
func dueDate(now time.Time, n int) time.Time {
	d := now.UTC().AddDate(0, 0, n)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
