// Package bench runs a CRUD cycle against every repository and reports the
// timings collected by the perf monitor.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/perf"
	"github.com/tgienger/taskhub/internal/repository"
)

// DefaultIterations is the number of cycles per entity.
const DefaultIterations = 5

// Options tunes a run.
type Options struct {
	Iterations int
	// Pause is slept between iterations.
	Pause time.Duration
	// Progress, when set, is called before each entity's cycles.
	Progress func(entity string)
}

// Run clears monitor, then for each iteration creates, updates and deletes
// a project and a tag, creates and updates a task in a scratch project,
// and creates and deletes a comment on each task. The tasks and the scratch
// project are removed at the end; the scratch project's own create and
// delete count towards the project figures. repos must be built with
// monitor.
func Run(ctx context.Context, repos *repository.Repositories, monitor *perf.Monitor, opts Options) ([]perf.Stat, error) {
	if opts.Iterations <= 0 {
		opts.Iterations = DefaultIterations
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(string) {}
	}

	monitor.Clear()

	progress(models.EntityProjects)
	for i := 1; i <= opts.Iterations; i++ {
		name := fmt.Sprintf("Benchmark project %d", i)
		p, err := repos.Projects.Create(ctx, models.NewProject{Name: name, Description: "Benchmark project"})
		if err != nil {
			return nil, err
		}
		if _, err := repos.Projects.Update(ctx, p.ID, models.ProjectPatch{Name: models.Ptr(name + " (updated)")}); err != nil {
			return nil, err
		}
		if err := repos.Projects.Delete(ctx, p.ID); err != nil {
			return nil, err
		}
		pause(ctx, opts.Pause)
	}

	progress(models.EntityTags)
	for i := 1; i <= opts.Iterations; i++ {
		name := fmt.Sprintf("Benchmark tag %d", i)
		tag, err := repos.Tags.Create(ctx, models.NewTag{Name: name, Color: models.DefaultTagColor})
		if err != nil {
			return nil, err
		}
		if _, err := repos.Tags.Update(ctx, tag.ID, models.TagPatch{Name: models.Ptr(name + " (updated)")}); err != nil {
			return nil, err
		}
		if err := repos.Tags.Delete(ctx, tag.ID); err != nil {
			return nil, err
		}
		pause(ctx, opts.Pause)
	}

	scratch, err := repos.Projects.Create(ctx, models.NewProject{Name: "Benchmark scratch project"})
	if err != nil {
		return nil, err
	}
	cleaned := false
	defer func() {
		// Deleting the scratch project cascades to anything left behind.
		if !cleaned {
			_ = repos.Projects.Delete(context.WithoutCancel(ctx), scratch.ID)
		}
	}()

	progress(models.EntityTasks)
	taskIDs := make([]string, 0, opts.Iterations)
	for i := 1; i <= opts.Iterations; i++ {
		title := fmt.Sprintf("Benchmark task %d", i)
		task, err := repos.Tasks.Create(ctx, models.NewTask{ProjectID: scratch.ID, Title: title})
		if err != nil {
			return nil, err
		}
		taskIDs = append(taskIDs, task.ID)
		if _, err := repos.Tasks.Update(ctx, task.ID, models.TaskPatch{Title: models.Ptr(title + " (updated)")}); err != nil {
			return nil, err
		}
		pause(ctx, opts.Pause)
	}

	progress(models.EntityComments)
	for i, taskID := range taskIDs {
		c, err := repos.Comments.Create(ctx, models.NewComment{TaskID: taskID, Content: fmt.Sprintf("Benchmark comment %d", i+1)})
		if err != nil {
			return nil, err
		}
		if err := repos.Comments.Delete(ctx, c.ID); err != nil {
			return nil, err
		}
		pause(ctx, opts.Pause)
	}

	for _, id := range taskIDs {
		if err := repos.Tasks.Delete(ctx, id); err != nil {
			return nil, err
		}
	}
	cleaned = true
	if err := repos.Projects.Delete(ctx, scratch.ID); err != nil {
		return nil, err
	}

	return monitor.Report(), nil
}

func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
