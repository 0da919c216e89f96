package repository

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/tgienger/taskhub/internal/apperr"
	"github.com/tgienger/taskhub/internal/cache"
	"github.com/tgienger/taskhub/internal/db"
	"github.com/tgienger/taskhub/internal/filter"
	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/perf"
)

const entityTasks = models.EntityTasks

// Tasks reads and writes the current user's tasks and their tag sets.
type Tasks struct {
	*deps
	links *TagLinker
}

// List returns the tasks matching f, newest first, with project names and
// tags expanded. Status, project and search run in the store; tags are
// applied to the fetched set.
func (r *Tasks) List(ctx context.Context, f filter.Tasks) ([]models.Task, error) {
	return perf.Measure(ctx, r.monitor, entityTasks, perf.OpRead, func(ctx context.Context) ([]models.Task, error) {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return nil, err
		}
		q, err := f.Query(owner)
		if err != nil {
			return nil, err
		}

		key := cache.Key{Entity: entityTasks, OwnerID: owner, Filter: f.Descriptor()}
		tasks, err := cache.FetchSlice(ctx, r.cache, key, func(ctx context.Context) ([]models.Task, error) {
			return r.store.ListTasks(ctx, q)
		})
		if err != nil {
			return nil, apperr.Remote(entityTasks, perf.OpRead, err)
		}
		tasks = f.Apply(tasks)
		for i := range tasks {
			tasks[i].Tags = slices.Clone(tasks[i].Tags)
			if d := tasks[i].DueDate; d != nil {
				tasks[i].DueDate = models.Ptr(*d)
			}
		}
		return tasks, nil
	})
}

// Get returns one task.
func (r *Tasks) Get(ctx context.Context, id string) (*models.Task, error) {
	return perf.Measure(ctx, r.monitor, entityTasks, perf.OpRead, func(ctx context.Context) (*models.Task, error) {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return nil, err
		}
		t, err := r.store.GetTask(ctx, owner, id)
		if err != nil {
			return nil, notFound(entityTasks, perf.OpRead, id, err)
		}
		return t, nil
	})
}

func validateStatusPriority(status *models.TaskStatus, priority *models.Priority) error {
	if status != nil && !status.IsValid() {
		return apperr.Invalid(entityTasks, "status", *status)
	}
	if priority != nil && !priority.IsValid() {
		return apperr.Invalid(entityTasks, "priority", *priority)
	}
	return nil
}

// Create validates in, inserts the task and then links its tags.
//
// The insert and the linking are separate writes. If linking fails the task
// row already exists: the call returns a *TagLinkError naming it, and with
// WithCompensateOrphans the task is deleted again on a best-effort basis.
func (r *Tasks) Create(ctx context.Context, in models.NewTask) (*models.Task, error) {
	return perf.Measure(ctx, r.monitor, entityTasks, perf.OpCreate, func(ctx context.Context) (*models.Task, error) {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return nil, err
		}

		in.Title = strings.TrimSpace(in.Title)
		in.Description = strings.TrimSpace(in.Description)
		if in.Title == "" {
			return nil, apperr.Required(entityTasks, "title")
		}
		if in.ProjectID == "" {
			return nil, apperr.Required(entityTasks, "project_id")
		}
		if in.Status == "" {
			in.Status = models.DefaultTaskStatus
		}
		if in.Priority == "" {
			in.Priority = models.DefaultPriority
		}
		if err := validateStatusPriority(&in.Status, &in.Priority); err != nil {
			return nil, err
		}

		task, err := r.store.CreateTask(ctx, owner, in)
		if err != nil {
			return nil, classifyRef(entityTasks, perf.OpCreate, "project_id", err)
		}

		if tagIDs := dedupe(in.TagIDs); len(tagIDs) > 0 {
			if err := r.links.Attach(ctx, owner, task.ID, tagIDs); err != nil {
				return nil, r.linkFailed(ctx, owner, task.ID, linkAttach, err)
			}
			if task, err = r.store.GetTask(ctx, owner, task.ID); err != nil {
				r.invalidate(ctx, entityTasks)
				return nil, apperr.Remote(entityTasks, perf.OpCreate, err)
			}
		}

		r.invalidate(ctx, entityTasks)
		return task, nil
	})
}

// Update applies the provided fields of patch. A non-nil patch.TagIDs
// replaces the whole tag set; a pointer to an empty slice clears it.
func (r *Tasks) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	return perf.Measure(ctx, r.monitor, entityTasks, perf.OpUpdate, func(ctx context.Context) (*models.Task, error) {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return nil, err
		}

		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return nil, apperr.Required(entityTasks, "title")
			}
			patch.Title = &title
		}
		if patch.Description != nil {
			desc := strings.TrimSpace(*patch.Description)
			patch.Description = &desc
		}
		if patch.ProjectID != nil && *patch.ProjectID == "" {
			return nil, apperr.Required(entityTasks, "project_id")
		}
		if err := validateStatusPriority(patch.Status, patch.Priority); err != nil {
			return nil, err
		}

		// Row fields first; this also resolves the id for the caller.
		task, err := r.store.UpdateTask(ctx, owner, id, patch)
		if err != nil {
			if errors.Is(err, db.ErrInvalidReference) {
				return nil, classifyRef(entityTasks, perf.OpUpdate, "project_id", err)
			}
			return nil, notFound(entityTasks, perf.OpUpdate, id, err)
		}
		changed := patch.HasFieldChanges()

		if patch.TagIDs != nil {
			if err := r.links.Replace(ctx, owner, id, *patch.TagIDs); err != nil {
				return nil, r.linkFailed(ctx, owner, id, linkReplace, err)
			}
			changed = true
			if task, err = r.store.GetTask(ctx, owner, id); err != nil {
				r.invalidate(ctx, entityTasks)
				return nil, notFound(entityTasks, perf.OpUpdate, id, err)
			}
		}

		if changed {
			r.invalidate(ctx, entityTasks)
		}
		return task, nil
	})
}

// Delete removes a task with its comments and tag links.
func (r *Tasks) Delete(ctx context.Context, id string) error {
	return perf.Exec(ctx, r.monitor, entityTasks, perf.OpDelete, func(ctx context.Context) error {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return err
		}
		if err := r.store.DeleteTask(ctx, owner, id); err != nil {
			return missingOnDelete(entityTasks, id, err)
		}
		r.invalidate(ctx, entityTasks)
		return nil
	})
}

// linkFailed builds the TagLinkError for a task whose row was written but
// whose tags were not, optionally removing a freshly created task, and
// invalidates task reads since the row changed either way.
func (r *Tasks) linkFailed(ctx context.Context, owner, taskID, op string, cause error) error {
	apiOp := perf.OpCreate
	if op == linkReplace {
		apiOp = perf.OpUpdate
	}
	linkErr := &TagLinkError{
		TaskID: taskID,
		Op:     op,
		Err:    classifyRef(entityTasks, apiOp, "tag_ids", cause),
	}

	if op == linkAttach && r.compensateOrphans {
		if err := r.store.DeleteTask(ctx, owner, taskID); err != nil {
			r.logger.Warn(ctx, "failed to remove task after tag link failure",
				zap.String("task.id", taskID),
				zap.Error(err),
			)
		} else {
			linkErr.RolledBack = true
		}
	}

	r.logger.Error(ctx, "tag link failed",
		zap.String("task.id", taskID),
		zap.String("op", op),
		zap.Bool("rolled_back", linkErr.RolledBack),
		zap.Error(cause),
	)
	r.invalidate(ctx, entityTasks)
	return linkErr
}
