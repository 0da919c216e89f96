package repository

import (
	"context"
	"strings"

	"github.com/tgienger/taskhub/internal/apperr"
	"github.com/tgienger/taskhub/internal/cache"
	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/perf"
)

const entityProjects = models.EntityProjects

// Projects reads and writes the current user's projects.
type Projects struct {
	*deps
}

// List returns the user's projects, newest first, with task counts.
func (r *Projects) List(ctx context.Context) ([]models.Project, error) {
	return perf.Measure(ctx, r.monitor, entityProjects, perf.OpRead, func(ctx context.Context) ([]models.Project, error) {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return nil, err
		}
		key := cache.Key{Entity: entityProjects, OwnerID: owner}
		projects, err := cache.FetchSlice(ctx, r.cache, key, func(ctx context.Context) ([]models.Project, error) {
			return r.store.ListProjects(ctx, owner)
		})
		if err != nil {
			return nil, apperr.Remote(entityProjects, perf.OpRead, err)
		}
		return projects, nil
	})
}

// Get returns one project.
func (r *Projects) Get(ctx context.Context, id string) (*models.Project, error) {
	return perf.Measure(ctx, r.monitor, entityProjects, perf.OpRead, func(ctx context.Context) (*models.Project, error) {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return nil, err
		}
		p, err := r.store.GetProject(ctx, owner, id)
		if err != nil {
			return nil, notFound(entityProjects, perf.OpRead, id, err)
		}
		return p, nil
	})
}

// Create validates in and inserts a project owned by the current user.
func (r *Projects) Create(ctx context.Context, in models.NewProject) (*models.Project, error) {
	return perf.Measure(ctx, r.monitor, entityProjects, perf.OpCreate, func(ctx context.Context) (*models.Project, error) {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return nil, err
		}

		in.Name = strings.TrimSpace(in.Name)
		in.Description = strings.TrimSpace(in.Description)
		if in.Name == "" {
			return nil, apperr.Required(entityProjects, "name")
		}
		if in.Status == "" {
			in.Status = models.DefaultProjectStatus
		}
		if !in.Status.IsValid() {
			return nil, apperr.Invalid(entityProjects, "status", in.Status)
		}

		p, err := r.store.CreateProject(ctx, owner, in)
		if err != nil {
			return nil, apperr.Remote(entityProjects, perf.OpCreate, err)
		}
		r.invalidate(ctx, entityProjects)
		return p, nil
	})
}

// Update applies the provided fields of patch.
func (r *Projects) Update(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	return perf.Measure(ctx, r.monitor, entityProjects, perf.OpUpdate, func(ctx context.Context) (*models.Project, error) {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return nil, err
		}

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return nil, apperr.Required(entityProjects, "name")
			}
			patch.Name = &name
		}
		if patch.Description != nil {
			desc := strings.TrimSpace(*patch.Description)
			patch.Description = &desc
		}
		if patch.Status != nil && !patch.Status.IsValid() {
			return nil, apperr.Invalid(entityProjects, "status", *patch.Status)
		}

		p, err := r.store.UpdateProject(ctx, owner, id, patch)
		if err != nil {
			return nil, notFound(entityProjects, perf.OpUpdate, id, err)
		}
		if !patch.IsEmpty() {
			r.invalidate(ctx, entityProjects)
		}
		return p, nil
	})
}

// Delete removes a project. Its tasks, their comments and tag links go with
// it. Deleting an id that does not resolve is a RemoteError.
func (r *Projects) Delete(ctx context.Context, id string) error {
	return perf.Exec(ctx, r.monitor, entityProjects, perf.OpDelete, func(ctx context.Context) error {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return err
		}
		if err := r.store.DeleteProject(ctx, owner, id); err != nil {
			return missingOnDelete(entityProjects, id, err)
		}
		r.invalidate(ctx, entityProjects)
		return nil
	})
}
