package repository

import (
	"context"
	"strings"

	"github.com/tgienger/taskhub/internal/apperr"
	"github.com/tgienger/taskhub/internal/cache"
	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/perf"
)

const entityComments = models.EntityComments

// Comments reads and writes comments on the current user's tasks.
type Comments struct {
	*deps
}

// List returns the comments of one task, oldest first, with authors
// expanded. A task the user does not own has no visible comments.
func (r *Comments) List(ctx context.Context, taskID string) ([]models.Comment, error) {
	return perf.Measure(ctx, r.monitor, entityComments, perf.OpRead, func(ctx context.Context) ([]models.Comment, error) {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(taskID) == "" {
			return nil, apperr.Required(entityComments, "task_id")
		}

		key := cache.Key{Entity: entityComments, OwnerID: owner, Filter: "task=" + taskID}
		comments, err := cache.FetchSlice(ctx, r.cache, key, func(ctx context.Context) ([]models.Comment, error) {
			return r.store.ListComments(ctx, owner, taskID)
		})
		if err != nil {
			return nil, apperr.Remote(entityComments, perf.OpRead, err)
		}
		return comments, nil
	})
}

// Create adds a comment authored by the current user.
func (r *Comments) Create(ctx context.Context, in models.NewComment) (*models.Comment, error) {
	return perf.Measure(ctx, r.monitor, entityComments, perf.OpCreate, func(ctx context.Context) (*models.Comment, error) {
		ctx, author, err := r.owner(ctx)
		if err != nil {
			return nil, err
		}

		in.Content = strings.TrimSpace(in.Content)
		if in.TaskID == "" {
			return nil, apperr.Required(entityComments, "task_id")
		}
		if in.Content == "" {
			return nil, apperr.Required(entityComments, "content")
		}

		c, err := r.store.CreateComment(ctx, author, in)
		if err != nil {
			return nil, classifyRef(entityComments, perf.OpCreate, "task_id", err)
		}
		r.invalidate(ctx, entityComments)
		return c, nil
	})
}

// Delete removes a comment. Only its author can; for anyone else the
// comment does not resolve and the call fails with a RemoteError.
func (r *Comments) Delete(ctx context.Context, id string) error {
	return perf.Exec(ctx, r.monitor, entityComments, perf.OpDelete, func(ctx context.Context) error {
		ctx, author, err := r.owner(ctx)
		if err != nil {
			return err
		}
		if err := r.store.DeleteComment(ctx, author, id); err != nil {
			return missingOnDelete(entityComments, id, err)
		}
		r.invalidate(ctx, entityComments)
		return nil
	})
}
