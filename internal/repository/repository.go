// Package repository is the data-access layer between the UI and the store.
//
// Each entity repository scopes every call to the signed-in user, validates
// inputs, classifies store failures into apperr kinds, serves reads through
// the cache, and invalidates dependent cached reads after a successful
// mutation. Every operation is timed by the perf monitor when one is set.
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tgienger/taskhub/internal/apperr"
	"github.com/tgienger/taskhub/internal/cache"
	"github.com/tgienger/taskhub/internal/db"
	"github.com/tgienger/taskhub/internal/logging"
	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/perf"
)

// Store is the remote store as seen by the repositories. *db.DB satisfies it.
type Store interface {
	ListProjects(ctx context.Context, ownerID string) ([]models.Project, error)
	GetProject(ctx context.Context, ownerID, id string) (*models.Project, error)
	CreateProject(ctx context.Context, ownerID string, in models.NewProject) (*models.Project, error)
	UpdateProject(ctx context.Context, ownerID, id string, patch models.ProjectPatch) (*models.Project, error)
	DeleteProject(ctx context.Context, ownerID, id string) error

	ListTasks(ctx context.Context, q db.TaskQuery) ([]models.Task, error)
	GetTask(ctx context.Context, ownerID, id string) (*models.Task, error)
	CreateTask(ctx context.Context, ownerID string, in models.NewTask) (*models.Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) error

	LinkStore

	ListTags(ctx context.Context, ownerID string) ([]models.Tag, error)
	CreateTag(ctx context.Context, ownerID string, in models.NewTag) (*models.Tag, error)
	UpdateTag(ctx context.Context, ownerID, id string, patch models.TagPatch) (*models.Tag, error)
	DeleteTag(ctx context.Context, ownerID, id string) error

	ListComments(ctx context.Context, ownerID, taskID string) ([]models.Comment, error)
	CreateComment(ctx context.Context, authorID string, in models.NewComment) (*models.Comment, error)
	DeleteComment(ctx context.Context, authorID, id string) error
}

// Identity answers who the current user is. *auth.Session satisfies it.
type Identity interface {
	UserID() (string, error)
}

// Invalidates lists, per mutated entity, the cached entities a successful
// mutation makes stale. Project and task writes reach comments because
// deletes cascade to them in the store.
var Invalidates = map[string][]string{
	models.EntityProjects: {models.EntityProjects, models.EntityTasks, models.EntityComments},
	models.EntityTasks:    {models.EntityTasks, models.EntityProjects, models.EntityComments},
	models.EntityTags:     {models.EntityTags, models.EntityTasks},
	models.EntityComments: {models.EntityComments},
}

// Option configures the repositories.
type Option func(*deps)

// WithCache serves reads through c. Without it every read hits the store.
func WithCache(c *cache.Cache) Option {
	return func(d *deps) { d.cache = c }
}

// WithMonitor times every operation with m.
func WithMonitor(m *perf.Monitor) Option {
	return func(d *deps) { d.monitor = m }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *deps) { d.logger = l }
}

// WithCompensateOrphans makes task creation delete the new task when
// attaching its tags fails.
func WithCompensateOrphans(enabled bool) Option {
	return func(d *deps) { d.compensateOrphans = enabled }
}

// deps is shared by every entity repository.
type deps struct {
	store             Store
	identity          Identity
	cache             *cache.Cache
	monitor           *perf.Monitor
	logger            *logging.Logger
	compensateOrphans bool
}

// owner resolves the session user and tags ctx with it for logging.
func (d *deps) owner(ctx context.Context) (context.Context, string, error) {
	id, err := d.identity.UserID()
	if err != nil {
		return ctx, "", err
	}
	if id == "" {
		return ctx, "", apperr.ErrUnauthenticated
	}
	return logging.WithUserID(ctx, id), id, nil
}

// invalidate marks the cached reads depending on entity stale.
func (d *deps) invalidate(ctx context.Context, entity string) {
	if d.cache == nil {
		return
	}
	keys := d.cache.Invalidate(Invalidates[entity]...)
	d.logger.Debug(ctx, "invalidated cached reads",
		zap.String("entity", entity),
		zap.Int("keys", len(keys)),
	)
}

// Repositories groups the entity repositories over one store and session.
type Repositories struct {
	Projects *Projects
	Tasks    *Tasks
	Tags     *Tags
	Comments *Comments
}

// New builds the repositories.
func New(store Store, identity Identity, opts ...Option) *Repositories {
	d := &deps{store: store, identity: identity}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.NewNop()
	}
	d.logger = d.logger.Named("repository")

	return &Repositories{
		Projects: &Projects{deps: d},
		Tasks:    &Tasks{deps: d, links: NewTagLinker(store)},
		Tags:     &Tags{deps: d},
		Comments: &Comments{deps: d},
	}
}

// notFound maps a store miss to NotFoundError and anything else to
// RemoteError.
func notFound(entity, op, id string, err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperr.NotFound(entity, id)
	}
	return apperr.Remote(entity, op, err)
}

// missingOnDelete reports a delete that touched no row as a RemoteError so
// it is never mistaken for success.
func missingOnDelete(entity, id string, err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperr.Remote(entity, perf.OpDelete, fmt.Errorf("%s: %w", id, err))
	}
	return apperr.Remote(entity, perf.OpDelete, err)
}

// classifyRef maps a dangling reference to a ValidationError on field and
// anything else to RemoteError.
func classifyRef(entity, op, field string, err error) error {
	if errors.Is(err, db.ErrInvalidReference) {
		return &apperr.ValidationError{Entity: entity, Field: field, Reason: "does not reference an existing record"}
	}
	return apperr.Remote(entity, op, err)
}
