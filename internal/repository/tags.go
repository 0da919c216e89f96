package repository

import (
	"context"
	"regexp"
	"strings"

	"github.com/tgienger/taskhub/internal/apperr"
	"github.com/tgienger/taskhub/internal/cache"
	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/perf"
)

const entityTags = models.EntityTags

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Tags reads and writes the current user's tags.
type Tags struct {
	*deps
}

// List returns the user's tags ordered by name.
func (r *Tags) List(ctx context.Context) ([]models.Tag, error) {
	return perf.Measure(ctx, r.monitor, entityTags, perf.OpRead, func(ctx context.Context) ([]models.Tag, error) {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return nil, err
		}
		key := cache.Key{Entity: entityTags, OwnerID: owner}
		tags, err := cache.FetchSlice(ctx, r.cache, key, func(ctx context.Context) ([]models.Tag, error) {
			return r.store.ListTags(ctx, owner)
		})
		if err != nil {
			return nil, apperr.Remote(entityTags, perf.OpRead, err)
		}
		return tags, nil
	})
}

func validColor(color string) error {
	if !hexColor.MatchString(color) {
		return apperr.Invalid(entityTags, "color", color)
	}
	return nil
}

// Create validates in and inserts a tag. An empty color gets the default.
func (r *Tags) Create(ctx context.Context, in models.NewTag) (*models.Tag, error) {
	return perf.Measure(ctx, r.monitor, entityTags, perf.OpCreate, func(ctx context.Context) (*models.Tag, error) {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return nil, err
		}

		in.Name = strings.TrimSpace(in.Name)
		in.Color = strings.TrimSpace(in.Color)
		if in.Name == "" {
			return nil, apperr.Required(entityTags, "name")
		}
		if in.Color == "" {
			in.Color = models.DefaultTagColor
		}
		if err := validColor(in.Color); err != nil {
			return nil, err
		}

		tag, err := r.store.CreateTag(ctx, owner, in)
		if err != nil {
			return nil, apperr.Remote(entityTags, perf.OpCreate, err)
		}
		r.invalidate(ctx, entityTags)
		return tag, nil
	})
}

// Update applies the provided fields of patch. Renames and recolors reach
// every task carrying the tag, so task reads are invalidated too.
func (r *Tags) Update(ctx context.Context, id string, patch models.TagPatch) (*models.Tag, error) {
	return perf.Measure(ctx, r.monitor, entityTags, perf.OpUpdate, func(ctx context.Context) (*models.Tag, error) {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return nil, err
		}

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return nil, apperr.Required(entityTags, "name")
			}
			patch.Name = &name
		}
		if patch.Color != nil {
			color := strings.TrimSpace(*patch.Color)
			if err := validColor(color); err != nil {
				return nil, err
			}
			patch.Color = &color
		}

		tag, err := r.store.UpdateTag(ctx, owner, id, patch)
		if err != nil {
			return nil, notFound(entityTags, perf.OpUpdate, id, err)
		}
		if !patch.IsEmpty() {
			r.invalidate(ctx, entityTags)
		}
		return tag, nil
	})
}

// Delete removes a tag and its task links.
func (r *Tags) Delete(ctx context.Context, id string) error {
	return perf.Exec(ctx, r.monitor, entityTags, perf.OpDelete, func(ctx context.Context) error {
		ctx, owner, err := r.owner(ctx)
		if err != nil {
			return err
		}
		if err := r.store.DeleteTag(ctx, owner, id); err != nil {
			return missingOnDelete(entityTags, id, err)
		}
		r.invalidate(ctx, entityTags)
		return nil
	})
}
