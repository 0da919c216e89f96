// Package filter turns UI filter state into store queries and post-filters.
//
// Status, project and title search are pushed down to the store. Tag
// membership is applied afterwards to the fetched set, keeping the store
// query free of a join on task_tags.
package filter

import (
	"slices"
	"strings"

	"github.com/tgienger/taskhub/internal/apperr"
	"github.com/tgienger/taskhub/internal/db"
	"github.com/tgienger/taskhub/internal/models"
)

// All is the sentinel meaning "no predicate" for Status and ProjectID.
const All = "all"

// Tasks is the filter state of the task dashboard.
type Tasks struct {
	Status    string // task status, All or empty
	ProjectID string // project id, All or empty
	Search    string // case-insensitive title substring
	TagIDs    []string
}

func isAll(v string) bool {
	return v == "" || v == All
}

// Validate rejects a status outside the task status set.
func (f Tasks) Validate() error {
	if !isAll(f.Status) && !models.TaskStatus(f.Status).IsValid() {
		return apperr.Invalid(models.EntityTasks, "status", f.Status)
	}
	return nil
}

// Query builds the store query for ownerID. Tag ids are not part of it;
// apply ByTags to the result.
func (f Tasks) Query(ownerID string) (db.TaskQuery, error) {
	if err := f.Validate(); err != nil {
		return db.TaskQuery{}, err
	}

	q := db.TaskQuery{OwnerID: ownerID}
	if !isAll(f.Status) {
		q.Status = models.TaskStatus(f.Status)
	}
	if !isAll(f.ProjectID) {
		q.ProjectID = f.ProjectID
	}
	q.Search = strings.TrimSpace(f.Search)
	return q, nil
}

// Descriptor renders the store-side predicates as a canonical string for
// cache keys. Filters that produce the same query share a descriptor.
func (f Tasks) Descriptor() string {
	var parts []string
	if !isAll(f.Status) {
		parts = append(parts, "status="+f.Status)
	}
	if !isAll(f.ProjectID) {
		parts = append(parts, "project="+f.ProjectID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		parts = append(parts, "search="+db.Fold(s))
	}
	return strings.Join(parts, "&")
}

// IsEmpty reports whether the filter selects every task.
func (f Tasks) IsEmpty() bool {
	return f.Descriptor() == "" && len(f.TagIDs) == 0
}

// Apply runs ByTags with the filter's tag ids.
func (f Tasks) Apply(tasks []models.Task) []models.Task {
	return ByTags(tasks, f.TagIDs)
}

// ByTags keeps tasks carrying at least one of tagIDs, in their original
// order. An empty tagIDs returns tasks unchanged. The input is never
// modified.
func ByTags(tasks []models.Task, tagIDs []string) []models.Task {
	if len(tagIDs) == 0 {
		return tasks
	}

	set := make(map[string]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		set[id] = struct{}{}
	}

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.HasAnyTag(set) {
			out = append(out, t)
		}
	}
	return out
}

// ToggleTag adds id to the filter's tag set, or removes it if present.
func (f Tasks) ToggleTag(id string) Tasks {
	if i := slices.Index(f.TagIDs, id); i >= 0 {
		f.TagIDs = slices.Delete(slices.Clone(f.TagIDs), i, i+1)
		return f
	}
	f.TagIDs = append(slices.Clone(f.TagIDs), id)
	return f
}

// Projects is the filter state of the projects screen.
type Projects struct {
	Status string // project status, All or empty
	Search string // case-insensitive name substring
}

// Validate rejects a status outside the project status set.
func (f Projects) Validate() error {
	if !isAll(f.Status) && !models.ProjectStatus(f.Status).IsValid() {
		return apperr.Invalid(models.EntityProjects, "status", f.Status)
	}
	return nil
}

// Apply keeps matching projects in order. The input is never modified.
func (f Projects) Apply(projects []models.Project) []models.Project {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	if isAll(f.Status) && search == "" {
		return projects
	}

	out := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if !isAll(f.Status) && string(p.Status) != f.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}
