package models

import "time"

// Defaults applied when a create input leaves a field empty.
const (
	DefaultProjectStatus = ProjectActive
	DefaultTaskStatus    = TaskPending
	DefaultPriority      = PriorityMedium
	DefaultTagColor      = "#3b82f6"
)

// NewProject holds the fields accepted when creating a project
type NewProject struct {
	Name        string
	Description string
	Status      ProjectStatus
	DueDate     *time.Time
}

// ProjectPatch is a partial update; nil fields are left unchanged.
type ProjectPatch struct {
	Name         *string
	Description  *string
	Status       *ProjectStatus
	DueDate      *time.Time
	ClearDueDate bool
}

// IsEmpty reports whether the patch changes nothing.
func (p ProjectPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil && p.DueDate == nil && !p.ClearDueDate
}

// NewTask holds the fields accepted when creating a task
type NewTask struct {
	ProjectID   string
	Title       string
	Description string
	Status      TaskStatus
	Priority    Priority
	DueDate     *time.Time
	TagIDs      []string
}

// TaskPatch is a partial update; nil fields are left unchanged.
//
// TagIDs distinguishes "not provided" (nil) from "clear all tags" (pointer
// to an empty slice). When provided, the task's tag set is fully replaced.
type TaskPatch struct {
	ProjectID    *string
	Title        *string
	Description  *string
	Status       *TaskStatus
	Priority     *Priority
	DueDate      *time.Time
	ClearDueDate bool
	TagIDs       *[]string
}

// HasFieldChanges reports whether the patch touches the task row itself.
func (p TaskPatch) HasFieldChanges() bool {
	return p.ProjectID != nil || p.Title != nil || p.Description != nil || p.Status != nil ||
		p.Priority != nil || p.DueDate != nil || p.ClearDueDate
}

// NewTag holds the fields accepted when creating a tag
type NewTag struct {
	Name  string
	Color string
}

// TagPatch is a partial update; nil fields are left unchanged.
type TagPatch struct {
	Name  *string
	Color *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TagPatch) IsEmpty() bool {
	return p.Name == nil && p.Color == nil
}

// NewComment holds the fields accepted when commenting on a task
type NewComment struct {
	TaskID  string
	Content string
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// TagSet wraps tag IDs for TaskPatch.TagIDs. TagSet() clears all tags.
func TagSet(ids ...string) *[]string {
	if ids == nil {
		ids = []string{}
	}
	return &ids
}
