package models

import "time"

// Entity names double as cache key prefixes and instrumentation labels.
const (
	EntityProjects = "projects"
	EntityTasks    = "tasks"
	EntityTags     = "tags"
	EntityComments = "comments"
)

// User represents an authenticated profile
type User struct {
	ID          string
	Email       string
	DisplayName string
	AvatarURL   string
	CreatedAt   time.Time
}

// Name returns the display name, falling back to the email address
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Project represents a task management project
type Project struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Status      ProjectStatus
	DueDate     *time.Time
	CreatedAt   time.Time
	TaskCount   int // populated by list queries
}

// Tag represents a tag that can be applied to tasks
type Tag struct {
	ID        string
	OwnerID   string
	Name      string
	Color     string
	CreatedAt time.Time
}

// TaskTag is a row of the task/tag join table
type TaskTag struct {
	TaskID string
	TagID  string
}

// Comment represents a comment on a task
type Comment struct {
	ID          string
	TaskID      string
	AuthorID    string
	Content     string
	CreatedAt   time.Time
	AuthorName  string // expanded from the author's profile
	AuthorEmail string
}

// Task represents a single task
type Task struct {
	ID          string
	OwnerID     string
	ProjectID   string
	Title       string
	Description string
	Status      TaskStatus
	Priority    Priority
	DueDate     *time.Time
	CreatedAt   time.Time
	ProjectName string // expanded from the owning project
	Tags        []Tag  // populated when loading tasks
}

// HasAnyTag reports whether the task carries at least one of the given tag IDs.
func (t Task) HasAnyTag(ids map[string]struct{}) bool {
	for _, tag := range t.Tags {
		if _, ok := ids[tag.ID]; ok {
			return true
		}
	}
	return false
}

// TagIDs returns the IDs of the joined tags in load order.
func (t Task) TagIDs() []string {
	ids := make([]string, len(t.Tags))
	for i, tag := range t.Tags {
		ids[i] = tag.ID
	}
	return ids
}
