package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatus_IsValid(t *testing.T) {
	tests := []struct {
		status TaskStatus
		valid  bool
	}{
		{TaskPending, true},
		{TaskInProgress, true},
		{TaskCompleted, true},
		{TaskStatus(""), false},
		{TaskStatus("all"), false},
		{TaskStatus("Pending"), false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.status.IsValid())
		})
	}
}

func TestProjectStatus_IsValid(t *testing.T) {
	for _, s := range ProjectStatuses {
		assert.True(t, s.IsValid(), s)
	}
	// The static mock variant's statuses are not part of the data model.
	assert.False(t, ProjectStatus("planning").IsValid())
	assert.False(t, ProjectStatus("paused").IsValid())
}

func TestPriority_IsValid(t *testing.T) {
	for _, p := range Priorities {
		assert.True(t, p.IsValid(), p)
	}
	assert.False(t, Priority("urgent").IsValid())
}

func TestTaskStatus_Next(t *testing.T) {
	assert.Equal(t, TaskInProgress, TaskPending.Next())
	assert.Equal(t, TaskCompleted, TaskInProgress.Next())
	assert.Equal(t, TaskPending, TaskCompleted.Next())
}

func TestTask_HasAnyTag(t *testing.T) {
	task := Task{Tags: []Tag{{ID: "a"}, {ID: "b"}}}

	assert.True(t, task.HasAnyTag(map[string]struct{}{"b": {}}))
	assert.False(t, task.HasAnyTag(map[string]struct{}{"c": {}}))
	assert.False(t, task.HasAnyTag(nil))
	assert.Equal(t, []string{"a", "b"}, task.TagIDs())
}

func TestTagSet(t *testing.T) {
	empty := TagSet()
	if assert.NotNil(t, empty) {
		assert.Empty(t, *empty)
	}

	ids := TagSet("x", "y")
	assert.Equal(t, []string{"x", "y"}, *ids)
}

func TestPatches_Empty(t *testing.T) {
	assert.True(t, ProjectPatch{}.IsEmpty())
	assert.False(t, ProjectPatch{ClearDueDate: true}.IsEmpty())
	assert.True(t, TagPatch{}.IsEmpty())
	assert.False(t, TagPatch{Color: Ptr("#fff")}.IsEmpty())

	assert.False(t, TaskPatch{}.HasFieldChanges())
	assert.False(t, TaskPatch{TagIDs: TagSet()}.HasFieldChanges())
	assert.True(t, TaskPatch{Title: Ptr("t")}.HasFieldChanges())
}

func TestUser_Name(t *testing.T) {
	assert.Equal(t, "Ada", User{DisplayName: "Ada", Email: "ada@example.com"}.Name())
	assert.Equal(t, "ada@example.com", User{Email: "ada@example.com"}.Name())
}
