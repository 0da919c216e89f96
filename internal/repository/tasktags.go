package repository

import (
	"context"
	"fmt"
)

const (
	linkAttach  = "attach"
	linkReplace = "replace"
)

// LinkStore is the part of the store that manages task/tag joins.
type LinkStore interface {
	AddTaskTags(ctx context.Context, ownerID, taskID string, tagIDs []string) error
	ClearTaskTags(ctx context.Context, ownerID, taskID string) error
}

// TagLinker maintains the tag set of a task.
//
// Linking happens after the task row is written and is not part of the same
// transaction. Replace deletes and re-inserts without locking, so two
// concurrent replaces on one task can interleave.
type TagLinker struct {
	store LinkStore
}

// NewTagLinker creates a linker over store.
func NewTagLinker(store LinkStore) *TagLinker {
	return &TagLinker{store: store}
}

// Attach links each distinct tag in tagIDs to the task.
func (l *TagLinker) Attach(ctx context.Context, ownerID, taskID string, tagIDs []string) error {
	return l.store.AddTaskTags(ctx, ownerID, taskID, dedupe(tagIDs))
}

// Replace makes tagIDs the complete tag set of the task. An empty tagIDs
// removes every tag.
func (l *TagLinker) Replace(ctx context.Context, ownerID, taskID string, tagIDs []string) error {
	if err := l.store.ClearTaskTags(ctx, ownerID, taskID); err != nil {
		return err
	}
	return l.Attach(ctx, ownerID, taskID, tagIDs)
}

// dedupe drops empty and repeated ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// TagLinkError reports a task whose row was written but whose tag links
// were not. Err is the classified cause (a RemoteError, or a
// ValidationError for an unknown tag).
type TagLinkError struct {
	TaskID string
	Op     string // "attach" or "replace"
	// RolledBack is set when the orphaned task was deleted again.
	RolledBack bool
	Err        error
}

func (e *TagLinkError) Error() string {
	var state string
	switch {
	case e.RolledBack:
		state = "task removed"
	case e.Op == linkReplace:
		state = "tag set may be incomplete"
	default:
		state = "task kept without tags"
	}
	return fmt.Sprintf("tasks %s tags for %s (%s): %v", e.Op, e.TaskID, state, e.Err)
}

func (e *TagLinkError) Unwrap() error { return e.Err }
