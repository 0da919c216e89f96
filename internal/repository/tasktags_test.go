package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLinks struct {
	calls []string
	added [][]string
}

func (r *recordingLinks) AddTaskTags(_ context.Context, _, _ string, tagIDs []string) error {
	r.calls = append(r.calls, "add")
	r.added = append(r.added, tagIDs)
	return nil
}

func (r *recordingLinks) ClearTaskTags(context.Context, string, string) error {
	r.calls = append(r.calls, "clear")
	return nil
}

func TestTagLinker_Attach(t *testing.T) {
	store := &recordingLinks{}
	l := NewTagLinker(store)

	require.NoError(t, l.Attach(context.Background(), "u1", "t1", []string{"a", "b", "a", "", "c"}))
	assert.Equal(t, []string{"add"}, store.calls)
	assert.Equal(t, [][]string{{"a", "b", "c"}}, store.added)
}

func TestTagLinker_ReplaceClearsFirst(t *testing.T) {
	store := &recordingLinks{}
	l := NewTagLinker(store)

	require.NoError(t, l.Replace(context.Background(), "u1", "t1", nil))
	require.NoError(t, l.Replace(context.Background(), "u1", "t1", []string{"x"}))
	assert.Equal(t, []string{"clear", "add", "clear", "add"}, store.calls)
	assert.Equal(t, [][]string{nil, {"x"}}, store.added)
}

func TestTagLinkError_Message(t *testing.T) {
	err := &TagLinkError{TaskID: "t1", Op: linkAttach, Err: errInjected}
	assert.Equal(t, "tasks attach tags for t1 (task kept without tags): injected failure", err.Error())

	err.RolledBack = true
	assert.Contains(t, err.Error(), "task removed")
}
