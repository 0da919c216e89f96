package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tgienger/taskhub/internal/models"
)

// TaskQuery is the remote part of a task read: equality predicates on status
// and project plus a case-insensitive title substring. Empty fields are not
// applied.
type TaskQuery struct {
	OwnerID   string
	Status    models.TaskStatus
	ProjectID string
	Search    string
}

const taskColumns = `
	t.id, t.user_id, t.project_id, t.title, t.description, t.status, t.priority,
	t.due_date, t.created_at, p.name`

func scanTask(s scanner) (*models.Task, error) {
	t := &models.Task{}
	var due sql.NullTime
	err := s.Scan(&t.ID, &t.OwnerID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&due, &t.CreatedAt, &t.ProjectName)
	if err != nil {
		return nil, err
	}
	t.DueDate = timePtr(due)
	return t, nil
}

// CreateTask creates a new task in a project owned by ownerID
func (db *DB) CreateTask(ctx context.Context, ownerID string, in models.NewTask) (*models.Task, error) {
	id := uuid.NewString()
	result, err := db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, project_id, title, description, status, priority, due_date, created_at)
		SELECT ?, ?, p.id, ?, ?, ?, ?, ?, ?
		FROM projects p WHERE p.id = ? AND p.user_id = ?
	`, id, ownerID, in.Title, in.Description, in.Status, in.Priority, nullTime(in.DueDate), db.now(),
		in.ProjectID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("project %s: %w", in.ProjectID, ErrInvalidReference)
	}

	return db.GetTask(ctx, ownerID, id)
}

// GetTask retrieves a task by ID with its tags
func (db *DB) GetTask(ctx context.Context, ownerID, id string) (*models.Task, error) {
	t, err := scanTask(db.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks t JOIN projects p ON p.id = t.project_id
		WHERE t.id = ? AND t.user_id = ?
	`, id, ownerID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	tags, err := db.GetTaskTags(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Tags = tags

	return t, nil
}

// ListTasks returns the owner's tasks matching q, newest first, with project
// names and tags expanded
func (db *DB) ListTasks(ctx context.Context, q TaskQuery) ([]models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks t JOIN projects p ON p.id = t.project_id
		WHERE t.user_id = ?`
	args := []any{q.OwnerID}

	if q.Status != "" {
		query += " AND t.status = ?"
		args = append(args, q.Status)
	}

	if q.ProjectID != "" {
		query += " AND t.project_id = ?"
		args = append(args, q.ProjectID)
	}

	if q.Search != "" {
		// LIKE folds ASCII only; fold() is Unicode-aware and has no wildcards
		query += " AND instr(fold(t.title), fold(?)) > 0"
		args = append(args, q.Search)
	}

	query += " ORDER BY t.created_at DESC, t.rowid DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(tasks) == 0 {
		return tasks, nil
	}

	// Load tags for every owned task in one query
	byTask, err := db.ownerTaskTags(ctx, q.OwnerID)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Tags = byTask[tasks[i].ID]
	}

	return tasks, nil
}

// UpdateTask applies the non-nil row fields of patch; TagIDs is ignored here
func (db *DB) UpdateTask(ctx context.Context, ownerID, id string, patch models.TaskPatch) (*models.Task, error) {
	var u update
	if patch.ProjectID != nil {
		if err := db.checkOwned(ctx, "projects", *patch.ProjectID, ownerID); err != nil {
			return nil, fmt.Errorf("project %s: %w", *patch.ProjectID, err)
		}
		u.set("project_id", *patch.ProjectID)
	}
	if patch.Title != nil {
		u.set("title", *patch.Title)
	}
	if patch.Description != nil {
		u.set("description", *patch.Description)
	}
	if patch.Status != nil {
		u.set("status", *patch.Status)
	}
	if patch.Priority != nil {
		u.set("priority", *patch.Priority)
	}
	if patch.ClearDueDate {
		u.set("due_date", nil)
	} else if patch.DueDate != nil {
		u.set("due_date", nullTime(patch.DueDate))
	}

	if !u.empty() {
		args := append(u.args, id, ownerID)
		err := db.execOne(ctx, `UPDATE tasks SET `+u.clause()+` WHERE id = ? AND user_id = ?`, args...)
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
	}

	return db.GetTask(ctx, ownerID, id)
}

// DeleteTask deletes a task; its comments and tag links cascade
func (db *DB) DeleteTask(ctx context.Context, ownerID, id string) error {
	err := db.execOne(ctx, "DELETE FROM tasks WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return err
}

// GetTaskTags returns all tags for a task
func (db *DB) GetTaskTags(ctx context.Context, taskID string) ([]models.Tag, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT g.id, g.user_id, g.name, g.color, g.created_at
		FROM tags g
		JOIN task_tags tt ON g.id = tt.tag_id
		WHERE tt.task_id = ?
		ORDER BY g.name
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var g models.Tag
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Name, &g.Color, &g.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, g)
	}
	return tags, rows.Err()
}

func (db *DB) ownerTaskTags(ctx context.Context, ownerID string) (map[string][]models.Tag, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT tt.task_id, g.id, g.user_id, g.name, g.color, g.created_at
		FROM task_tags tt
		JOIN tags g ON g.id = tt.tag_id
		JOIN tasks t ON t.id = tt.task_id
		WHERE t.user_id = ?
		ORDER BY g.name
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task tags: %w", err)
	}
	defer rows.Close()

	byTask := make(map[string][]models.Tag)
	for rows.Next() {
		var taskID string
		var g models.Tag
		if err := rows.Scan(&taskID, &g.ID, &g.OwnerID, &g.Name, &g.Color, &g.CreatedAt); err != nil {
			return nil, err
		}
		byTask[taskID] = append(byTask[taskID], g)
	}
	return byTask, rows.Err()
}

// AddTaskTags inserts one join row per tag in a single transaction. The task
// and every tag must belong to ownerID.
func (db *DB) AddTaskTags(ctx context.Context, ownerID, taskID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM tasks WHERE id = ? AND user_id = ?", taskID, ownerID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check task: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO task_tags (task_id, tag_id)
		SELECT ?, g.id FROM tags g WHERE g.id = ? AND g.user_id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare tag insert: %w", err)
	}
	defer stmt.Close()

	for _, tagID := range tagIDs {
		result, err := stmt.ExecContext(ctx, taskID, tagID, ownerID)
		if err != nil {
			return fmt.Errorf("failed to add tag %s: %w", tagID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to add tag %s: %w", tagID, err)
		}
		if n == 0 {
			return fmt.Errorf("tag %s: %w", tagID, ErrInvalidReference)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tags: %w", err)
	}
	return nil
}

// ClearTaskTags removes every tag from a task owned by ownerID
func (db *DB) ClearTaskTags(ctx context.Context, ownerID, taskID string) error {
	_, err := db.ExecContext(ctx, `
		DELETE FROM task_tags
		WHERE task_id IN (SELECT id FROM tasks WHERE id = ? AND user_id = ?)
	`, taskID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to clear task tags: %w", err)
	}
	return nil
}

// checkOwned verifies that id names a row of table owned by ownerID.
func (db *DB) checkOwned(ctx context.Context, table, id, ownerID string) error {
	var exists int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ? AND user_id = ?", id, ownerID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrInvalidReference
	}
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", table, err)
	}
	return nil
}
