package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tgienger/taskhub/internal/models"
)

const projectColumns = `
	p.id, p.user_id, p.name, p.description, p.status, p.due_date, p.created_at,
	(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id) AS task_count`

func scanProject(s scanner) (*models.Project, error) {
	p := &models.Project{}
	var due sql.NullTime
	if err := s.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Status, &due, &p.CreatedAt, &p.TaskCount); err != nil {
		return nil, err
	}
	p.DueDate = timePtr(due)
	return p, nil
}

// CreateProject creates a new project owned by ownerID
func (db *DB) CreateProject(ctx context.Context, ownerID string, in models.NewProject) (*models.Project, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `
		INSERT INTO projects (id, user_id, name, description, status, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, ownerID, in.Name, in.Description, in.Status, nullTime(in.DueDate), db.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return db.GetProject(ctx, ownerID, id)
}

// GetProject retrieves a project by ID
func (db *DB) GetProject(ctx context.Context, ownerID, id string) (*models.Project, error) {
	p, err := scanProject(db.QueryRowContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects p WHERE p.id = ? AND p.user_id = ?
	`, id, ownerID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListProjects returns all projects of an owner, newest first, with task counts
func (db *DB) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects p
		WHERE p.user_id = ?
		ORDER BY p.created_at DESC, p.rowid DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// UpdateProject applies the non-nil fields of patch
func (db *DB) UpdateProject(ctx context.Context, ownerID, id string, patch models.ProjectPatch) (*models.Project, error) {
	var u update
	if patch.Name != nil {
		u.set("name", *patch.Name)
	}
	if patch.Description != nil {
		u.set("description", *patch.Description)
	}
	if patch.Status != nil {
		u.set("status", *patch.Status)
	}
	if patch.ClearDueDate {
		u.set("due_date", nil)
	} else if patch.DueDate != nil {
		u.set("due_date", nullTime(patch.DueDate))
	}

	if !u.empty() {
		args := append(u.args, id, ownerID)
		err := db.execOne(ctx, `UPDATE projects SET `+u.clause()+` WHERE id = ? AND user_id = ?`, args...)
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update project: %w", err)
		}
	}

	return db.GetProject(ctx, ownerID, id)
}

// DeleteProject deletes a project; tasks, their comments and tag links cascade
func (db *DB) DeleteProject(ctx context.Context, ownerID, id string) error {
	err := db.execOne(ctx, "DELETE FROM projects WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return err
}
