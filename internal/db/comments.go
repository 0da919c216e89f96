package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tgienger/taskhub/internal/models"
)

const commentColumns = `
	c.id, c.task_id, c.user_id, c.content, c.created_at,
	COALESCE(u.display_name, ''), COALESCE(u.email, '')`

func scanComment(s scanner) (*models.Comment, error) {
	c := &models.Comment{}
	err := s.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.AuthorName, &c.AuthorEmail)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateComment creates a new comment on a task visible to authorID
func (db *DB) CreateComment(ctx context.Context, authorID string, in models.NewComment) (*models.Comment, error) {
	if err := db.checkOwned(ctx, "tasks", in.TaskID, authorID); err != nil {
		return nil, fmt.Errorf("task %s: %w", in.TaskID, err)
	}

	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `
		INSERT INTO comments (id, task_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)
	`, id, in.TaskID, authorID, in.Content, db.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return db.GetComment(ctx, id)
}

// GetComment retrieves a comment by ID with its author expanded
func (db *DB) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	c, err := scanComment(db.QueryRowContext(ctx, `
		SELECT `+commentColumns+`
		FROM comments c LEFT JOIN users u ON u.id = c.user_id
		WHERE c.id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

// ListComments retrieves all comments for a task, ordered by creation time (oldest first)
func (db *DB) ListComments(ctx context.Context, ownerID, taskID string) ([]models.Comment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+commentColumns+`
		FROM comments c
		JOIN tasks t ON t.id = c.task_id
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.task_id = ? AND t.user_id = ?
		ORDER BY c.created_at ASC, c.rowid ASC
	`, taskID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// DeleteComment deletes a comment written by authorID
func (db *DB) DeleteComment(ctx context.Context, authorID, id string) error {
	err := db.execOne(ctx, "DELETE FROM comments WHERE id = ? AND user_id = ?", id, authorID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return err
}
