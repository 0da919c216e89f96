package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tgienger/taskhub/internal/models"
)

const tagColumns = `id, user_id, name, color, created_at`

// CreateTag creates a new tag
func (db *DB) CreateTag(ctx context.Context, ownerID string, in models.NewTag) (*models.Tag, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `
		INSERT INTO tags (id, user_id, name, color, created_at) VALUES (?, ?, ?, ?, ?)
	`, id, ownerID, in.Name, in.Color, db.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	return db.GetTag(ctx, ownerID, id)
}

// GetTag retrieves a tag by ID
func (db *DB) GetTag(ctx context.Context, ownerID, id string) (*models.Tag, error) {
	t := &models.Tag{}
	err := db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = ? AND user_id = ?`, id, ownerID).
		Scan(&t.ID, &t.OwnerID, &t.Name, &t.Color, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return t, nil
}

// ListTags returns all tags of an owner ordered by name
func (db *DB) ListTags(ctx context.Context, ownerID string) ([]models.Tag, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+tagColumns+`
		FROM tags WHERE user_id = ?
		ORDER BY name, rowid
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// UpdateTag applies the non-nil fields of patch
func (db *DB) UpdateTag(ctx context.Context, ownerID, id string, patch models.TagPatch) (*models.Tag, error) {
	var u update
	if patch.Name != nil {
		u.set("name", *patch.Name)
	}
	if patch.Color != nil {
		u.set("color", *patch.Color)
	}

	if !u.empty() {
		args := append(u.args, id, ownerID)
		err := db.execOne(ctx, `UPDATE tags SET `+u.clause()+` WHERE id = ? AND user_id = ?`, args...)
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update tag: %w", err)
		}
	}

	return db.GetTag(ctx, ownerID, id)
}

// DeleteTag deletes a tag and its task links
func (db *DB) DeleteTag(ctx context.Context, ownerID, id string) error {
	err := db.execOne(ctx, "DELETE FROM tags WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	return err
}
