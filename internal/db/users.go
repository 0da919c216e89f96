package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tgienger/taskhub/internal/models"
)

const userColumns = `id, email, display_name, avatar_url, created_at`

// CreateUser creates a new profile
func (db *DB) CreateUser(ctx context.Context, email, displayName string) (*models.User, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, created_at) VALUES (?, ?, ?, ?)
	`, id, strings.ToLower(email), displayName, db.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return db.GetUser(ctx, id)
}

// GetUser retrieves a profile by ID
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail retrieves a profile by email (case-insensitive)
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
}

func (db *DB) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	u := &models.User{}
	err := db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.AvatarURL, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpdateUser updates the profile fields that are non-nil
func (db *DB) UpdateUser(ctx context.Context, id string, displayName, avatarURL *string) (*models.User, error) {
	var u update
	if displayName != nil {
		u.set("display_name", *displayName)
	}
	if avatarURL != nil {
		u.set("avatar_url", *avatarURL)
	}
	if !u.empty() {
		args := append(u.args, id)
		if err := db.execOne(ctx, `UPDATE users SET `+u.clause()+` WHERE id = ?`, args...); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}
	return db.GetUser(ctx, id)
}
