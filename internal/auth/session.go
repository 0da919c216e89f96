// Package auth tracks the signed-in profile.
//
// A Session stands in for a hosted auth service: it signs a profile in by
// e-mail, persists the session across restarts in the settings table, and
// answers "who is the current user" for the repositories.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/tgienger/taskhub/internal/apperr"
	"github.com/tgienger/taskhub/internal/db"
	"github.com/tgienger/taskhub/internal/logging"
	"github.com/tgienger/taskhub/internal/models"
)

// SessionKey is the settings key holding the signed-in user id.
const SessionKey = "session.user_id"

const entityUsers = "users"

// Store is the subset of the database the session needs.
type Store interface {
	CreateUser(ctx context.Context, email, displayName string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, displayName, avatarURL *string) (*models.User, error)
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// Session holds the current user.
type Session struct {
	store  Store
	logger *logging.Logger

	mu   sync.RWMutex
	user *models.User
}

// NewSession creates a signed-out session. A nil logger discards output.
func NewSession(store Store, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{store: store, logger: logger.Named("auth")}
}

// SignIn finds the profile for email, creating it on first use, and makes it
// the current user. name is only used when the profile is created; an empty
// name falls back to the local part of the address.
func (s *Session) SignIn(ctx context.Context, email, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Required(entityUsers, "email")
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return nil, apperr.Invalid(entityUsers, "email", email)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		name = strings.TrimSpace(name)
		if name == "" {
			name = email[:at]
		}
		user, err = s.store.CreateUser(ctx, email, name)
		if err == nil {
			s.logger.Info(ctx, "profile created", zap.String("user.id", user.ID))
		}
	}
	if err != nil {
		return nil, apperr.Remote(entityUsers, "sign_in", err)
	}

	if err := s.store.SetSetting(ctx, SessionKey, user.ID); err != nil {
		return nil, apperr.Remote(entityUsers, "sign_in", err)
	}

	s.setUser(user)
	s.logger.Info(logging.WithUserID(ctx, user.ID), "signed in")
	return user, nil
}

// Restore reloads the persisted session. It reports false when no session
// was stored or the stored profile no longer exists.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	id, err := s.store.GetSetting(ctx, SessionKey)
	if err != nil {
		return false, apperr.Remote(entityUsers, "restore", err)
	}
	if id == "" {
		return false, nil
	}

	user, err := s.store.GetUser(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		s.logger.Warn(ctx, "stored session refers to a missing profile", zap.String("user.id", id))
		if err := s.store.DeleteSetting(ctx, SessionKey); err != nil {
			return false, apperr.Remote(entityUsers, "restore", err)
		}
		return false, nil
	}
	if err != nil {
		return false, apperr.Remote(entityUsers, "restore", err)
	}

	s.setUser(user)
	return true, nil
}

// SignOut clears the current user and the persisted session.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	prev := s.user
	s.user = nil
	s.mu.Unlock()

	if err := s.store.DeleteSetting(ctx, SessionKey); err != nil {
		return apperr.Remote(entityUsers, "sign_out", err)
	}
	if prev != nil {
		s.logger.Info(logging.WithUserID(ctx, prev.ID), "signed out")
	}
	return nil
}

// CurrentUser returns a copy of the signed-in profile, or nil.
func (s *Session) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// UserID returns the signed-in user's id or apperr.ErrUnauthenticated.
func (s *Session) UserID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return "", apperr.ErrUnauthenticated
	}
	return s.user.ID, nil
}

// UpdateProfile changes the display name and/or avatar reference of the
// current user. Nil arguments are left untouched.
func (s *Session) UpdateProfile(ctx context.Context, displayName, avatarURL *string) (*models.User, error) {
	id, err := s.UserID()
	if err != nil {
		return nil, err
	}

	if displayName != nil {
		trimmed := strings.TrimSpace(*displayName)
		if trimmed == "" {
			return nil, apperr.Required(entityUsers, "display_name")
		}
		displayName = &trimmed
	}
	if avatarURL != nil {
		trimmed := strings.TrimSpace(*avatarURL)
		avatarURL = &trimmed
	}

	user, err := s.store.UpdateUser(ctx, id, displayName, avatarURL)
	if err != nil {
		return nil, apperr.Remote(entityUsers, "update", err)
	}

	s.setUser(user)
	return user, nil
}

func (s *Session) setUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}
