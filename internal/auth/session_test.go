package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/tgienger/taskhub/internal/apperr"
	"github.com/tgienger/taskhub/internal/db"
	"github.com/tgienger/taskhub/internal/logging"
	"github.com/tgienger/taskhub/internal/models"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestSignIn_CreatesThenFinds(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)
	logger := logging.NewTestLogger()
	s := NewSession(store, logger.Logger)

	_, err := s.UserID()
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	first, err := s.SignIn(ctx, "  Ada@Example.com ", "")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", first.Email)
	assert.Equal(t, "ada", first.DisplayName)
	logger.AssertLogged(t, zapcore.InfoLevel, "profile created")

	second, err := NewSession(store, nil).SignIn(ctx, "ada@example.com", "Someone Else")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "ada", second.DisplayName)

	id, err := s.UserID()
	require.NoError(t, err)
	assert.Equal(t, first.ID, id)
}

func TestSignIn_Validation(t *testing.T) {
	s := NewSession(setupTestDB(t), nil)

	for _, email := range []string{"", "   ", "nobody", "@example.com", "ada@"} {
		_, err := s.SignIn(context.Background(), email, "Ada")
		assert.ErrorIs(t, err, apperr.ErrValidation, "email %q", email)
	}
	assert.Nil(t, s.CurrentUser())
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)

	restored, err := NewSession(store, nil).Restore(ctx)
	require.NoError(t, err)
	assert.False(t, restored)

	user, err := NewSession(store, nil).SignIn(ctx, "ada@example.com", "Ada")
	require.NoError(t, err)

	s := NewSession(store, nil)
	restored, err = s.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, user.ID, s.CurrentUser().ID)

	require.NoError(t, s.SignOut(ctx))
	_, err = s.UserID()
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	restored, err = NewSession(store, nil).Restore(ctx)
	require.NoError(t, err)
	assert.False(t, restored)
}

func TestRestore_MissingProfile(t *testing.T) {
	ctx := context.Background()
	store := setupTestDB(t)
	require.NoError(t, store.SetSetting(ctx, SessionKey, "gone"))

	logger := logging.NewTestLogger()
	restored, err := NewSession(store, logger.Logger).Restore(ctx)
	require.NoError(t, err)
	assert.False(t, restored)
	logger.AssertLogged(t, zapcore.WarnLevel, "missing profile")

	value, err := store.GetSetting(ctx, SessionKey)
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	s := NewSession(setupTestDB(t), nil)

	_, err := s.UpdateProfile(ctx, models.Ptr("Ada"), nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = s.SignIn(ctx, "ada@example.com", "Ada")
	require.NoError(t, err)

	user, err := s.UpdateProfile(ctx, models.Ptr(" Ada Lovelace "), models.Ptr("avatars/ada.png"))
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.DisplayName)
	assert.Equal(t, "avatars/ada.png", user.AvatarURL)
	assert.Equal(t, "Ada Lovelace", s.CurrentUser().DisplayName)

	_, err = s.UpdateProfile(ctx, models.Ptr("  "), nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

type failingStore struct {
	Store
}

func (failingStore) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, errors.New("connection refused")
}

func TestSignIn_RemoteFailure(t *testing.T) {
	s := NewSession(failingStore{Store: setupTestDB(t)}, nil)

	_, err := s.SignIn(context.Background(), "ada@example.com", "Ada")
	assert.ErrorIs(t, err, apperr.ErrRemote)
	assert.Equal(t, apperr.KindRemote, apperr.KindOf(err))
}
