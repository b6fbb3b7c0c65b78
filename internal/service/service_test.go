package service

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/yingshengwanyue/zhouzhou/internal/models"
	"github.com/yingshengwanyue/zhouzhou/internal/repository"
)

var dbSeq atomic.Int64

func setupService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := repository.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.Migrate(db, "sqlite"))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(repository.NewRepository(db, "sqlite"), logger)
}

func TestCreateUser_Validation(t *testing.T) {
	svc := setupService(t)

	_, err := svc.CreateUser(context.Background(), "", "secret")
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CreateUser(context.Background(), "alice", "")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateUser_Duplicate(t *testing.T) {
	svc := setupService(t)

	_, err := svc.CreateUser(context.Background(), "alice", "secret")
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), "alice", "other")
	require.ErrorIs(t, err, models.ErrDuplicateUsername)
}

func TestLogin(t *testing.T) {
	svc := setupService(t)
	id, err := svc.CreateUser(context.Background(), "alice", "secret")
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	require.Equal(t, id, user.ID)
	require.Equal(t, "alice", user.Username)

	_, err = svc.Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)

	// Unknown username reads the same as a wrong password.
	_, err = svc.Login(context.Background(), "mallory", "secret")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestEnsureDefaultUser(t *testing.T) {
	svc := setupService(t)

	require.NoError(t, svc.EnsureDefaultUser(context.Background(), "admin", "admin123"))

	_, err := svc.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	// Second call is a no-op, not a duplicate error.
	require.NoError(t, svc.EnsureDefaultUser(context.Background(), "admin", "admin123"))

	// With users present no further account is provisioned.
	require.NoError(t, svc.EnsureDefaultUser(context.Background(), "other", "pw"))
	_, err = svc.Login(context.Background(), "other", "pw")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestCreateEntry_Validation(t *testing.T) {
	svc := setupService(t)
	id, err := svc.CreateUser(context.Background(), "alice", "secret")
	require.NoError(t, err)

	_, err = svc.CreateEntry(context.Background(), id, "", "content", nil)
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CreateEntry(context.Background(), id, "title", "   ", nil)
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestUpdateAndDeleteEntry_NotFound(t *testing.T) {
	svc := setupService(t)
	id, err := svc.CreateUser(context.Background(), "alice", "secret")
	require.NoError(t, err)

	err = svc.UpdateEntry(context.Background(), id, 42, "title", "content", nil)
	require.ErrorIs(t, err, models.ErrNotFound)

	err = svc.DeleteEntry(context.Background(), id, 42)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestEntryLifecycle(t *testing.T) {
	svc := setupService(t)
	userID, err := svc.CreateUser(context.Background(), "alice", "secret")
	require.NoError(t, err)

	entryID, err := svc.CreateEntry(context.Background(), userID, "Trip", "Went to the lake.", []string{"/images/lake.jpg"})
	require.NoError(t, err)

	entry, err := svc.GetEntry(context.Background(), userID, entryID)
	require.NoError(t, err)
	require.Equal(t, "Trip", entry.Title)

	require.NoError(t, svc.UpdateEntry(context.Background(), userID, entryID, "Trip!", "Went to the lake twice.", nil))
	entry, err = svc.GetEntry(context.Background(), userID, entryID)
	require.NoError(t, err)
	require.Equal(t, "Trip!", entry.Title)
	require.Empty(t, entry.Images)

	require.NoError(t, svc.DeleteEntry(context.Background(), userID, entryID))
	_, err = svc.GetEntry(context.Background(), userID, entryID)
	require.ErrorIs(t, err, models.ErrNotFound)
}
