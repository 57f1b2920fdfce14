package repository

import (
	"context"
	"testing"
	"time"

	"quote_api/internal/config"
	"quote_api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteUsers(t *testing.T) UserRepository {
	t.Helper()
	ctx := context.Background()
	db, err := config.ConnectSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, config.MigrateSQLite(ctx, db, discardLogger()))
	return NewSQLiteUserRepository(db)
}

func TestSQLiteUserRepository_CreateAndFind(t *testing.T) {
	repo := newTestSQLiteUsers(t)
	ctx := context.Background()
	u := sampleUser()
	require.NoError(t, repo.Create(ctx, u))

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, u.Email, byID.Email)
	assert.Equal(t, u.PasswordHash, byID.PasswordHash)
	assert.Equal(t, model.RoleUser, byID.Role)
	assert.True(t, u.CreatedAt.Equal(byID.CreatedAt))

	byEmail, err := repo.FindByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)

	byName, err := repo.FindByEmailOrUsername(ctx, "someone@else.com", u.Username)
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, u.ID, byName.ID)

	none, err := repo.FindByEmailOrUsername(ctx, "someone@else.com", "someone")
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestSQLiteUserRepository_UniqueEmailAndUsername(t *testing.T) {
	repo := newTestSQLiteUsers(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, sampleUser()))

	sameEmail := sampleUser()
	sameEmail.ID = "u2"
	sameEmail.Username = "other"
	assert.ErrorIs(t, repo.Create(ctx, sameEmail), ErrDuplicate)

	sameName := sampleUser()
	sameName.ID = "u3"
	sameName.Email = "other@example.com"
	assert.ErrorIs(t, repo.Create(ctx, sameName), ErrDuplicate)
}

func TestSQLiteUserRepository_UpdateAndDelete(t *testing.T) {
	repo := newTestSQLiteUsers(t)
	ctx := context.Background()
	u := sampleUser()
	require.NoError(t, repo.Create(ctx, u))

	u.Username = "lovelace"
	u.UpdatedAt = u.UpdatedAt.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, u))

	stored, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "lovelace", stored.Username)
	assert.True(t, u.UpdatedAt.Equal(stored.UpdatedAt))

	require.NoError(t, repo.Delete(ctx, u.ID))
	assert.ErrorIs(t, repo.Delete(ctx, u.ID), ErrRecordNotFound)
	assert.ErrorIs(t, repo.Update(ctx, u), ErrRecordNotFound)
}

func TestSQLiteUserRepository_UpdateConflict(t *testing.T) {
	repo := newTestSQLiteUsers(t)
	ctx := context.Background()
	first := sampleUser()
	require.NoError(t, repo.Create(ctx, first))

	second := sampleUser()
	second.ID = "u2"
	second.Email = "grace@example.com"
	second.Username = "grace"
	require.NoError(t, repo.Create(ctx, second))

	second.Email = first.Email
	assert.ErrorIs(t, repo.Update(ctx, second), ErrDuplicate)
}
