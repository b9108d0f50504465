package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	store := helpers.SetupTestDB(t)
	repo := repository.NewUserRepository(store)
	ctx := context.Background()

	t.Run("create and read back", func(t *testing.T) {
		created, err := repo.Create(ctx, &model.User{
			Cedula:   "32165498",
			Password: "hash",
			Name:     "Luis Fernando",
			FullName: "Luis Fernando Delgado Arboleda",
			Email:    helpers.Ptr("luis.delgado@email.com"),
			IsActive: true,
		})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Luis Fernando Delgado Arboleda", got.FullName)
		assert.Equal(t, "luis.delgado@email.com", *got.Email)
		assert.Nil(t, got.Phone)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("duplicate cedula", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.User{Cedula: "32165498", Password: "x", Name: "n", FullName: "f"})
		assert.ErrorIs(t, err, repository.ErrDuplicateCedula)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999)
		assert.ErrorIs(t, err, repository.ErrUserNotFound)
	})
}

func TestUserRepository_GetByCedula(t *testing.T) {
	store := helpers.SetupTestDB(t)
	repo := repository.NewUserRepository(store)
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.User{Cedula: "111", Password: "x", Name: "A", FullName: "A", IsActive: false})
	require.NoError(t, err)

	_, err = repo.GetByCedula(ctx, "111", true)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	u, err := repo.GetByCedula(ctx, "111", false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
}

func TestUserRepository_List(t *testing.T) {
	store := helpers.SetupTestDB(t)
	repo := repository.NewUserRepository(store)
	ctx := context.Background()

	helpers.CreateTestUser(t, store, "1", "x", "Zoe")
	helpers.CreateTestUser(t, store, "2", "x", "Ana")
	_, err := repo.Create(ctx, &model.User{Cedula: "3", Password: "x", Name: "B", FullName: "Bea", IsActive: false})
	require.NoError(t, err)

	t.Run("active by name", func(t *testing.T) {
		users, err := repo.List(ctx, repository.UserFilter{ActiveOnly: true, ByName: true})
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "Ana", users[0].FullName)
		assert.Equal(t, "Zoe", users[1].FullName)
	})

	t.Run("all newest first", func(t *testing.T) {
		users, err := repo.List(ctx, repository.UserFilter{})
		require.NoError(t, err)
		require.Len(t, users, 3)
		assert.Equal(t, "3", users[0].Cedula)
	})

	t.Run("counts", func(t *testing.T) {
		all, err := repo.Count(ctx, false)
		require.NoError(t, err)
		active, err := repo.Count(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, int64(3), all)
		assert.Equal(t, int64(2), active)
	})
}

func TestUserRepository_UpdateLastLogin(t *testing.T) {
	store := helpers.SetupTestDB(t)
	repo := repository.NewUserRepository(store)
	ctx := context.Background()

	u := helpers.CreateTestUser(t, store, "1", "x", "A")
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, u.ID, at))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, at.Equal(*got.LastLogin))

	assert.ErrorIs(t, repo.UpdateLastLogin(ctx, 404, at), repository.ErrUserNotFound)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, 404, "h"), repository.ErrUserNotFound)
}
