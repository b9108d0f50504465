package repository_test

import (
	"context"
	"testing"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyRepository_List(t *testing.T) {
	store := helpers.SetupTestDB(t)
	repo := repository.NewPropertyRepository(store)
	ctx := context.Background()

	luis := helpers.CreateTestUser(t, store, "1", "x", "Luis Delgado")
	maria := helpers.CreateTestUser(t, store, "2", "x", "María González")
	helpers.CreateTestProperty(t, store, luis.ID, "890628")
	helpers.CreateTestProperty(t, store, luis.ID, "890629")
	helpers.CreateTestProperty(t, store, maria.ID, "890631")
	_, err := repo.Create(ctx, &model.Property{UserID: luis.ID, PropertyNumber: "old", PropertyType: "LOTE", Address: "x", IsActive: false})
	require.NoError(t, err)

	t.Run("all joined with owner, newest first", func(t *testing.T) {
		props, err := repo.List(ctx, repository.PropertyFilter{})
		require.NoError(t, err)
		require.Len(t, props, 4)
		assert.Equal(t, "old", props[0].PropertyNumber)
		assert.Equal(t, "Luis Delgado", props[0].UserFullName)
		assert.Equal(t, "María González", props[1].UserFullName)
	})

	t.Run("active for user", func(t *testing.T) {
		props, err := repo.List(ctx, repository.PropertyFilter{UserID: &luis.ID, ActiveOnly: true})
		require.NoError(t, err)
		require.Len(t, props, 2)
		for _, p := range props {
			assert.Equal(t, luis.ID, p.UserID)
			assert.True(t, p.IsActive)
		}
	})

	t.Run("exists by natural key", func(t *testing.T) {
		ok, err := repo.Exists(ctx, luis.ID, "890628")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, maria.ID, "890628")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestPropertyRepository_ForeignKey(t *testing.T) {
	store := helpers.SetupTestDB(t)
	repo := repository.NewPropertyRepository(store)

	_, err := repo.Create(context.Background(), &model.Property{UserID: 42, PropertyNumber: "1", PropertyType: "R", Address: "a", IsActive: true})
	assert.Error(t, err)
}
