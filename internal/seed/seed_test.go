package seed_test

import (
	"context"
	"testing"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/passwords"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/internal/seed"
	"github.com/nimasrn/hacienda/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRun(t *testing.T) {
	store := helpers.SetupTestDB(t)
	hasher := passwords.New(bcrypt.MinCost)
	ctx := context.Background()

	wrote, err := seed.Run(ctx, store, hasher)
	require.NoError(t, err)
	assert.True(t, wrote)

	users := repository.NewUserRepository(store)
	luis, err := users.GetByCedula(ctx, "32165498", true)
	require.NoError(t, err)
	assert.Equal(t, "Luis Fernando Delgado Arboleda", luis.FullName)
	assert.NoError(t, hasher.Verify(luis.Password, "123456"))

	props, err := repository.NewPropertyRepository(store).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), props)

	txns, err := repository.NewTransactionRepository(store).List(ctx, repository.TransactionFilter{UserID: &luis.ID})
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, model.TransactionRejected, txns[0].Estado)

	t.Run("second run is a no-op", func(t *testing.T) {
		wrote, err := seed.Run(ctx, store, hasher)
		require.NoError(t, err)
		assert.False(t, wrote)

		n, err := users.Count(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})
}
