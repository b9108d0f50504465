package repository_test

import (
	"context"
	"testing"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/test/helpers"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentRepository_ListJoined(t *testing.T) {
	store := helpers.SetupTestDB(t)
	repo := repository.NewPaymentRepository(store)
	ctx := context.Background()

	u := helpers.CreateTestUser(t, store, "32165498", "x", "Luis Fernando Delgado Arboleda")
	txn := helpers.CreateTestTransaction(t, store, u.ID, "000131717545562O", model.TransactionPending, "2017-09-06")
	helpers.CreateTestPayment(t, store, u.ID, txn.ID, 50000, model.PaymentCompleted)
	helpers.CreateTestPayment(t, store, u.ID, txn.ID, 25000, model.PaymentPending)

	payments, err := repo.List(ctx, repository.PaymentFilter{UserID: &u.ID})
	require.NoError(t, err)
	require.Len(t, payments, 2)

	p := payments[0]
	assert.Equal(t, "32165498", p.UserCedula)
	assert.Equal(t, "Luis Fernando Delgado Arboleda", p.UserFullName)
	assert.Equal(t, "000131717545562O", p.TransactionRef)
	assert.Equal(t, "Impuesto Predial", p.TransactionConcept)

	ok, err := repo.ExistsForTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPaymentRepository_Aggregates(t *testing.T) {
	store := helpers.SetupTestDB(t)
	repo := repository.NewPaymentRepository(store)
	ctx := context.Background()

	total, err := repo.SumCompleted(ctx)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	u := helpers.CreateTestUser(t, store, "1", "x", "A")
	txn := helpers.CreateTestTransaction(t, store, u.ID, "R", model.TransactionPending, "2020")
	helpers.CreateTestPayment(t, store, u.ID, txn.ID, 50000, model.PaymentCompleted)
	helpers.CreateTestPayment(t, store, u.ID, txn.ID, 16882, model.PaymentCompleted)
	helpers.CreateTestPayment(t, store, u.ID, txn.ID, 99, model.PaymentFailed)

	total, err = repo.SumCompleted(ctx)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(66882)), total.String())

	completed := model.PaymentCompleted
	n, err := repo.Count(ctx, &completed)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
