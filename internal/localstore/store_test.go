package localstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nimasrn/hacienda/internal/localstore"
	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/passwords"
	"github.com/nimasrn/hacienda/test/helpers"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newSeededStore(t *testing.T) *localstore.Store {
	t.Helper()
	s := localstore.New(helpers.SetupTestDB(t), passwords.New(bcrypt.MinCost))
	seeded, err := s.Seed(context.Background())
	require.NoError(t, err)
	require.True(t, seeded)
	return s
}

func TestAuthenticateUser(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)

	u, err := s.AuthenticateUser(ctx, "32165498", "123456")
	require.NoError(t, err)
	assert.Equal(t, "Luis Fernando Delgado Arboleda", u.FullName)
	require.NotNil(t, u.LastLogin)

	stored, err := s.GetUserByCedula(ctx, "32165498")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.WithinDuration(t, time.Now(), *stored.LastLogin, time.Minute)

	_, err = s.AuthenticateUser(ctx, "32165498", "wrong")
	assert.ErrorIs(t, err, localstore.ErrInvalidCredentials)

	_, err = s.AuthenticateUser(ctx, "00000000", "123456")
	assert.ErrorIs(t, err, localstore.ErrInvalidCredentials)
}

func TestAuthenticateUser_ImportedWithoutPassword(t *testing.T) {
	ctx := context.Background()
	s := localstore.New(helpers.SetupTestDB(t), passwords.New(bcrypt.MinCost))

	_, err := s.ImportDataFromJSON(ctx, model.ImportBatch{
		Users: []model.UserRecord{{Cedula: "555", Name: "Ana", FullName: "Ana Ruiz", IsActive: true}},
	})
	require.NoError(t, err)

	_, err = s.AuthenticateUser(ctx, "555", "")
	assert.ErrorIs(t, err, localstore.ErrInvalidCredentials)

	u, err := s.GetUserByCedula(ctx, "555")
	require.NoError(t, err)
	require.NoError(t, s.CacheCredentials(ctx, u.ID, "secret"))

	u, err = s.AuthenticateUser(ctx, "555", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Ana Ruiz", u.FullName)
}

func TestGetAllUsers_ActiveByName(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)

	inactive := false
	_, err := s.CreateUser(ctx, model.UserCreateRequest{
		Cedula: "999", Password: "x", Name: "Zeta", FullName: "Aaron Inactivo", IsActive: &inactive,
	})
	require.NoError(t, err)

	users, err := s.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "Administrador Sistema", users[0].FullName)
	assert.Equal(t, "Luis Fernando Delgado Arboleda", users[1].FullName)
	assert.Equal(t, "María González Pérez", users[2].FullName)
}

func TestSeed_Idempotent(t *testing.T) {
	s := newSeededStore(t)
	seeded, err := s.Seed(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestPendingTransactions(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)
	u, err := s.GetUserByCedula(ctx, "32165498")
	require.NoError(t, err)

	all, err := s.GetUserTransactions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "000131717545562O", all[0].Referencia)

	pending, err := s.GetPendingTransactions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	for _, p := range pending {
		assert.False(t, p.IsApproved())
	}

	props, err := s.GetUserProperties(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, props, 2)
}

func TestRegisterPayment(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)
	u, err := s.GetUserByCedula(ctx, "32165498")
	require.NoError(t, err)
	txn, err := s.GetTransactionByReference(ctx, u.ID, "000131717545562O")
	require.NoError(t, err)
	require.False(t, txn.IsApproved())

	p, err := s.RegisterPayment(ctx, u.ID, txn.ID, model.PaymentInput{Amount: decimal.NewFromInt(73375)})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, p.Status)
	assert.Equal(t, model.DefaultPaymentMethod, p.PaymentMethod)
	assert.Equal(t, "000131717545562O", p.TransactionRef)

	txn, err = s.GetTransactionByReference(ctx, u.ID, "000131717545562O")
	require.NoError(t, err)
	assert.Equal(t, model.TransactionApproved, txn.Estado)

	raw, err := json.Marshal(txn)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"isApproved":true`)

	// no double-pay guard
	_, err = s.RegisterPayment(ctx, u.ID, txn.ID, model.PaymentInput{PaymentMethod: "Tarjeta", Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	payments, err := s.GetUserPayments(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestRegisterPayment_ForeignTransaction(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t)
	luis, err := s.GetUserByCedula(ctx, "32165498")
	require.NoError(t, err)
	admin, err := s.GetUserByCedula(ctx, "12345678")
	require.NoError(t, err)
	txn, err := s.GetTransactionByReference(ctx, admin.ID, "000141217148344Z")
	require.NoError(t, err)

	_, err = s.RegisterPayment(ctx, luis.ID, txn.ID, model.PaymentInput{Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, localstore.ErrTransactionNotFound)

	_, err = s.RegisterPayment(ctx, luis.ID, 9999, model.PaymentInput{Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, localstore.ErrTransactionNotFound)

	payments, err := s.GetAllPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, payments)
}
