package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/hacienda/internal/client"
	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/test/helpers"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, withIdempotency bool) (*client.Client, *helpers.TestAPI) {
	api := helpers.StartTestAPI(t, withIdempotency)
	c := client.New(client.Config{BaseURL: api.BaseURL, Timeout: 2 * time.Second, Dial: api.Dial})
	return c, api
}

func TestClient_Users(t *testing.T) {
	c, _ := newClient(t, false)
	ctx := context.Background()

	created := c.CreateUser(ctx, model.UserCreateRequest{
		Cedula:   "32165498",
		Password: "123456",
		Name:     "Luis Fernando",
		FullName: "Luis Fernando Delgado Arboleda",
		Email:    helpers.Ptr("luis.delgado@email.com"),
		Phone:    helpers.Ptr("+57 300 123 4567"),
	})
	require.True(t, created.Success, created.Message)
	assert.Equal(t, 201, created.StatusCode)
	assert.Equal(t, "Usuario creado exitosamente", created.Message)

	got := c.GetUserByID(ctx, created.Data.ID)
	require.True(t, got.Success)
	assert.Equal(t, "Luis Fernando Delgado Arboleda", got.Data.FullName)
	assert.Equal(t, "luis.delgado@email.com", *got.Data.Email)
	assert.Equal(t, "+57 300 123 4567", *got.Data.Phone)

	t.Run("duplicate cedula", func(t *testing.T) {
		dup := c.CreateUser(ctx, model.UserCreateRequest{Cedula: "32165498", Password: "x", Name: "n", FullName: "f"})
		assert.False(t, dup.Success)
		assert.Equal(t, 409, dup.StatusCode)
	})

	t.Run("missing user", func(t *testing.T) {
		res := c.GetUserByID(ctx, 999)
		assert.False(t, res.Success)
		assert.Equal(t, 404, res.StatusCode)
		assert.Equal(t, "Usuario no encontrado", res.Message)
	})

	t.Run("list", func(t *testing.T) {
		res := c.GetAllUsers(ctx)
		require.True(t, res.Success)
		require.NotNil(t, res.Count)
		assert.Equal(t, 1, *res.Count)
	})

	t.Run("login", func(t *testing.T) {
		ok := c.Login(ctx, "32165498", "123456")
		require.True(t, ok.Success)
		assert.NotNil(t, ok.Data.LastLogin)

		bad := c.Login(ctx, "32165498", "nope")
		assert.False(t, bad.Success)
		assert.Equal(t, 401, bad.StatusCode)
	})
}

func TestClient_ValidatesBeforeSending(t *testing.T) {
	c, api := newClient(t, false)
	api.SetDown(true)

	res := c.CreateUser(context.Background(), model.UserCreateRequest{Cedula: "1", Name: "n"})
	assert.False(t, res.Success)
	assert.False(t, res.Transport(), "no request was attempted")
	assert.Equal(t, "Campos requeridos: cedula, password, name, fullName", res.Message)
	assert.ElementsMatch(t, []string{"password", "fullName"}, res.Fields)

	zero := decimal.Zero
	pay := c.CreatePayment(context.Background(), model.PaymentCreateRequest{UserID: 1, TransactionID: 1, PaymentMethod: "Efectivo", Amount: &zero}, "")
	assert.False(t, pay.Success)
	assert.Equal(t, []string{"amount"}, pay.Fields)
}

func TestClient_PaymentFlow(t *testing.T) {
	c, api := newClient(t, true)
	ctx := context.Background()

	u := helpers.CreateTestUser(t, api.Store, "32165498", "x", "Luis")
	txn := helpers.CreateTestTransaction(t, api.Store, u.ID, "000131717545562O", model.TransactionPending, "2017-09-06 13:25:24")

	amount := decimal.NewFromInt(73375)
	req := model.PaymentCreateRequest{
		UserID:        u.ID,
		TransactionID: txn.ID,
		PaymentMethod: "Efectivo",
		Amount:        &amount,
		Status:        model.PaymentCompleted,
	}

	first := c.CreatePayment(ctx, req, "key-1")
	require.True(t, first.Success, first.Message)
	assert.Equal(t, 201, first.StatusCode)

	again := c.CreatePayment(ctx, req, "key-1")
	require.True(t, again.Success)
	assert.Equal(t, 200, again.StatusCode)
	assert.Equal(t, first.Data.ID, again.Data.ID)

	payments := c.GetPaymentsByUser(ctx, u.ID)
	require.True(t, payments.Success)
	require.Len(t, payments.Data, 1)
	assert.Equal(t, "000131717545562O", payments.Data[0].TransactionRef)
	assert.True(t, payments.Data[0].Amount.Equal(amount))

	txns := c.GetTransactionsByUser(ctx, u.ID)
	require.True(t, txns.Success)
	require.Len(t, txns.Data, 1)
	assert.True(t, txns.Data[0].IsApproved())

	stats := c.GetStats(ctx)
	require.True(t, stats.Success)
	assert.Equal(t, int64(1), stats.Data.CompletedPayments)
	assert.True(t, stats.Data.TotalCollected.Equal(amount))

	export := c.ExportAllData(ctx)
	require.True(t, export.Success)
	require.NotNil(t, export.ExportDate)
	assert.Len(t, export.Data.Users, 1)
	assert.Len(t, export.Data.Payments, 1)
}

func TestClient_Connection(t *testing.T) {
	c, api := newClient(t, false)
	ctx := context.Background()

	assert.True(t, c.CheckConnection(ctx))

	api.SetDown(true)
	assert.False(t, c.CheckConnection(ctx))

	res := c.GetAllUsers(ctx)
	assert.False(t, res.Success)
	assert.True(t, res.Transport())
	assert.Equal(t, 0, res.StatusCode)
	assert.NotEmpty(t, res.Error)

	api.SetDown(false)
	assert.True(t, c.CheckConnection(ctx))
}

func TestClient_SetBaseURL(t *testing.T) {
	c, _ := newClient(t, false)
	ctx := context.Background()

	c.SetBaseURL("http://hacienda.test/wrong/")
	assert.Equal(t, "http://hacienda.test/wrong", c.BaseURL())

	res := c.GetAllUsers(ctx)
	assert.False(t, res.Success)
	assert.Equal(t, 404, res.StatusCode)

	c.SetBaseURL("http://hacienda.test/api")
	assert.True(t, c.GetAllUsers(ctx).Success)
}
