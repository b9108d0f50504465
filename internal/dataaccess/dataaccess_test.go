package dataaccess_test

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/hacienda/internal/client"
	"github.com/nimasrn/hacienda/internal/connectivity"
	"github.com/nimasrn/hacienda/internal/dataaccess"
	"github.com/nimasrn/hacienda/internal/localstore"
	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/outbox"
	"github.com/nimasrn/hacienda/internal/passwords"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/internal/seed"
	"github.com/nimasrn/hacienda/test/helpers"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	luis    = "32165498"
	luisRef = "000131717545562O"
)

type fixture struct {
	api     *helpers.TestAPI
	remote  *client.Client
	local   *localstore.Store
	monitor *connectivity.Monitor
	svc     *dataaccess.Service
}

func setup(t *testing.T, seedLocal bool) *fixture {
	t.Helper()
	ctx := context.Background()
	hasher := passwords.New(bcrypt.MinCost)

	api := helpers.StartTestAPI(t, true)
	_, err := seed.Run(ctx, api.Store, hasher)
	require.NoError(t, err)
	remote := client.New(client.Config{BaseURL: api.BaseURL, Timeout: 2 * time.Second, Dial: api.Dial})

	localDB := helpers.SetupTestDB(t)
	local := localstore.New(localDB, hasher)
	if seedLocal {
		_, err := local.Seed(ctx)
		require.NoError(t, err)
	}

	ob := outbox.New(repository.NewOutboxRepository(localDB), remote)
	mon := connectivity.NewMonitor(remote, connectivity.Config{})
	svc := dataaccess.New(local, remote, ob, mon)
	require.Equal(t, connectivity.Online, mon.Probe(ctx))

	return &fixture{api: api, remote: remote, local: local, monitor: mon, svc: svc}
}

func (f *fixture) goOffline(t *testing.T) {
	f.api.SetDown(true)
	require.Equal(t, connectivity.Offline, f.monitor.Probe(context.Background()))
}

func (f *fixture) goOnline(t *testing.T) {
	f.api.SetDown(false)
	require.Equal(t, connectivity.Online, f.monitor.Probe(context.Background()))
}

func TestLogin_OnlineCachesCredentialsForOffline(t *testing.T) {
	ctx := context.Background()
	f := setup(t, false)

	sess, err := f.svc.Login(ctx, luis, "123456")
	require.NoError(t, err)
	assert.Equal(t, dataaccess.ModeOnline, sess.Mode)
	assert.NotZero(t, sess.RemoteID)
	assert.NotZero(t, sess.LocalID)
	assert.Equal(t, "Luis Fernando Delgado Arboleda", sess.User.FullName)

	f.goOffline(t)
	offline, err := f.svc.Login(ctx, luis, "123456")
	require.NoError(t, err)
	assert.Equal(t, dataaccess.ModeOffline, offline.Mode)
	assert.Equal(t, sess.LocalID, offline.LocalID)
	assert.Zero(t, offline.RemoteID)

	_, err = f.svc.Login(ctx, luis, "bad")
	assert.ErrorIs(t, err, dataaccess.ErrInvalidCredentials)
}

func TestLogin_RemoteRejectionIsFinal(t *testing.T) {
	f := setup(t, true)
	_, err := f.svc.Login(context.Background(), luis, "wrong")
	assert.ErrorIs(t, err, dataaccess.ErrInvalidCredentials)
}

func TestLogin_TransportFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	f := setup(t, true)
	// monitor still says online, the request itself fails
	f.api.SetDown(true)

	sess, err := f.svc.Login(ctx, luis, "123456")
	require.NoError(t, err)
	assert.Equal(t, dataaccess.ModeOffline, sess.Mode)
}

func TestOfflinePayment_ReplayedOnReconnect(t *testing.T) {
	ctx := context.Background()
	f := setup(t, true)
	f.goOffline(t)

	sess, err := f.svc.Login(ctx, luis, "123456")
	require.NoError(t, err)

	pending, err := f.svc.PendingTransactions(ctx, sess)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	p, err := f.svc.RegisterPayment(ctx, sess, luisRef, model.PaymentInput{Amount: decimal.NewFromInt(73375)})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, p.Status)

	txns, err := f.svc.Transactions(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionApproved, findTxn(t, txns, luisRef).Estado)

	st, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, dataaccess.Status{Mode: dataaccess.ModeOffline, Pending: 1}, st)

	f.goOnline(t)

	st, err = f.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, dataaccess.Status{Mode: dataaccess.ModeOnline}, st)

	txns, err = f.svc.Transactions(ctx, sess)
	require.NoError(t, err)
	assert.NotZero(t, sess.RemoteID)
	assert.True(t, findTxn(t, txns, luisRef).IsApproved())

	payments, err := f.svc.Payments(ctx, sess)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, luisRef, payments[0].TransactionRef)

	// a second reconnect replays nothing
	f.goOffline(t)
	f.goOnline(t)
	payments, err = f.svc.Payments(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestOnlinePayment_FlushesImmediately(t *testing.T) {
	ctx := context.Background()
	f := setup(t, true)
	sess, err := f.svc.Login(ctx, luis, "123456")
	require.NoError(t, err)

	_, err = f.svc.RegisterPayment(ctx, sess, luisRef, model.PaymentInput{PaymentMethod: "Tarjeta", Amount: decimal.NewFromInt(73375)})
	require.NoError(t, err)

	st, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Pending)

	remote := f.remote.GetPaymentsByUser(ctx, sess.RemoteID)
	require.True(t, remote.Success)
	require.Len(t, remote.Data, 1)
	assert.Equal(t, "Tarjeta", remote.Data[0].PaymentMethod)
}

func TestRegisterPayment_Validation(t *testing.T) {
	ctx := context.Background()
	f := setup(t, true)
	sess, err := f.svc.Login(ctx, luis, "123456")
	require.NoError(t, err)

	_, err = f.svc.RegisterPayment(ctx, sess, luisRef, model.PaymentInput{})
	assert.ErrorIs(t, err, dataaccess.ErrInvalidInput)

	_, err = f.svc.RegisterPayment(ctx, sess, "nope", model.PaymentInput{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, dataaccess.ErrNotFound)
}

func TestCreateProperty_LocalFirst(t *testing.T) {
	ctx := context.Background()
	f := setup(t, true)
	f.goOffline(t)
	sess, err := f.svc.Login(ctx, luis, "123456")
	require.NoError(t, err)

	_, err = f.svc.CreateProperty(ctx, sess, model.PropertyCreateRequest{PropertyNumber: "P-1"})
	assert.ErrorIs(t, err, dataaccess.ErrInvalidInput)

	_, err = f.svc.CreateProperty(ctx, sess, model.PropertyCreateRequest{
		PropertyNumber: "900001", PropertyType: "RURAL", Address: "Vereda El Carmen",
	})
	require.NoError(t, err)
	props, err := f.svc.Properties(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, props, 3)

	_, err = f.svc.CreateTransaction(ctx, sess, model.TransactionCreateRequest{
		Referencia: "NEW-1", Estado: "pendiente", Fecha: "2025-03-01 09:00:00",
		Valor: "COP $12,000.00", Concepto: "Impuesto Predial",
	})
	require.NoError(t, err)

	st, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Pending)

	f.goOnline(t)
	props, err = f.svc.Properties(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, props, 3)
	txns, err := f.svc.Transactions(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionPending, findTxn(t, txns, "NEW-1").Estado)
}

func TestSync_PullsRemoteAndMergesApprovals(t *testing.T) {
	ctx := context.Background()
	f := setup(t, true)

	// approve one transaction on the server only
	users := f.remote.GetAllUsers(ctx)
	require.True(t, users.Success)
	var remoteLuis int64
	for _, u := range users.Data {
		if u.Cedula == luis {
			remoteLuis = u.ID
		}
	}
	txns := f.remote.GetTransactionsByUser(ctx, remoteLuis)
	amount := decimal.NewFromInt(73375)
	created := f.remote.CreatePayment(ctx, model.PaymentCreateRequest{
		UserID: remoteLuis, TransactionID: findTxn(t, txns.Data, luisRef).ID,
		PaymentMethod: "Efectivo", Amount: &amount, Status: model.PaymentCompleted,
	}, "")
	require.True(t, created.Success)
	newUser := f.remote.CreateUser(ctx, model.UserCreateRequest{
		Cedula: "55555", Password: "pw", Name: "Nuevo", FullName: "Nuevo Ciudadano",
	})
	require.True(t, newUser.Success)

	res, err := f.svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Import.Users.Imported)
	assert.Equal(t, 3, res.Import.Users.Skipped)
	assert.Equal(t, 1, res.Import.Payments.Imported)
	assert.Equal(t, 0, res.Approved, "the pulled completed payment already approved it")

	u, err := f.local.GetUserByCedula(ctx, luis)
	require.NoError(t, err)
	local, err := f.local.GetTransactionByReference(ctx, u.ID, luisRef)
	require.NoError(t, err)
	assert.True(t, local.IsApproved())

	_, err = f.local.GetUserByCedula(ctx, "55555")
	require.NoError(t, err)
}

func TestRemoteOnlyOperations(t *testing.T) {
	ctx := context.Background()
	f := setup(t, true)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalUsers)

	data, err := f.svc.ExportAll(ctx)
	require.NoError(t, err)
	assert.Len(t, data.Transactions, 5)

	id, err := f.svc.CreateUser(ctx, model.UserCreateRequest{Cedula: "777", Password: "pw", Name: "Ana", FullName: "Ana Ruiz"})
	require.NoError(t, err)
	assert.NotZero(t, id)
	_, err = f.local.AuthenticateUser(ctx, "777", "pw")
	require.NoError(t, err)

	_, err = f.svc.CreateUser(ctx, model.UserCreateRequest{Cedula: "777", Password: "pw", Name: "Ana", FullName: "Ana Ruiz"})
	var remoteErr *dataaccess.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 409, remoteErr.Status)

	f.goOffline(t)
	_, err = f.svc.Stats(ctx)
	assert.ErrorIs(t, err, dataaccess.ErrOffline)
	_, err = f.svc.ExportAll(ctx)
	assert.ErrorIs(t, err, dataaccess.ErrOffline)
	_, err = f.svc.CreateUser(ctx, model.UserCreateRequest{Cedula: "888"})
	assert.ErrorIs(t, err, dataaccess.ErrOffline)
	_, err = f.svc.Sync(ctx)
	assert.ErrorIs(t, err, dataaccess.ErrOffline)
}

func findTxn(t *testing.T, txns []*model.Transaction, ref string) *model.Transaction {
	t.Helper()
	for _, txn := range txns {
		if txn.Referencia == ref {
			return txn
		}
	}
	require.FailNow(t, "transaction not found", ref)
	return nil
}
