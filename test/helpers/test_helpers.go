package helpers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/pkg/db"
	"github.com/nimasrn/hacienda/pkg/logger"
	"github.com/nimasrn/hacienda/pkg/redis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// SetupTestDB opens a fresh sqlite file under t.TempDir with every migration applied.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()
	logger.UseNop()

	store, err := db.Open(db.Config{Driver: db.DriverSQLite, Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)
	adapter, err := redis.NewRedisAdapter(t.Name(), "test:", &redis.Options{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return mr, adapter
}

// CreateTestUser stores an active user. password is stored as given, hash it first
// when the test authenticates.
func CreateTestUser(t *testing.T, store *db.DB, cedula, password, fullName string) *model.User {
	t.Helper()
	u, err := repository.NewUserRepository(store).Create(context.Background(), &model.User{
		Cedula:   cedula,
		Password: password,
		Name:     fullName,
		FullName: fullName,
		IsActive: true,
	})
	require.NoError(t, err)
	return u
}

func CreateTestProperty(t *testing.T, store *db.DB, userID int64, number string) *model.Property {
	t.Helper()
	p, err := repository.NewPropertyRepository(store).Create(context.Background(), &model.Property{
		UserID:         userID,
		PropertyNumber: number,
		PropertyType:   "RESIDENCIAL",
		Address:        "Calle 1 #2-3, Liborina",
		IsActive:       true,
	})
	require.NoError(t, err)
	return p
}

func CreateTestTransaction(t *testing.T, store *db.DB, userID int64, referencia string, estado model.TransactionStatus, fecha string) *model.Transaction {
	t.Helper()
	txn, err := repository.NewTransactionRepository(store).Create(context.Background(), &model.Transaction{
		UserID:     userID,
		Referencia: referencia,
		Estado:     estado,
		Fecha:      fecha,
		Valor:      "COP $73,375.00",
		Concepto:   "Impuesto Predial",
	})
	require.NoError(t, err)
	return txn
}

func CreateTestPayment(t *testing.T, store *db.DB, userID, transactionID int64, amount int64, status model.PaymentStatus) *model.Payment {
	t.Helper()
	p, err := repository.NewPaymentRepository(store).Create(context.Background(), &model.Payment{
		UserID:        userID,
		TransactionID: transactionID,
		PaymentMethod: model.DefaultPaymentMethod,
		PaymentDate:   time.Now().UTC(),
		Amount:        decimal.NewFromInt(amount),
		Status:        status,
	})
	require.NoError(t, err)
	return p
}

func Ptr[T any](v T) *T {
	return &v
}
