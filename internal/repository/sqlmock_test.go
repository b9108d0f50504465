package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*db.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	g, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db.FromGorm(g, db.DriverPostgres), mock
}

func TestUserRepository_PropagatesDriverErrors(t *testing.T) {
	store, mock := setupMockDB(t)
	repo := repository.NewUserRepository(store)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByID(context.Background(), 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_MapsEmptyResultToNotFound(t *testing.T) {
	store, mock := setupMockDB(t)
	repo := repository.NewUserRepository(store)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE cedula = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cedula"}))

	_, err := repo.GetByCedula(context.Background(), "123", false)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_SumCompletedError(t *testing.T) {
	store, mock := setupMockDB(t)
	repo := repository.NewPaymentRepository(store)

	mock.ExpectQuery(`SELECT SUM\(amount\) FROM "payments"`).
		WillReturnError(errors.New("boom"))

	_, err := repo.SumCompleted(context.Background())
	assert.Error(t, err)
}
