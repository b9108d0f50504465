package localstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/passwords"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/internal/seed"
	"github.com/nimasrn/hacienda/pkg/db"
	"github.com/nimasrn/hacienda/pkg/logger"
	"github.com/nimasrn/hacienda/pkg/prom"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserNotFound        = repository.ErrUserNotFound
	ErrTransactionNotFound = repository.ErrTransactionNotFound
	ErrDuplicateCedula     = repository.ErrDuplicateCedula
)

type Hasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) error
}

// Store is the on-device mirror of the record store.
type Store struct {
	db           *db.DB
	hasher       Hasher
	users        *repository.UserRepository
	properties   *repository.PropertyRepository
	transactions *repository.TransactionRepository
	payments     *repository.PaymentRepository
}

func New(store *db.DB, hasher Hasher) *Store {
	return &Store{
		db:           store,
		hasher:       hasher,
		users:        repository.NewUserRepository(store),
		properties:   repository.NewPropertyRepository(store),
		transactions: repository.NewTransactionRepository(store),
		payments:     repository.NewPaymentRepository(store),
	}
}

// Open opens the sqlite file at cfg and applies the migrations.
func Open(ctx context.Context, cfg db.Config, hasher Hasher) (*Store, error) {
	cfg.Driver = db.DriverSQLite
	d, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := d.Migrate(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return New(d, hasher), nil
}

func (s *Store) DB() *db.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// WithinTransaction runs fn in one local DB transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.db.WithinTransaction(ctx, fn)
}

func (s *Store) Seed(ctx context.Context) (bool, error) {
	return seed.Run(ctx, s.db, s.hasher)
}

// AuthenticateUser checks the password of an active user and stamps lastLogin.
func (s *Store) AuthenticateUser(ctx context.Context, cedula, password string) (*model.User, error) {
	u, err := s.users.GetByCedula(ctx, strings.TrimSpace(cedula), true)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := s.hasher.Verify(u.Password, password); err != nil {
		if errors.Is(err, passwords.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	u.LastLogin = &now
	return u, nil
}

// CacheCredentials stores the hash of a password the server accepted, so the
// next login works offline.
func (s *Store) CacheCredentials(ctx context.Context, userID int64, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

func (s *Store) GetUserByCedula(ctx context.Context, cedula string) (*model.User, error) {
	return s.users.GetByCedula(ctx, strings.TrimSpace(cedula), true)
}

// GetAllUsers returns the active users ordered by full name.
func (s *Store) GetAllUsers(ctx context.Context) ([]*model.User, error) {
	return s.users.List(ctx, repository.UserFilter{ActiveOnly: true, ByName: true})
}

func (s *Store) CreateUser(ctx context.Context, req model.UserCreateRequest) (*model.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return s.users.Create(ctx, &model.User{
		Cedula:   strings.TrimSpace(req.Cedula),
		Password: hash,
		Name:     req.Name,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		IsActive: active,
	})
}

// GetUserProperties returns the active properties of a user.
func (s *Store) GetUserProperties(ctx context.Context, userID int64) ([]*model.Property, error) {
	return s.properties.List(ctx, repository.PropertyFilter{UserID: &userID, ActiveOnly: true})
}

func (s *Store) CreateProperty(ctx context.Context, p *model.Property) (*model.Property, error) {
	p.IsActive = true
	return s.properties.Create(ctx, p)
}

// GetUserTransactions returns the tax history of a user, latest fecha first.
func (s *Store) GetUserTransactions(ctx context.Context, userID int64) ([]*model.Transaction, error) {
	return s.transactions.List(ctx, repository.TransactionFilter{UserID: &userID})
}

// GetPendingTransactions returns what the user can still pay.
func (s *Store) GetPendingTransactions(ctx context.Context, userID int64) ([]*model.Transaction, error) {
	return s.transactions.List(ctx, repository.TransactionFilter{UserID: &userID, Unpaid: true})
}

func (s *Store) GetTransactionByReference(ctx context.Context, userID int64, referencia string) (*model.Transaction, error) {
	return s.transactions.GetByReference(ctx, userID, referencia)
}

func (s *Store) CreateTransaction(ctx context.Context, t *model.Transaction) (*model.Transaction, error) {
	return s.transactions.Create(ctx, t)
}

func (s *Store) GetAllPayments(ctx context.Context) ([]*model.Payment, error) {
	return s.payments.List(ctx, repository.PaymentFilter{})
}

func (s *Store) GetUserPayments(ctx context.Context, userID int64) ([]*model.Payment, error) {
	return s.payments.List(ctx, repository.PaymentFilter{UserID: &userID})
}

// RegisterPayment records a completed payment and approves the transaction in
// one DB transaction. Paying the same transaction twice inserts two rows.
func (s *Store) RegisterPayment(ctx context.Context, userID, transactionID int64, in model.PaymentInput) (*model.Payment, error) {
	method := in.PaymentMethod
	if method == "" {
		method = model.DefaultPaymentMethod
	}

	var created *model.Payment
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.transactions.GetByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if txn.UserID != userID {
			return ErrTransactionNotFound
		}
		created, err = s.payments.Create(ctx, &model.Payment{
			UserID:        userID,
			TransactionID: transactionID,
			PaymentMethod: method,
			PaymentDate:   time.Now().UTC(),
			Amount:        in.Amount,
			Status:        model.PaymentCompleted,
			AdminNotes:    in.AdminNotes,
		})
		if err != nil {
			return err
		}
		created.TransactionRef = txn.Referencia
		created.TransactionConcept = txn.Concepto
		return s.transactions.SetEstado(ctx, transactionID, model.TransactionApproved)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("payment registered locally", "user_id", userID, "transaction_id", transactionID, "amount", in.Amount.String())
	prom.IncPaymentRegistered("local", string(model.PaymentCompleted))
	return created, nil
}
