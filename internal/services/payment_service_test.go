package services

import (
	"context"
	"testing"

	"github.com/nimasrn/hacienda/internal/idempotency"
	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) List(ctx context.Context, f repository.PaymentFilter) ([]*model.Payment, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, f repository.TransactionFilter) ([]*model.Transaction, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) SetEstado(ctx context.Context, id int64, estado model.TransactionStatus) error {
	args := m.Called(ctx, id, estado)
	return args.Error(0)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Acquire(ctx context.Context, key string) (*idempotency.Claim, []byte, error) {
	args := m.Called(ctx, key)
	var claim *idempotency.Claim
	if c := args.Get(0); c != nil {
		claim = c.(*idempotency.Claim)
	}
	var stored []byte
	if b := args.Get(1); b != nil {
		stored = b.([]byte)
	}
	return claim, stored, args.Error(2)
}

func (m *MockIdempotencyStore) Complete(ctx context.Context, c *idempotency.Claim, result []byte) error {
	return m.Called(ctx, c, result).Error(0)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, c *idempotency.Claim) error {
	return m.Called(ctx, c).Error(0)
}

func paymentRequest(status model.PaymentStatus) model.PaymentCreateRequest {
	amount := decimal.NewFromInt(50000)
	return model.PaymentCreateRequest{
		UserID:        1,
		TransactionID: 10,
		PaymentMethod: "Efectivo",
		Amount:        &amount,
		Status:        status,
	}
}

func TestPaymentService_Create_Validation(t *testing.T) {
	svc := NewPaymentService(new(MockPaymentRepository), new(MockTransactionRepository), nil)
	ctx := context.Background()

	t.Run("missing fields", func(t *testing.T) {
		_, _, err := svc.Create(ctx, model.PaymentCreateRequest{UserID: 1}, "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, "Campos requeridos: userId, transactionId, paymentMethod, amount", verr.Message)
		assert.ElementsMatch(t, []string{"transactionId", "paymentMethod", "amount"}, verr.Fields)
	})

	t.Run("zero amount counts as missing", func(t *testing.T) {
		req := paymentRequest("")
		zero := decimal.Zero
		req.Amount = &zero
		_, _, err := svc.Create(ctx, req, "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"amount"}, verr.Fields)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, _, err := svc.Create(ctx, paymentRequest("refunded"), "")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestPaymentService_Create_CompletedApprovesTransaction(t *testing.T) {
	payments := new(MockPaymentRepository)
	txns := new(MockTransactionRepository)
	svc := NewPaymentService(payments, txns, nil)
	ctx := context.Background()

	payments.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	txns.On("GetByID", ctx, int64(10)).Return(&model.Transaction{ID: 10, UserID: 1, Estado: model.TransactionPending}, nil)
	payments.On("Create", ctx, mock.MatchedBy(func(p *model.Payment) bool {
		return p.Status == model.PaymentCompleted && p.Amount.Equal(decimal.NewFromInt(50000))
	})).Return(&model.Payment{ID: 5, Status: model.PaymentCompleted}, nil)
	txns.On("SetEstado", ctx, int64(10), model.TransactionApproved).Return(nil)

	p, replayed, err := svc.Create(ctx, paymentRequest(model.PaymentCompleted), "")
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, int64(5), p.ID)

	payments.AssertExpectations(t)
	txns.AssertExpectations(t)
}

func TestPaymentService_Create_DefaultsToPending(t *testing.T) {
	payments := new(MockPaymentRepository)
	txns := new(MockTransactionRepository)
	svc := NewPaymentService(payments, txns, nil)
	ctx := context.Background()

	payments.On("WithinTransaction", ctx, mock.Anything).Return(nil)
	txns.On("GetByID", ctx, int64(10)).Return(&model.Transaction{ID: 10, UserID: 1}, nil)
	payments.On("Create", ctx, mock.MatchedBy(func(p *model.Payment) bool {
		return p.Status == model.PaymentPending
	})).Return(&model.Payment{ID: 6, Status: model.PaymentPending}, nil)

	_, _, err := svc.Create(ctx, paymentRequest(""), "")
	require.NoError(t, err)
	txns.AssertNotCalled(t, "SetEstado", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_Create_ForeignTransaction(t *testing.T) {
	payments := new(MockPaymentRepository)
	txns := new(MockTransactionRepository)
	svc := NewPaymentService(payments, txns, nil)
	ctx := context.Background()

	payments.On("WithinTransaction", ctx, mock.Anything).Return(nil)
	txns.On("GetByID", ctx, int64(10)).Return(&model.Transaction{ID: 10, UserID: 2}, nil)

	_, _, err := svc.Create(ctx, paymentRequest(""), "")
	assert.ErrorIs(t, err, ErrUnknownReference)
	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	txns2 := new(MockTransactionRepository)
	txns2.On("GetByID", ctx, int64(10)).Return(nil, repository.ErrTransactionNotFound)
	_, _, err = NewPaymentService(payments, txns2, nil).Create(ctx, paymentRequest(""), "")
	assert.ErrorIs(t, err, ErrUnknownReference)
}

func TestPaymentService_Create_Idempotent(t *testing.T) {
	ctx := context.Background()

	t.Run("replays stored payment", func(t *testing.T) {
		payments := new(MockPaymentRepository)
		idem := new(MockIdempotencyStore)
		svc := NewPaymentService(payments, new(MockTransactionRepository), idem)

		idem.On("Acquire", ctx, "k1").Return(nil, []byte(`{"id":9,"status":"completed","amount":50000}`), idempotency.ErrAlreadyProcessed)

		p, replayed, err := svc.Create(ctx, paymentRequest(""), "k1")
		require.NoError(t, err)
		assert.True(t, replayed)
		assert.Equal(t, int64(9), p.ID)
		payments.AssertNotCalled(t, "WithinTransaction", mock.Anything, mock.Anything)
	})

	t.Run("in flight key conflicts", func(t *testing.T) {
		idem := new(MockIdempotencyStore)
		svc := NewPaymentService(new(MockPaymentRepository), new(MockTransactionRepository), idem)
		idem.On("Acquire", ctx, "k2").Return(nil, nil, idempotency.ErrLockAcquireFailed)

		_, _, err := svc.Create(ctx, paymentRequest(""), "k2")
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("first request stores its result", func(t *testing.T) {
		payments := new(MockPaymentRepository)
		txns := new(MockTransactionRepository)
		idem := new(MockIdempotencyStore)
		svc := NewPaymentService(payments, txns, idem)
		claim := &idempotency.Claim{Key: "k3"}

		idem.On("Acquire", ctx, "k3").Return(claim, nil, nil)
		payments.On("WithinTransaction", ctx, mock.Anything).Return(nil)
		txns.On("GetByID", ctx, int64(10)).Return(&model.Transaction{ID: 10, UserID: 1}, nil)
		payments.On("Create", ctx, mock.Anything).Return(&model.Payment{ID: 11}, nil)
		idem.On("Complete", ctx, claim, mock.MatchedBy(func(b []byte) bool {
			return len(b) > 0
		})).Return(nil)

		p, replayed, err := svc.Create(ctx, paymentRequest(""), "k3")
		require.NoError(t, err)
		assert.False(t, replayed)
		assert.Equal(t, int64(11), p.ID)
		idem.AssertExpectations(t)
	})

	t.Run("failed create releases the key", func(t *testing.T) {
		payments := new(MockPaymentRepository)
		txns := new(MockTransactionRepository)
		idem := new(MockIdempotencyStore)
		svc := NewPaymentService(payments, txns, idem)
		claim := &idempotency.Claim{Key: "k4"}

		idem.On("Acquire", ctx, "k4").Return(claim, nil, nil)
		payments.On("WithinTransaction", ctx, mock.Anything).Return(nil)
		txns.On("GetByID", ctx, int64(10)).Return(nil, repository.ErrTransactionNotFound)
		idem.On("Release", ctx, claim).Return(nil)

		_, _, err := svc.Create(ctx, paymentRequest(""), "k4")
		assert.ErrorIs(t, err, ErrUnknownReference)
		idem.AssertExpectations(t)
	})
}
