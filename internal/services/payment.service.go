package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nimasrn/hacienda/internal/idempotency"
	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/pkg/logger"
	"github.com/nimasrn/hacienda/pkg/prom"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) (*model.Payment, error)
	List(ctx context.Context, f repository.PaymentFilter) ([]*model.Payment, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type IdempotencyStore interface {
	Acquire(ctx context.Context, key string) (*idempotency.Claim, []byte, error)
	Complete(ctx context.Context, c *idempotency.Claim, result []byte) error
	Release(ctx context.Context, c *idempotency.Claim) error
}

type PaymentService struct {
	payments     PaymentRepository
	transactions TransactionRepository
	idem         IdempotencyStore
}

// NewPaymentService wires the payment flow. idem may be nil, idempotency keys
// are then ignored.
func NewPaymentService(payments PaymentRepository, transactions TransactionRepository, idem IdempotencyStore) *PaymentService {
	return &PaymentService{payments: payments, transactions: transactions, idem: idem}
}

func (s *PaymentService) List(ctx context.Context) ([]*model.Payment, error) {
	return s.payments.List(ctx, repository.PaymentFilter{})
}

func (s *PaymentService) ListByUser(ctx context.Context, userID int64) ([]*model.Payment, error) {
	return s.payments.List(ctx, repository.PaymentFilter{UserID: &userID})
}

// Create registers a payment. With a key, a repeated request returns the first
// payment and replayed=true instead of inserting again.
func (s *PaymentService) Create(ctx context.Context, req model.PaymentCreateRequest, key string) (p *model.Payment, replayed bool, err error) {
	if err := validatePayment(req); err != nil {
		return nil, false, err
	}
	if key == "" || s.idem == nil {
		p, err = s.create(ctx, req)
		return p, false, err
	}

	claim, stored, err := s.idem.Acquire(ctx, key)
	switch {
	case errors.Is(err, idempotency.ErrAlreadyProcessed):
		var prev model.Payment
		if err := json.Unmarshal(stored, &prev); err != nil {
			return nil, false, fmt.Errorf("decode stored payment: %w", err)
		}
		return &prev, true, nil
	case errors.Is(err, idempotency.ErrLockAcquireFailed):
		return nil, false, fmt.Errorf("%w: idempotency key %s in progress", ErrConflict, key)
	case err != nil:
		return nil, false, err
	}

	p, err = s.create(ctx, req)
	if err != nil {
		_ = s.idem.Release(ctx, claim)
		return nil, false, err
	}
	b, err := json.Marshal(p)
	if err == nil {
		err = s.idem.Complete(ctx, claim, b)
	}
	if err != nil {
		// the row exists, only the replay marker is lost
		logger.Error("failed to store idempotent result", "key", key, "payment_id", p.ID, "error", err)
		_ = s.idem.Release(ctx, claim)
	}
	return p, false, nil
}

func validatePayment(req model.PaymentCreateRequest) error {
	if err := check(req, "userId", "transactionId", "paymentMethod", "amount"); err != nil {
		return err
	}
	if req.Status != "" && !req.Status.Valid() {
		return &ValidationError{Message: "Estado de pago inválido: " + string(req.Status), Fields: []string{"status"}}
	}
	return nil
}

func (s *PaymentService) create(ctx context.Context, req model.PaymentCreateRequest) (*model.Payment, error) {
	status := req.Status
	if status == "" {
		status = model.PaymentPending
	}
	date := time.Now().UTC()
	if req.PaymentDate != nil {
		date = req.PaymentDate.UTC()
	}

	var created *model.Payment
	err := s.payments.WithinTransaction(ctx, func(ctx context.Context) error {
		txn, err := s.transactions.GetByID(ctx, req.TransactionID)
		if errors.Is(err, repository.ErrTransactionNotFound) || (err == nil && txn.UserID != req.UserID) {
			return fmt.Errorf("%w: transacción %d no existe para el usuario %d", ErrUnknownReference, req.TransactionID, req.UserID)
		}
		if err != nil {
			return err
		}

		created, err = s.payments.Create(ctx, &model.Payment{
			UserID:        req.UserID,
			TransactionID: req.TransactionID,
			PaymentMethod: req.PaymentMethod,
			PaymentDate:   date,
			Amount:        *req.Amount,
			Status:        status,
			AdminNotes:    req.AdminNotes,
		})
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if status == model.PaymentCompleted {
			return s.transactions.SetEstado(ctx, txn.ID, model.TransactionApproved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	prom.IncPaymentRegistered("api", string(status))
	return created, nil
}
