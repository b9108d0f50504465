package services

import (
	"context"
	"fmt"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/repository"
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	GetByID(ctx context.Context, id int64) (*model.Transaction, error)
	List(ctx context.Context, f repository.TransactionFilter) ([]*model.Transaction, error)
	SetEstado(ctx context.Context, id int64, estado model.TransactionStatus) error
}

type TransactionService struct {
	transactions TransactionRepository
	users        UserRepository
}

func NewTransactionService(transactions TransactionRepository, users UserRepository) *TransactionService {
	return &TransactionService{transactions: transactions, users: users}
}

func (s *TransactionService) List(ctx context.Context) ([]*model.Transaction, error) {
	return s.transactions.List(ctx, repository.TransactionFilter{})
}

func (s *TransactionService) ListByUser(ctx context.Context, userID int64) ([]*model.Transaction, error) {
	return s.transactions.List(ctx, repository.TransactionFilter{UserID: &userID})
}

func (s *TransactionService) Create(ctx context.Context, req model.TransactionCreateRequest) (*model.Transaction, error) {
	if err := check(req, "userId", "referencia", "estado", "fecha", "valor", "concepto"); err != nil {
		return nil, err
	}
	estado, ok := model.ParseTransactionStatus(string(req.Estado))
	if !ok {
		return nil, &ValidationError{Message: "Estado inválido: " + string(req.Estado), Fields: []string{"estado"}}
	}
	if err := ensureUser(ctx, s.users, req.UserID); err != nil {
		return nil, err
	}
	created, err := s.transactions.Create(ctx, &model.Transaction{
		UserID:     req.UserID,
		Referencia: req.Referencia,
		Estado:     estado,
		Fecha:      req.Fecha,
		Valor:      req.Valor,
		Concepto:   req.Concepto,
	})
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return created, nil
}
