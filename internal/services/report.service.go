package services

import (
	"context"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/shopspring/decimal"
)

type UserCounter interface {
	List(ctx context.Context, f repository.UserFilter) ([]*model.User, error)
	Count(ctx context.Context, activeOnly bool) (int64, error)
}

type PropertyCounter interface {
	List(ctx context.Context, f repository.PropertyFilter) ([]*model.Property, error)
	Count(ctx context.Context) (int64, error)
}

type TransactionCounter interface {
	List(ctx context.Context, f repository.TransactionFilter) ([]*model.Transaction, error)
	Count(ctx context.Context, estado, notEstado *model.TransactionStatus) (int64, error)
}

type PaymentCounter interface {
	List(ctx context.Context, f repository.PaymentFilter) ([]*model.Payment, error)
	Count(ctx context.Context, status *model.PaymentStatus) (int64, error)
	SumCompleted(ctx context.Context) (decimal.Decimal, error)
}

// ReportService serves the aggregate and dump endpoints.
type ReportService struct {
	users        UserCounter
	properties   PropertyCounter
	transactions TransactionCounter
	payments     PaymentCounter
}

func NewReportService(users UserCounter, properties PropertyCounter, transactions TransactionCounter, payments PaymentCounter) *ReportService {
	return &ReportService{users: users, properties: properties, transactions: transactions, payments: payments}
}

func (s *ReportService) Stats(ctx context.Context) (*model.Stats, error) {
	var (
		st  model.Stats
		err error
	)
	approved := model.TransactionApproved
	completed := model.PaymentCompleted

	if st.TotalUsers, err = s.users.Count(ctx, false); err != nil {
		return nil, err
	}
	if st.ActiveUsers, err = s.users.Count(ctx, true); err != nil {
		return nil, err
	}
	if st.TotalProperties, err = s.properties.Count(ctx); err != nil {
		return nil, err
	}
	if st.TotalTransactions, err = s.transactions.Count(ctx, nil, nil); err != nil {
		return nil, err
	}
	// pending means not approved, rejected ones included
	if st.PendingTransactions, err = s.transactions.Count(ctx, nil, &approved); err != nil {
		return nil, err
	}
	if st.TotalPayments, err = s.payments.Count(ctx, nil); err != nil {
		return nil, err
	}
	if st.CompletedPayments, err = s.payments.Count(ctx, &completed); err != nil {
		return nil, err
	}
	if st.TotalCollected, err = s.payments.SumCompleted(ctx); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *ReportService) Export(ctx context.Context) (*model.Dataset, error) {
	var (
		d   model.Dataset
		err error
	)
	if d.Users, err = s.users.List(ctx, repository.UserFilter{}); err != nil {
		return nil, err
	}
	if d.Properties, err = s.properties.List(ctx, repository.PropertyFilter{}); err != nil {
		return nil, err
	}
	if d.Transactions, err = s.transactions.List(ctx, repository.TransactionFilter{}); err != nil {
		return nil, err
	}
	if d.Payments, err = s.payments.List(ctx, repository.PaymentFilter{}); err != nil {
		return nil, err
	}
	if d.Users == nil {
		d.Users = []*model.User{}
	}
	if d.Properties == nil {
		d.Properties = []*model.Property{}
	}
	if d.Transactions == nil {
		d.Transactions = []*model.Transaction{}
	}
	if d.Payments == nil {
		d.Payments = []*model.Payment{}
	}
	return &d, nil
}
