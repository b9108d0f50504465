package repository

import (
	"context"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/pkg/db"
	"github.com/shopspring/decimal"
)

type PaymentFilter struct {
	UserID        *int64
	TransactionID *int64
}

type PaymentRepository struct {
	*db.DB
}

func NewPaymentRepository(db *db.DB) *PaymentRepository {
	return &PaymentRepository{db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	entity := toPaymentEntity(p)
	if entity.Status == "" {
		entity.Status = string(model.PaymentPending)
	}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toPaymentModel(entity), nil
}

// List returns payments joined with the payer and the paid transaction, newest first.
func (r *PaymentRepository) List(ctx context.Context, f PaymentFilter) ([]*model.Payment, error) {
	q := r.Read(ctx).
		Table("payments p").
		Select("p.*, u.name AS user_name, u.full_name AS user_full_name, u.cedula AS user_cedula, " +
			"t.referencia AS transaction_ref, t.concepto AS transaction_concept").
		Joins("JOIN users u ON u.id = p.user_id").
		Joins("JOIN transactions t ON t.id = p.transaction_id")
	if f.UserID != nil {
		q = q.Where("p.user_id = ?", *f.UserID)
	}
	if f.TransactionID != nil {
		q = q.Where("p.transaction_id = ?", *f.TransactionID)
	}

	var rows []*paymentRow
	if err := q.Order("p.created_at DESC").Order("p.id DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToPaymentModels(rows), nil
}

func (r *PaymentRepository) ExistsForTransaction(ctx context.Context, transactionID int64) (bool, error) {
	var n int64
	err := r.Read(ctx).Model(&PaymentEntity{}).Where("transaction_id = ?", transactionID).Count(&n).Error
	return n > 0, err
}

func (r *PaymentRepository) Count(ctx context.Context, status *model.PaymentStatus) (int64, error) {
	var n int64
	q := r.Read(ctx).Model(&PaymentEntity{})
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}
	err := q.Count(&n).Error
	return n, err
}

// SumCompleted adds up the amount of every completed payment.
func (r *PaymentRepository) SumCompleted(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.Read(ctx).Model(&PaymentEntity{}).
		Select("SUM(amount)").
		Where("status = ?", string(model.PaymentCompleted)).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
