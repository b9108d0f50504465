package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/pkg/db"
	"gorm.io/gorm"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type TransactionFilter struct {
	UserID *int64
	Estado *model.TransactionStatus
	// exclude approved transactions
	Unpaid bool
}

type TransactionRepository struct {
	*db.DB
}

func NewTransactionRepository(db *db.DB) *TransactionRepository {
	return &TransactionRepository{db}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(txn)
	if entity.Estado == "" {
		entity.Estado = string(model.TransactionPending)
	}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toTransactionModel(entity), nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	var entity TransactionEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return toTransactionModel(&entity), nil
}

func (r *TransactionRepository) GetByReference(ctx context.Context, userID int64, referencia string) (*model.Transaction, error) {
	var entity TransactionEntity
	err := r.Read(ctx).
		Where("user_id = ? AND referencia = ?", userID, referencia).
		Order("id ASC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return toTransactionModel(&entity), nil
}

// List returns transactions joined with the owner name, most recent fecha first.
func (r *TransactionRepository) List(ctx context.Context, f TransactionFilter) ([]*model.Transaction, error) {
	q := r.Read(ctx).
		Table("transactions t").
		Select("t.*, u.name AS user_name, u.full_name AS user_full_name").
		Joins("JOIN users u ON u.id = t.user_id")
	if f.UserID != nil {
		q = q.Where("t.user_id = ?", *f.UserID)
	}
	if f.Estado != nil {
		q = q.Where("t.estado = ?", string(*f.Estado))
	}
	if f.Unpaid {
		q = q.Where("t.estado <> ?", string(model.TransactionApproved))
	}

	var rows []*transactionRow
	if err := q.Order("t.fecha DESC").Order("t.id DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToTransactionModels(rows), nil
}

func (r *TransactionRepository) SetEstado(ctx context.Context, id int64, estado model.TransactionStatus) error {
	res := r.Write(ctx).Model(&TransactionEntity{}).Where("id = ?", id).Update("estado", string(estado))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) Count(ctx context.Context, estado *model.TransactionStatus, notEstado *model.TransactionStatus) (int64, error) {
	var n int64
	q := r.Read(ctx).Model(&TransactionEntity{})
	if estado != nil {
		q = q.Where("estado = ?", string(*estado))
	}
	if notEstado != nil {
		q = q.Where("estado <> ?", string(*notEstado))
	}
	err := q.Count(&n).Error
	return n, err
}
