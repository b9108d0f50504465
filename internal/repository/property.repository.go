package repository

import (
	"context"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/pkg/db"
)

type PropertyFilter struct {
	UserID     *int64
	ActiveOnly bool
}

type PropertyRepository struct {
	*db.DB
}

func NewPropertyRepository(db *db.DB) *PropertyRepository {
	return &PropertyRepository{db}
}

func (r *PropertyRepository) Create(ctx context.Context, p *model.Property) (*model.Property, error) {
	entity := toPropertyEntity(p)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toPropertyModel(entity), nil
}

// List returns properties joined with the owner name, newest id first.
func (r *PropertyRepository) List(ctx context.Context, f PropertyFilter) ([]*model.Property, error) {
	q := r.Read(ctx).
		Table("properties p").
		Select("p.*, u.name AS user_name, u.full_name AS user_full_name").
		Joins("JOIN users u ON u.id = p.user_id")
	if f.UserID != nil {
		q = q.Where("p.user_id = ?", *f.UserID)
	}
	if f.ActiveOnly {
		q = q.Where("p.is_active = ?", true)
	}

	var rows []*propertyRow
	if err := q.Order("p.id DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToPropertyModels(rows), nil
}

func (r *PropertyRepository) Exists(ctx context.Context, userID int64, propertyNumber string) (bool, error) {
	var n int64
	err := r.Read(ctx).Model(&PropertyEntity{}).
		Where("user_id = ? AND property_number = ?", userID, propertyNumber).
		Count(&n).Error
	return n > 0, err
}

func (r *PropertyRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.Read(ctx).Model(&PropertyEntity{}).Count(&n).Error
	return n, err
}
