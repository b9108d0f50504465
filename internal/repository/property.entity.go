package repository

import (
	"time"

	"github.com/nimasrn/hacienda/internal/model"
)

type PropertyEntity struct {
	ID             int64     `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	UserID         int64     `db:"user_id"         gorm:"column:user_id;not null;index"`
	PropertyNumber string    `db:"property_number" gorm:"column:property_number;not null"`
	PropertyType   string    `db:"property_type"   gorm:"column:property_type;not null"`
	Address        string    `db:"address"         gorm:"column:address;not null"`
	IsActive       bool      `db:"is_active"       gorm:"column:is_active;not null"`
	CreatedAt      time.Time `db:"created_at"      gorm:"column:created_at;autoCreateTime"`
}

func (PropertyEntity) TableName() string {
	return "properties"
}

// propertyRow is a property joined with its owner.
type propertyRow struct {
	PropertyEntity `gorm:"embedded"`
	UserName       string `gorm:"column:user_name"`
	UserFullName   string `gorm:"column:user_full_name"`
}

func toPropertyEntity(m *model.Property) *PropertyEntity {
	if m == nil {
		return nil
	}
	return &PropertyEntity{
		ID:             m.ID,
		UserID:         m.UserID,
		PropertyNumber: m.PropertyNumber,
		PropertyType:   m.PropertyType,
		Address:        m.Address,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
	}
}

func toPropertyModel(e *PropertyEntity) *model.Property {
	if e == nil {
		return nil
	}
	return &model.Property{
		ID:             e.ID,
		UserID:         e.UserID,
		PropertyNumber: e.PropertyNumber,
		PropertyType:   e.PropertyType,
		Address:        e.Address,
		IsActive:       e.IsActive,
		CreatedAt:      e.CreatedAt,
	}
}

func rowsToPropertyModels(rows []*propertyRow) []*model.Property {
	models := make([]*model.Property, len(rows))
	for i, r := range rows {
		m := toPropertyModel(&r.PropertyEntity)
		m.UserName = r.UserName
		m.UserFullName = r.UserFullName
		models[i] = m
	}
	return models
}
