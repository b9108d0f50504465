package repository

import (
	"time"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/shopspring/decimal"
)

type PaymentEntity struct {
	ID            int64           `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	UserID        int64           `db:"user_id"        gorm:"column:user_id;not null;index"`
	TransactionID int64           `db:"transaction_id" gorm:"column:transaction_id;not null;index"`
	PaymentMethod string          `db:"payment_method" gorm:"column:payment_method;not null"`
	PaymentDate   time.Time       `db:"payment_date"   gorm:"column:payment_date;not null"`
	Amount        decimal.Decimal `db:"amount"         gorm:"column:amount;type:numeric;not null"`
	Status        string          `db:"status"         gorm:"column:status;not null"`
	AdminNotes    *string         `db:"admin_notes"    gorm:"column:admin_notes"`
	CreatedAt     time.Time       `db:"created_at"     gorm:"column:created_at;autoCreateTime"`
}

func (PaymentEntity) TableName() string {
	return "payments"
}

type paymentRow struct {
	PaymentEntity      `gorm:"embedded"`
	UserName           string `gorm:"column:user_name"`
	UserFullName       string `gorm:"column:user_full_name"`
	UserCedula         string `gorm:"column:user_cedula"`
	TransactionRef     string `gorm:"column:transaction_ref"`
	TransactionConcept string `gorm:"column:transaction_concept"`
}

func toPaymentEntity(m *model.Payment) *PaymentEntity {
	if m == nil {
		return nil
	}
	return &PaymentEntity{
		ID:            m.ID,
		UserID:        m.UserID,
		TransactionID: m.TransactionID,
		PaymentMethod: m.PaymentMethod,
		PaymentDate:   m.PaymentDate,
		Amount:        m.Amount,
		Status:        string(m.Status),
		AdminNotes:    m.AdminNotes,
		CreatedAt:     m.CreatedAt,
	}
}

func toPaymentModel(e *PaymentEntity) *model.Payment {
	if e == nil {
		return nil
	}
	return &model.Payment{
		ID:            e.ID,
		UserID:        e.UserID,
		TransactionID: e.TransactionID,
		PaymentMethod: e.PaymentMethod,
		PaymentDate:   e.PaymentDate,
		Amount:        e.Amount,
		Status:        model.PaymentStatus(e.Status),
		AdminNotes:    e.AdminNotes,
		CreatedAt:     e.CreatedAt,
	}
}

func rowsToPaymentModels(rows []*paymentRow) []*model.Payment {
	models := make([]*model.Payment, len(rows))
	for i, r := range rows {
		m := toPaymentModel(&r.PaymentEntity)
		m.UserName = r.UserName
		m.UserFullName = r.UserFullName
		m.UserCedula = r.UserCedula
		m.TransactionRef = r.TransactionRef
		m.TransactionConcept = r.TransactionConcept
		models[i] = m
	}
	return models
}
