package repository

import (
	"time"

	"github.com/nimasrn/hacienda/internal/model"
)

type TransactionEntity struct {
	ID         int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	UserID     int64     `db:"user_id"    gorm:"column:user_id;not null;index"`
	Referencia string    `db:"referencia" gorm:"column:referencia;not null;index"`
	Estado     string    `db:"estado"     gorm:"column:estado;not null"`
	Fecha      string    `db:"fecha"      gorm:"column:fecha;not null"`
	Valor      string    `db:"valor"      gorm:"column:valor;not null"`
	Concepto   string    `db:"concepto"   gorm:"column:concepto;not null"`
	CreatedAt  time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

type transactionRow struct {
	TransactionEntity `gorm:"embedded"`
	UserName          string `gorm:"column:user_name"`
	UserFullName      string `gorm:"column:user_full_name"`
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:         m.ID,
		UserID:     m.UserID,
		Referencia: m.Referencia,
		Estado:     string(m.Estado),
		Fecha:      m.Fecha,
		Valor:      m.Valor,
		Concepto:   m.Concepto,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:         e.ID,
		UserID:     e.UserID,
		Referencia: e.Referencia,
		Estado:     model.TransactionStatus(e.Estado),
		Fecha:      e.Fecha,
		Valor:      e.Valor,
		Concepto:   e.Concepto,
	}
}

func rowsToTransactionModels(rows []*transactionRow) []*model.Transaction {
	models := make([]*model.Transaction, len(rows))
	for i, r := range rows {
		m := toTransactionModel(&r.TransactionEntity)
		m.UserName = r.UserName
		m.UserFullName = r.UserFullName
		models[i] = m
	}
	return models
}
