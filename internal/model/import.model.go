package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Import records reference owners by cedula and transactions by referencia so
// files can move between stores whose ids differ.

type UserRecord struct {
	Cedula   string `json:"cedula"`
	Password string `json:"password,omitempty"`
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	IsActive bool   `json:"isActive"`
}

type PropertyRecord struct {
	UserCedula     string `json:"userCedula"`
	PropertyNumber string `json:"propertyNumber"`
	PropertyType   string `json:"propertyType"`
	Address        string `json:"address"`
}

type TransactionRecord struct {
	UserCedula string            `json:"userCedula"`
	Referencia string            `json:"referencia"`
	Estado     TransactionStatus `json:"estado"`
	Fecha      string            `json:"fecha"`
	Valor      string            `json:"valor"`
	Concepto   string            `json:"concepto"`
}

type PaymentRecord struct {
	UserCedula           string          `json:"userCedula"`
	TransactionReference string          `json:"transactionReference"`
	PaymentMethod        string          `json:"paymentMethod"`
	PaymentDate          time.Time       `json:"paymentDate"`
	Amount               decimal.Decimal `json:"amount"`
	Status               PaymentStatus   `json:"status"`
	AdminNotes           string          `json:"adminNotes,omitempty"`
}

type ImportBatch struct {
	Users        []UserRecord        `json:"users,omitempty"`
	Properties   []PropertyRecord    `json:"properties,omitempty"`
	Transactions []TransactionRecord `json:"transactions,omitempty"`
	Payments     []PaymentRecord     `json:"payments,omitempty"`
}

type ImportCount struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type ImportResult struct {
	Users        ImportCount `json:"users"`
	Properties   ImportCount `json:"properties"`
	Transactions ImportCount `json:"transactions"`
	Payments     ImportCount `json:"payments"`
}

func (r ImportResult) Imported() int {
	return r.Users.Imported + r.Properties.Imported + r.Transactions.Imported + r.Payments.Imported
}

// ImportBatch rewrites an id keyed dump into natural keys. Rows pointing at ids
// missing from the dump are dropped.
func (d Dataset) ImportBatch() ImportBatch {
	cedulas := make(map[int64]string, len(d.Users))
	var batch ImportBatch
	for _, u := range d.Users {
		cedulas[u.ID] = u.Cedula
		rec := UserRecord{
			Cedula:   u.Cedula,
			Name:     u.Name,
			FullName: u.FullName,
			IsActive: u.IsActive,
		}
		if u.Email != nil {
			rec.Email = *u.Email
		}
		if u.Phone != nil {
			rec.Phone = *u.Phone
		}
		batch.Users = append(batch.Users, rec)
	}
	for _, p := range d.Properties {
		ced, ok := cedulas[p.UserID]
		if !ok {
			continue
		}
		batch.Properties = append(batch.Properties, PropertyRecord{
			UserCedula:     ced,
			PropertyNumber: p.PropertyNumber,
			PropertyType:   p.PropertyType,
			Address:        p.Address,
		})
	}
	refs := make(map[int64]string, len(d.Transactions))
	for _, t := range d.Transactions {
		ced, ok := cedulas[t.UserID]
		if !ok {
			continue
		}
		refs[t.ID] = t.Referencia
		batch.Transactions = append(batch.Transactions, TransactionRecord{
			UserCedula: ced,
			Referencia: t.Referencia,
			Estado:     t.Estado,
			Fecha:      t.Fecha,
			Valor:      t.Valor,
			Concepto:   t.Concepto,
		})
	}
	for _, p := range d.Payments {
		ced, okU := cedulas[p.UserID]
		ref, okT := refs[p.TransactionID]
		if !okU || !okT {
			continue
		}
		rec := PaymentRecord{
			UserCedula:           ced,
			TransactionReference: ref,
			PaymentMethod:        p.PaymentMethod,
			PaymentDate:          p.PaymentDate,
			Amount:               p.Amount,
			Status:               p.Status,
		}
		if p.AdminNotes != nil {
			rec.AdminNotes = *p.AdminNotes
		}
		batch.Payments = append(batch.Payments, rec)
	}
	return batch
}
