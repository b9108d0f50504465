package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts travel as json numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

const DefaultPaymentMethod = "Efectivo"

type Payment struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"userId"`
	TransactionID int64           `json:"transactionId"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentDate   time.Time       `json:"paymentDate"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"status"`
	AdminNotes    *string         `json:"adminNotes"`
	CreatedAt     time.Time       `json:"createdAt"`

	UserName           string `json:"userName,omitempty"`
	UserFullName       string `json:"userFullName,omitempty"`
	UserCedula         string `json:"userCedula,omitempty"`
	TransactionRef     string `json:"transactionRef,omitempty"`
	TransactionConcept string `json:"transactionConcept,omitempty"`
}

type PaymentCreateRequest struct {
	UserID        int64            `json:"userId"        validate:"required"`
	TransactionID int64            `json:"transactionId" validate:"required"`
	PaymentMethod string           `json:"paymentMethod" validate:"required"`
	Amount        *decimal.Decimal `json:"amount"        validate:"required"`
	PaymentDate   *time.Time       `json:"paymentDate,omitempty"`
	Status        PaymentStatus    `json:"status,omitempty"`
	AdminNotes    *string          `json:"adminNotes,omitempty"`
}

// PaymentInput is what a citizen submits when paying a transaction on the device.
type PaymentInput struct {
	PaymentMethod string          `json:"paymentMethod"`
	Amount        decimal.Decimal `json:"amount"`
	AdminNotes    *string         `json:"adminNotes,omitempty"`
}

// PaymentExport is one entry of the shareable payments document.
type PaymentExport struct {
	ID                   int64           `json:"id"`
	UserCedula           string          `json:"userCedula"`
	UserFullName         string          `json:"userFullName"`
	TransactionReference string          `json:"transactionReference"`
	TransactionConcept   string          `json:"transactionConcept"`
	PaymentMethod        string          `json:"paymentMethod"`
	PaymentDate          time.Time       `json:"paymentDate"`
	Amount               decimal.Decimal `json:"amount"`
	Status               PaymentStatus   `json:"status"`
	AdminNotes           *string         `json:"adminNotes"`
	CreatedAt            time.Time       `json:"createdAt"`
}
