package outbox

import (
	"time"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindPayment     Kind = "payment"
	KindProperty    Kind = "property"
	KindTransaction Kind = "transaction"
)

// Payloads name the owner by cedula and transactions by referencia, local ids
// mean nothing on the server.

type PaymentPayload struct {
	UserCedula           string          `json:"userCedula"`
	TransactionReference string          `json:"transactionReference"`
	PaymentMethod        string          `json:"paymentMethod"`
	PaymentDate          time.Time       `json:"paymentDate"`
	Amount               decimal.Decimal `json:"amount"`
	AdminNotes           *string         `json:"adminNotes,omitempty"`
}

type PropertyPayload struct {
	UserCedula     string `json:"userCedula"`
	PropertyNumber string `json:"propertyNumber"`
	PropertyType   string `json:"propertyType"`
	Address        string `json:"address"`
}

type TransactionPayload struct {
	UserCedula string                  `json:"userCedula"`
	Referencia string                  `json:"referencia"`
	Estado     model.TransactionStatus `json:"estado"`
	Fecha      string                  `json:"fecha"`
	Valor      string                  `json:"valor"`
	Concepto   string                  `json:"concepto"`
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusReplayed Status = "replayed"
	StatusConflict Status = "conflict"
)

type Entry struct {
	ID         int64      `json:"id"`
	Key        string     `json:"key"`
	Kind       Kind       `json:"kind"`
	Payload    string     `json:"payload"`
	Status     Status     `json:"status"`
	Attempts   int        `json:"attempts"`
	LastError  *string    `json:"lastError,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	ReplayedAt *time.Time `json:"replayedAt,omitempty"`
}
