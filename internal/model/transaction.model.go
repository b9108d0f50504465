package model

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the only stored state of a tax obligation, approval is derived from it.
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "Pendiente"
	TransactionApproved TransactionStatus = "Aprobada"
	TransactionRejected TransactionStatus = "Rechazada"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionPending, TransactionApproved, TransactionRejected:
		return true
	}
	return false
}

// ParseTransactionStatus accepts any casing, empty input maps to Pendiente.
func ParseTransactionStatus(s string) (TransactionStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pendiente", "pending":
		return TransactionPending, true
	case "aprobada", "approved":
		return TransactionApproved, true
	case "rechazada", "rejected":
		return TransactionRejected, true
	}
	return TransactionStatus(s), false
}

type Transaction struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"userId"`
	Referencia string            `json:"referencia"`
	Estado     TransactionStatus `json:"estado"`
	Fecha      string            `json:"fecha"`
	Valor      string            `json:"valor"`
	Concepto   string            `json:"concepto"`

	UserName     string `json:"userName,omitempty"`
	UserFullName string `json:"userFullName,omitempty"`
}

func (t *Transaction) IsApproved() bool {
	return t.Estado == TransactionApproved
}

type transactionJSON Transaction

// MarshalJSON adds the derived isApproved flag.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		transactionJSON
		IsApproved bool `json:"isApproved"`
	}{transactionJSON(t), t.IsApproved()})
}

// UnmarshalJSON ignores any isApproved sent by a peer, estado decides.
func (t *Transaction) UnmarshalJSON(b []byte) error {
	var v transactionJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = Transaction(v)
	return nil
}

type TransactionCreateRequest struct {
	UserID     int64             `json:"userId"     validate:"required"`
	Referencia string            `json:"referencia" validate:"required"`
	Estado     TransactionStatus `json:"estado"     validate:"required"`
	Fecha      string            `json:"fecha"      validate:"required"`
	Valor      string            `json:"valor"      validate:"required"`
	Concepto   string            `json:"concepto"   validate:"required"`
}

// ParseValor reads a formatted amount such as "COP $73,375.00".
func ParseValor(valor string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range valor {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(b.String())
}

// FormatValor renders an amount the way transactions store it, "COP $73,375.00".
func FormatValor(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "COP -$" + b.String() + "." + frac
	}
	return "COP $" + b.String() + "." + frac
}
