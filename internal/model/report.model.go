package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Stats struct {
	TotalUsers          int64           `json:"totalUsers"`
	TotalProperties     int64           `json:"totalProperties"`
	TotalTransactions   int64           `json:"totalTransactions"`
	TotalPayments       int64           `json:"totalPayments"`
	ActiveUsers         int64           `json:"activeUsers"`
	PendingTransactions int64           `json:"pendingTransactions"`
	CompletedPayments   int64           `json:"completedPayments"`
	TotalCollected      decimal.Decimal `json:"totalCollected"`
}

// Dataset is the full dump served by export/all.
type Dataset struct {
	Users        []*User        `json:"users"`
	Properties   []*Property    `json:"properties"`
	Transactions []*Transaction `json:"transactions"`
	Payments     []*Payment     `json:"payments"`
}

// Export is the export/all response, exportDate sits next to data.
type Export struct {
	Success    bool      `json:"success"`
	ExportDate time.Time `json:"exportDate"`
	Data       Dataset   `json:"data"`
}
