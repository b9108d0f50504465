package repository

import "time"

type OutboxStatus string

const (
	OutboxPending  OutboxStatus = "pending"
	OutboxReplayed OutboxStatus = "replayed"
	OutboxConflict OutboxStatus = "conflict"
)

type OutboxEntity struct {
	ID         int64      `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	Key        string     `db:"key"         gorm:"column:key;not null;unique"`
	Kind       string     `db:"kind"        gorm:"column:kind;not null"`
	Payload    string     `db:"payload"     gorm:"column:payload;not null"`
	Status     string     `db:"status"      gorm:"column:status;not null"`
	Attempts   int        `db:"attempts"    gorm:"column:attempts;not null"`
	LastError  *string    `db:"last_error"  gorm:"column:last_error"`
	CreatedAt  time.Time  `db:"created_at"  gorm:"column:created_at;not null"`
	ReplayedAt *time.Time `db:"replayed_at" gorm:"column:replayed_at"`
}

func (OutboxEntity) TableName() string {
	return "outbox_entries"
}
