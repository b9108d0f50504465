package repository

import (
	"context"
	"time"

	"github.com/nimasrn/hacienda/pkg/db"
	"gorm.io/gorm"
)

var gormExprInc = gorm.Expr("attempts + 1")

type OutboxRepository struct {
	*db.DB
}

func NewOutboxRepository(db *db.DB) *OutboxRepository {
	return &OutboxRepository{db}
}

func (r *OutboxRepository) Append(ctx context.Context, e *OutboxEntity) error {
	if e.Status == "" {
		e.Status = string(OutboxPending)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return r.Write(ctx).Create(e).Error
}

// ListByStatus returns entries in the order they were recorded.
func (r *OutboxRepository) ListByStatus(ctx context.Context, status OutboxStatus) ([]*OutboxEntity, error) {
	var entries []*OutboxEntity
	err := r.Read(ctx).
		Where("status = ?", string(status)).
		Order("created_at ASC").Order("id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *OutboxRepository) MarkReplayed(ctx context.Context, id int64, at time.Time) error {
	return r.Write(ctx).Model(&OutboxEntity{}).Where("id = ?", id).Updates(map[string]any{
		"status":      string(OutboxReplayed),
		"replayed_at": at,
		"attempts":    gormExprInc,
	}).Error
}

func (r *OutboxRepository) MarkConflict(ctx context.Context, id int64, reason string) error {
	return r.Write(ctx).Model(&OutboxEntity{}).Where("id = ?", id).Updates(map[string]any{
		"status":     string(OutboxConflict),
		"last_error": reason,
		"attempts":   gormExprInc,
	}).Error
}

// MarkAttempt keeps the entry pending and records why delivery failed.
func (r *OutboxRepository) MarkAttempt(ctx context.Context, id int64, reason string) error {
	return r.Write(ctx).Model(&OutboxEntity{}).Where("id = ?", id).Updates(map[string]any{
		"last_error": reason,
		"attempts":   gormExprInc,
	}).Error
}

func (r *OutboxRepository) CountByStatus(ctx context.Context, status OutboxStatus) (int64, error) {
	var n int64
	err := r.Read(ctx).Model(&OutboxEntity{}).Where("status = ?", string(status)).Count(&n).Error
	return n, err
}
