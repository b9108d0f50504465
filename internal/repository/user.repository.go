package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/pkg/db"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateCedula = errors.New("cedula already exists")
)

// UserFilter controls List queries.
type UserFilter struct {
	ActiveOnly bool
	// order by full_name instead of newest first
	ByName bool
}

type UserRepository struct {
	*db.DB
}

func NewUserRepository(db *db.DB) *UserRepository {
	return &UserRepository{db}
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	entity := toUserEntity(u)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCedula
		}
		return nil, err
	}
	return toUserModel(entity), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var entity UserEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserModel(&entity), nil
}

func (r *UserRepository) GetByCedula(ctx context.Context, cedula string, activeOnly bool) (*model.User, error) {
	var entity UserEntity
	q := r.Read(ctx).Where("cedula = ?", cedula)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserModel(&entity), nil
}

func (r *UserRepository) List(ctx context.Context, f UserFilter) ([]*model.User, error) {
	q := r.Read(ctx).Model(&UserEntity{})
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.ByName {
		q = q.Order("full_name ASC")
	} else {
		q = q.Order("created_at DESC").Order("id DESC")
	}

	var entities []*UserEntity
	if err := q.Find(&entities).Error; err != nil {
		return nil, err
	}
	return toUserModels(entities), nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	res := r.Write(ctx).Model(&UserEntity{}).Where("id = ?", id).Update("last_login", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res := r.Write(ctx).Model(&UserEntity{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	var n int64
	q := r.Read(ctx).Model(&UserEntity{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Count(&n).Error
	return n, err
}
