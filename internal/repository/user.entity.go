package repository

import (
	"time"

	"github.com/nimasrn/hacienda/internal/model"
)

type UserEntity struct {
	ID        int64      `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	Cedula    string     `db:"cedula"     gorm:"column:cedula;not null;unique"`
	Password  string     `db:"password"   gorm:"column:password;not null"`
	Name      string     `db:"name"       gorm:"column:name;not null"`
	FullName  string     `db:"full_name"  gorm:"column:full_name;not null"`
	Email     *string    `db:"email"      gorm:"column:email"`
	Phone     *string    `db:"phone"      gorm:"column:phone"`
	IsActive  bool       `db:"is_active"  gorm:"column:is_active;not null"`
	CreatedAt time.Time  `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	LastLogin *time.Time `db:"last_login" gorm:"column:last_login"`
}

func (UserEntity) TableName() string {
	return "users"
}

func toUserEntity(m *model.User) *UserEntity {
	if m == nil {
		return nil
	}
	return &UserEntity{
		ID:        m.ID,
		Cedula:    m.Cedula,
		Password:  m.Password,
		Name:      m.Name,
		FullName:  m.FullName,
		Email:     m.Email,
		Phone:     m.Phone,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		LastLogin: m.LastLogin,
	}
}

func toUserModel(e *UserEntity) *model.User {
	if e == nil {
		return nil
	}
	return &model.User{
		ID:        e.ID,
		Cedula:    e.Cedula,
		Password:  e.Password,
		Name:      e.Name,
		FullName:  e.FullName,
		Email:     e.Email,
		Phone:     e.Phone,
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt,
		LastLogin: e.LastLogin,
	}
}

func toUserModels(entities []*UserEntity) []*model.User {
	models := make([]*model.User, len(entities))
	for i, e := range entities {
		models[i] = toUserModel(e)
	}
	return models
}
