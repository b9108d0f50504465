package model

import "time"

type User struct {
	ID        int64      `json:"id"`
	Cedula    string     `json:"cedula"`
	Password  string     `json:"-"` // bcrypt hash, empty when the record came from a remote export
	Name      string     `json:"name"`
	FullName  string     `json:"fullName"`
	Email     *string    `json:"email"`
	Phone     *string    `json:"phone"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin"`
}

// UserCreateRequest carries a plaintext password, it is hashed before storage.
type UserCreateRequest struct {
	Cedula   string  `json:"cedula"   validate:"required"`
	Password string  `json:"password" validate:"required"`
	Name     string  `json:"name"     validate:"required"`
	FullName string  `json:"fullName" validate:"required"`
	Email    *string `json:"email,omitempty"    validate:"omitempty,email"`
	Phone    *string `json:"phone,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

type LoginRequest struct {
	Cedula   string `json:"cedula"   validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreatedID is the data of every create response.
type CreatedID struct {
	ID int64 `json:"id"`
}
