package model

import "time"

type Property struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	PropertyNumber string    `json:"propertyNumber"`
	PropertyType   string    `json:"propertyType"`
	Address        string    `json:"address"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`

	UserName     string `json:"userName,omitempty"`
	UserFullName string `json:"userFullName,omitempty"`
}

type PropertyCreateRequest struct {
	UserID         int64  `json:"userId"         validate:"required"`
	PropertyNumber string `json:"propertyNumber" validate:"required"`
	PropertyType   string `json:"propertyType"   validate:"required"`
	Address        string `json:"address"        validate:"required"`
}
