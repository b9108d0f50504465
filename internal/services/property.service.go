package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/repository"
)

type PropertyRepository interface {
	Create(ctx context.Context, p *model.Property) (*model.Property, error)
	List(ctx context.Context, f repository.PropertyFilter) ([]*model.Property, error)
}

type PropertyService struct {
	properties PropertyRepository
	users      UserRepository
}

func NewPropertyService(properties PropertyRepository, users UserRepository) *PropertyService {
	return &PropertyService{properties: properties, users: users}
}

func (s *PropertyService) List(ctx context.Context) ([]*model.Property, error) {
	return s.properties.List(ctx, repository.PropertyFilter{})
}

func (s *PropertyService) ListByUser(ctx context.Context, userID int64) ([]*model.Property, error) {
	return s.properties.List(ctx, repository.PropertyFilter{UserID: &userID})
}

func (s *PropertyService) Create(ctx context.Context, req model.PropertyCreateRequest) (*model.Property, error) {
	if err := check(req, "userId", "propertyNumber", "propertyType", "address"); err != nil {
		return nil, err
	}
	if err := ensureUser(ctx, s.users, req.UserID); err != nil {
		return nil, err
	}
	created, err := s.properties.Create(ctx, &model.Property{
		UserID:         req.UserID,
		PropertyNumber: req.PropertyNumber,
		PropertyType:   req.PropertyType,
		Address:        req.Address,
		IsActive:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("create property: %w", err)
	}
	return created, nil
}

func ensureUser(ctx context.Context, users UserRepository, id int64) error {
	_, err := users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("%w: usuario %d no existe", ErrUnknownReference, id)
	}
	return err
}
