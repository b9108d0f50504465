package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/passwords"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/pkg/logger"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByCedula(ctx context.Context, cedula string, activeOnly bool) (*model.User, error)
	List(ctx context.Context, f repository.UserFilter) ([]*model.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) error
}

type UserService struct {
	users  UserRepository
	hasher PasswordHasher
}

func NewUserService(users UserRepository, hasher PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	return s.users.List(ctx, repository.UserFilter{})
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *UserService) Create(ctx context.Context, req model.UserCreateRequest) (*model.User, error) {
	req.Cedula = strings.TrimSpace(req.Cedula)
	if err := check(req, "cedula", "password", "name", "fullName"); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	created, err := s.users.Create(ctx, &model.User{
		Cedula:   req.Cedula,
		Password: hash,
		Name:     req.Name,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		IsActive: active,
	})
	if errors.Is(err, repository.ErrDuplicateCedula) {
		return nil, fmt.Errorf("%w: cedula %s", ErrConflict, req.Cedula)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// Login checks the credentials of an active user and stamps its last login.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.User, error) {
	if err := check(req, "cedula", "password"); err != nil {
		return nil, err
	}
	u, err := s.users.GetByCedula(ctx, strings.TrimSpace(req.Cedula), true)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := s.hasher.Verify(u.Password, req.Password); err != nil {
		if errors.Is(err, passwords.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		logger.Warn("failed to update last login", "user_id", u.ID, "error", err)
	} else {
		u.LastLogin = &now
	}
	return u, nil
}
