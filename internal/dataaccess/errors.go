package dataaccess

import (
	"errors"
	"fmt"

	"github.com/nimasrn/hacienda/internal/localstore"
	"github.com/nimasrn/hacienda/internal/model"
)

var (
	ErrOffline            = errors.New("remote api is offline")
	ErrInvalidCredentials = localstore.ErrInvalidCredentials
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
)

// RemoteError is a request the server answered with a failure.
type RemoteError struct {
	Status  int
	Message string
	Detail  string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("remote %d: %s (%s)", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("remote %d: %s", e.Status, e.Message)
}

func remoteError[T any](env model.Envelope[T]) error {
	if env.Transport() {
		return fmt.Errorf("%w: %s", ErrOffline, env.Error)
	}
	return &RemoteError{Status: env.StatusCode, Message: env.Message, Detail: env.Error}
}

func invalid(missing, bad []string) error {
	fields := append(append([]string(nil), missing...), bad...)
	return fmt.Errorf("%w: %v", ErrInvalidInput, fields)
}
