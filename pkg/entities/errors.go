package entities

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrEmptyCategory  = errors.New("category is empty")
	ErrAlreadyExists  = errors.New("already exists")
	ErrAlreadyDecided = errors.New("submission already decided")
	ErrValidation     = errors.New("validation failed")
)

// PersistenceError wraps a storage failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// GatewayError wraps a failed messaging gateway call.
type GatewayError struct {
	Method string
	Err    error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway: %s: %v", e.Method, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
