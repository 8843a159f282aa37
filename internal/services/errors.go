package services

import "errors"

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTaskNotFound       = errors.New("task not found")
	ErrForbidden          = errors.New("task belongs to another user")
	ErrNoSession          = errors.New("no session")
)
