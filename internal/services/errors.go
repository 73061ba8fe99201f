package services

import "errors"

var (
	ErrEmailTaken              = errors.New("email already registered")
	ErrParentNotFound          = errors.New("parent not found")
	ErrChildNotFound           = errors.New("child not found")
	ErrActivationTokenNotFound = errors.New("activation token not found")
	ErrActivationTokenExpired  = errors.New("activation token expired")
	ErrInvalidCredentials      = errors.New("incorrect password")
	ErrAccountInactive         = errors.New("account not activated")
	ErrInvalidInput            = errors.New("invalid input")
)
