package service

import "errors"

var (
	ErrUsernameTaken       = errors.New("username already exists")
	ErrPhoneTaken          = errors.New("phone number already in use")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidRole         = errors.New("role must be either Admin or Client")
	ErrNothingToUpdate     = errors.New("no fields to update")
)
