package services

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidAssignee    = errors.New("givenTo must reference an existing staff user")
	ErrValidation         = errors.New("validation failed")
)
