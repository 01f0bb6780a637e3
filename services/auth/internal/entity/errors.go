package entity

import "errors"

var (
	ErrValidation            = errors.New("validation failed")
	ErrAllFieldsRequired     = errors.New("all fields are required")
	ErrDuplicateEmail        = errors.New("user with this email already exists")
	ErrNotFound              = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrAlreadyVerified       = errors.New("user is already verified")
	ErrEmailDeliveryFailed   = errors.New("email could not be sent")
)

// ErrStorageUnavailable is returned when avatar storage is not configured.
var ErrStorageUnavailable = errors.New("file storage is not configured")
