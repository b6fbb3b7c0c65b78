package models

import "errors"

// Domain outcomes surfaced by the repository and service layers.
// The handler layer is the only place these are translated to HTTP codes.
var (
	// ErrValidation covers missing or empty required fields.
	ErrValidation = errors.New("required field is missing or empty")
	// ErrInvalidCredentials covers unknown username or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound covers both absent ids and ids owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateUsername signals a username uniqueness violation.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrUnsupportedMedia signals a file whose extension or declared
	// content type is outside the image allow-list.
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrPayloadTooLarge signals a file above the per-file size limit.
	ErrPayloadTooLarge = errors.New("file too large")
	// ErrTooManyFiles signals more files than allowed per request.
	ErrTooManyFiles = errors.New("too many files")
)
