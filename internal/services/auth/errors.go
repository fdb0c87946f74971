package auth

import "errors"

// Validation errors. These are resolved locally, before any network
// call is made.
var (
	ErrEmailRequired    = errors.New("email is required")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrPasswordRequired = errors.New("password is required")
	ErrNameRequired     = errors.New("name is required")
)

// ErrMalformedResponse means the login or register response carried
// neither a nested {user, token} object nor a usable flat shape.
var ErrMalformedResponse = errors.New("invalid response format from server")
