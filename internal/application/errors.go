package application

import "errors"

var (
	// ErrAlreadyExists marks a sign-up attempt that reuses a registered email.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials marks a sign-in attempt with no matching account.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
)
