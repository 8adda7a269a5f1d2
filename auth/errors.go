package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for both an unknown email and a
	// wrong password. Callers must not be able to tell which it was.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrFederation is returned when the identity-provider exchange fails
	// (network error, invalid code, revoked consent). Never collapsed
	// into "new user".
	ErrFederation = errors.New("identity provider sign-in failed")
)
