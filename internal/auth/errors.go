package auth

import "errors"

var (
	// ErrSourceUnavailable means the credential store could not be read.
	// Login must be refused; there is no fallback to stale credentials.
	ErrSourceUnavailable = errors.New("credential source unavailable")

	// ErrInvalidCredential is returned for both unknown usernames and wrong
	// secrets.
	ErrInvalidCredential = errors.New("invalid credentials")

	// ErrMalformedRecord marks a raw record that was skipped during
	// normalization.
	ErrMalformedRecord = errors.New("malformed credential record")
)
