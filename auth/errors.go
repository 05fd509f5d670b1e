package auth

import "errors"

// Authentication errors.
var (
	// ErrInvalidToken indicates the token is malformed or has an invalid signature.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates the token has expired.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidPrivateKey indicates the app private key could not be parsed.
	ErrInvalidPrivateKey = errors.New("invalid GitHub App private key")

	// ErrAppNotConfigured indicates an incomplete GitHub App configuration.
	ErrAppNotConfigured = errors.New("GitHub App not configured")

	// ErrNoToken indicates no credential is available.
	ErrNoToken = errors.New("no forge token available")
)
