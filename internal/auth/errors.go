package auth

import (
	"errors"

	"github.com/mrlokans/heartcheck/internal/config"
)

var (
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrMalformedToken      = errors.New("malformed token")
	ErrBadSignature        = errors.New("token signature mismatch")
	ErrExpired             = errors.New("token expired")
	ErrMissingSubjectClaim = errors.New("token has no subject claim")
	ErrUnknownSubject      = errors.New("token subject does not resolve to a user")
	ErrInvalidHashFormat   = errors.New("stored password hash is malformed")

	// ErrConfiguration is fatal at startup; it is shared with the config package.
	ErrConfiguration = config.ErrConfiguration
)

// Input validation errors
var (
	ErrFullNameRequired = errors.New("full name is required")
	ErrEmailInvalid     = errors.New("invalid email format")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
)

// unauthenticated lists every failure that collapses to a 401 at the router.
var unauthenticated = []error{
	ErrMalformedToken,
	ErrBadSignature,
	ErrExpired,
	ErrMissingSubjectClaim,
	ErrUnknownSubject,
}

// IsUnauthenticated reports whether err is a token or subject failure.
func IsUnauthenticated(err error) bool {
	for _, kind := range unauthenticated {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// FailureReason returns a stable identifier for an authentication failure,
// suitable for logs and audit records but not for clients.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrMissingSubjectClaim):
		return "missing_subject"
	case errors.Is(err, ErrUnknownSubject):
		return "unknown_subject"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrInvalidHashFormat):
		return "invalid_hash_format"
	default:
		return "internal_error"
	}
}
