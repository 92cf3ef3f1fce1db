package tokens

import "errors"

// Authentication failures. Handlers collapse all three into a generic
// unauthorized response; the audit trail keeps the specific reason.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
	ErrTokenExpired = errors.New("token expired")
)

// ErrPermissionDenied is the authorization failure: the credential is good
// but its scopes do not cover the required one. Mapped to a forbidden
// response, never to unauthorized.
var ErrPermissionDenied = errors.New("insufficient permissions")

var (
	// ErrNotFound is returned by management operations addressing a token id
	// that does not exist.
	ErrNotFound = errors.New("token not found")

	// ErrOwnerMissing means a valid token references a user row that is gone.
	// Structurally impossible with foreign keys intact; surfaced as an
	// internal failure, never to the credential presenter.
	ErrOwnerMissing = errors.New("token owner missing")

	// ErrInvalidTTL is returned for malformed expiry requests.
	ErrInvalidTTL = errors.New("invalid ttl")

	// ErrTTLTooLong is returned when a requested expiry exceeds the
	// configured maximum.
	ErrTTLTooLong = errors.New("requested ttl exceeds maximum")
)
