package core

import "errors"

// Decode failures.
var (
	ErrMalformed          = errors.New("malformed envelope encoding")
	ErrUnsupportedVersion = errors.New("unsupported envelope format version")
)

// Structural failures of an otherwise decodable envelope.
var (
	ErrBadStructure      = errors.New("envelope structure is not a valid challenge")
	ErrIdentityMismatch  = errors.New("operation identity does not match envelope source")
	ErrTooManySignatures = errors.New("envelope carries more than one signature")
	ErrNoSignature       = errors.New("envelope carries no signature")
)

// Authentication failures.
var (
	ErrNonceMismatch = errors.New("nonce was never issued or already consumed")
	ErrBadSignature  = errors.New("invalid signature")
)

// Identity and session-token failures.
var (
	ErrInvalidIdentity  = errors.New("invalid identity encoding")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalidated = errors.New("token has been invalidated")
	ErrInvalidToken     = errors.New("invalid token")
)

// Internal failures; surfaced to clients only as a generic error.
var (
	ErrNonceStore         = errors.New("nonce store failure")
	ErrCredentialIssuance = errors.New("credential issuance failure")
)
