package model

import "errors"

// Sentinel error kinds from the error handling design. Components wrap
// these with fmt.Errorf("...: %w", ErrX) so callers can classify failures
// with errors.Is without parsing message text.
var (
	// ErrConfigMissing means the desired spec document was not found.
	ErrConfigMissing = errors.New("desired spec not found")
	// ErrConfigMalformed means the desired spec document could not be
	// decoded; the cycle proceeds with an empty spec.
	ErrConfigMalformed = errors.New("desired spec malformed")
	// ErrSecretMissing means a user's password secret could not be found.
	ErrSecretMissing = errors.New("secret not found")
	// ErrDBTransient means a database operation failed in a way eligible
	// for retry on the next cycle (connection reset, timeout).
	ErrDBTransient = errors.New("transient database error")
	// ErrDBPermanent means a database operation failed for a reason that
	// will not resolve itself (syntax, permission, constraint).
	ErrDBPermanent = errors.New("permanent database error")
	// ErrStateIO means the last-applied state file could not be read or
	// written; the prior file is left untouched.
	ErrStateIO = errors.New("state store IO error")
	// ErrFatalStartup means the process cannot proceed at all (pool init
	// exhausted retries, no usable configuration).
	ErrFatalStartup = errors.New("fatal startup error")
)
