package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound  = errors.New("not_found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid")
	// ErrDuplicate indicates an import record already exists for the
	// (user, external id, source) dedup key.
	ErrDuplicate = errors.New("duplicate")
	// ErrNoBaseCurrency indicates no currency is marked as base, so no
	// conversion is possible.
	ErrNoBaseCurrency = errors.New("no_base_currency")
	// ErrSplitMismatch indicates category split amounts do not sum to the
	// entry total.
	ErrSplitMismatch = errors.New("split_mismatch")
	// ErrSystemCategory indicates a system category cannot be modified or
	// deleted.
	ErrSystemCategory = errors.New("system_category")
)
