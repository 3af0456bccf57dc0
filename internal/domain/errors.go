package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrSpamRejected is the single user-facing anti-abuse failure.
	// Every gate stage collapses to this sentinel so error text cannot be used to tune evasion.
	ErrSpamRejected = errors.New("submission failed, try again")
	// ErrPermissionDenied covers edit attempts by callers who are neither the
	// author nor hold elevated rights. Precision is fine here: no abuse signal leaks.
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	// ErrPersistenceFailed signals a content-store failure after validation passed.
	// The pipeline does not retry; the caller must resubmit.
	ErrPersistenceFailed = errors.New("persistence failed")

	// Timing-token verification reasons. Internal only: the gate records the
	// distinction in the audit event and surfaces ErrSpamRejected.
	ErrTokenMalformed = errors.New("timing token malformed")
	ErrTokenSignature = errors.New("timing token signature mismatch")
	ErrTokenFuture    = errors.New("timing token issued in the future")
	ErrTokenExpired   = errors.New("timing token expired")
	ErrTokenTooFast   = errors.New("timing token below minimum elapsed time")
)
