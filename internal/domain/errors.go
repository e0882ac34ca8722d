package domain

import "errors"

// Sentinel errors for the failure modes shared across entities.
// Callers match with errors.Is.
var (
	ErrAlreadyExists     = errors.New("already exists")
	ErrDoesNotExist      = errors.New("does not exist")
	ErrVersionAlreadySet = errors.New("version already set")
	ErrDeletedVersion    = errors.New("deleted version")
	ErrUnknownAsset      = errors.New("unknown asset")
	ErrMissingVersion    = errors.New("missing version")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
	// ErrInvalidMetadata marks a rejected metadata value, so the HTTP
	// layer can tell client mistakes from store failures.
	ErrInvalidMetadata = errors.New("is not valid")
)

// RetryableError marks a transport failure worth retrying
// (connection refused, timeout, upstream 5xx).
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// NonRetryableError marks a terminal transport failure
// (invalid URL or scheme, upstream 4xx).
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string { return e.Err.Error() }

func (e *NonRetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err should be retried by the
// object-store client.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
