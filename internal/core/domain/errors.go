package domain

import "errors"

var (
	ErrAlreadyVoted     = errors.New("user has already voted for this idea")
	ErrNotVoted         = errors.New("user has not voted for this idea")
	ErrQuotaExhausted   = errors.New("no votes remaining this quarter")
	ErrNotAuthenticated = errors.New("user is not authenticated")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrIdeaNotFound     = errors.New("idea not found")
	ErrInvalidIdea      = errors.New("invalid idea")
	ErrInvalidStatus    = errors.New("invalid idea status")
	ErrForbidden        = errors.New("operation not permitted")
	ErrProfileNotFound  = errors.New("profile not found")
)

// UnavailableError marks a store failure that callers may retry.
type UnavailableError struct {
	err error
}

func NewUnavailableError(err error) error {
	if err == nil {
		return nil
	}
	return &UnavailableError{err: err}
}

func (e *UnavailableError) Error() string {
	return "store unavailable: " + e.err.Error()
}

func (e *UnavailableError) Unwrap() error {
	return e.err
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// IsRetryable reports whether err is a transient store failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
