package domain

import "errors"

var (
	// ErrUnauthorized is terminal: the server rejected the credentials or
	// token. Retrying without re-authenticating cannot succeed.
	ErrUnauthorized = errors.New("authorization rejected")

	ErrNoSession       = errors.New("no active session")
	ErrStateKeyMissing = errors.New("state key not found")
)

// TransientError wraps failures worth retrying: timeouts, connectivity
// loss, server unavailability.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func IsTerminal(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
