package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested key does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrCorrupt is returned when a stored value cannot be decoded.
	ErrCorrupt = errors.New("persistence: corrupt value")
)

// CorruptValueError reports the key whose stored bytes failed to decode.
type CorruptValueError struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e *CorruptValueError) Error() string {
	if e == nil {
		return ""
	}
	return "persistence: corrupt value under " + e.Key + ": " + e.Err.Error()
}

// Unwrap returns the decoding error.
func (e *CorruptValueError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCorrupt.
func (e *CorruptValueError) Is(target error) bool {
	return target == ErrCorrupt
}
