package storage

import "errors"

// ErrNotFound matches any NotFoundError via errors.Is.
var ErrNotFound = errors.New("key not found")

// NotFoundError is returned when a key has no stored value.
type NotFoundError struct {
	Key string
}

func (e NotFoundError) Error() string {
	if e.Key == "" {
		return ErrNotFound.Error()
	}

	return ErrNotFound.Error() + ": " + e.Key
}

// Is reports whether target is ErrNotFound.
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
