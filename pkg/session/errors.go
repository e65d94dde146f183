package session

import "errors"

var (
	// ErrLastSession is returned when deleting the only remaining session.
	ErrLastSession = errors.New("cannot delete the last remaining session")

	// ErrNotFound is returned for an unknown session id.
	ErrNotFound = errors.New("session not found")

	// ErrNoSessions is returned when replacing the collection with an empty one.
	ErrNoSessions = errors.New("session collection must not be empty")
)
