package session

import "errors"

var (
	// ErrNotFound is returned when no session matches the given token or ID.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is returned when a session exists but is past its expiration.
	ErrExpired = errors.New("session has expired")
	// ErrTokenGeneration is returned when the random token source fails.
	ErrTokenGeneration = errors.New("failed to generate session token")
	// ErrSaveSession is returned when persisting a session fails.
	ErrSaveSession = errors.New("failed to save session")
	// ErrDeleteSession is returned when deleting a session fails.
	ErrDeleteSession = errors.New("failed to delete session")
)
