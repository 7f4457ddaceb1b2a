package services

import "errors"

var (
	// ErrUnknownGame: the game has no resolvable threshold profile, so samples
	// for it cannot be graded. The /stat handler answers "ignored" instead of
	// failing, so a misconfigured agent keeps running.
	ErrUnknownGame = errors.New("unknown game: no threshold profile")

	// ErrEmptySession: a verdict was requested for a session with zero samples.
	ErrEmptySession = errors.New("session has no samples")

	// ErrNoOpenSession: an operation needed an open session and none exists.
	// EndSession deliberately swallows this (closing nothing is a no-op).
	ErrNoOpenSession = errors.New("no open session")

	ErrSessionNotFound = errors.New("session not found")
)
