package duel

import "errors"

var (
	// ErrInvalidState is returned when an operation does not apply to the
	// match's current state. The match is left untouched.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrUnknownPlayer is returned for a PlayerID other than Player1 or Player2.
	ErrUnknownPlayer = errors.New("unknown player")
)
