// Package common — errors.go defines the sentinel errors shared by every
// feature of the bot. Handlers switch on them with errors.Is to pick the
// reply the user sees.
package common

import (
	"errors"
	"fmt"
)

// Ranking errors (daily play, stats).
var (
	// ErrAlreadyPlayedToday — the player already used /jogar on this local date.
	ErrAlreadyPlayedToday = errors.New("already played today")
	// ErrNotFound — no record for the requested player/duel. Expected, not a failure.
	ErrNotFound = errors.New("not found")
	// ErrStorage — the store failed (timeout, connection, query). Nothing was mutated.
	ErrStorage = errors.New("storage error")
	// ErrCallerNotFound — the user issuing a command has no record in the chat yet.
	ErrCallerNotFound = fmt.Errorf("caller: %w", ErrNotFound)
)

// ErrInvalidArgument is the parent of every "malformed or impossible
// command argument" error below.
var ErrInvalidArgument = errors.New("invalid argument")

// Transfer and duel errors. All of them wrap ErrInvalidArgument except
// the duel state errors.
var (
	// ErrInvalidAmount — amount is zero, negative or not a number.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be a positive integer", ErrInvalidArgument)
	// ErrSelfTransfer — donation to yourself.
	ErrSelfTransfer = fmt.Errorf("%w: cannot donate to yourself", ErrInvalidArgument)
	// ErrInsufficientScore — the sender does not have that many points.
	ErrInsufficientScore = fmt.Errorf("%w: insufficient score", ErrInvalidArgument)
	// ErrSelfDuel — challenging yourself.
	ErrSelfDuel = fmt.Errorf("%w: cannot duel yourself", ErrInvalidArgument)
	// ErrMissingTarget — command needs a @user argument.
	ErrMissingTarget = fmt.Errorf("%w: missing target user", ErrInvalidArgument)

	// ErrDuelAlreadyPending — the defender already has a pending duel in this chat.
	ErrDuelAlreadyPending = errors.New("duel already pending")
	// ErrDuelNotPending — the duel was resolved or expired concurrently.
	ErrDuelNotPending = errors.New("duel is not pending")
)
