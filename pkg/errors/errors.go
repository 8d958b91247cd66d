package errors

import "errors"

// Business errors surfaced to callers. Handlers map these to HTTP statuses;
// services compare with errors.Is. Anything not listed here is treated as a
// storage failure and bubbles up wrapped.
var (
	// Accounts & auth
	ErrEmailTaken           = errors.New("email already registered")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountDisabled      = errors.New("account disabled")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidRegistration  = errors.New("invalid registration payload")
	ErrTooManyLoginAttempts = errors.New("too many failed login attempts")

	// Ledger
	ErrInvalidBet        = errors.New("bet amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSessionNotFound   = errors.New("game session not found")

	// Round engine
	ErrEmptyDeck       = errors.New("deck is empty")
	ErrRoundSettled    = errors.New("round already settled")
	ErrRoundInProgress = errors.New("a round is already in progress")
	ErrNoActiveRound   = errors.New("no active round")
)
