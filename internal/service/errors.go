package service

import "errors"

// Failure kinds surfaced by admission and settlement. Handlers translate
// these into HTTP status codes; the scheduler treats ErrAlreadyResolved as a
// benign no-op and ErrNoBets as "leave pending".
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrBettingClosed     = errors.New("betting closed")
	ErrInvalidEntryFee   = errors.New("entry fee not allowed")
	ErrInvalidPrediction = errors.New("prediction is not one of the event options")
	ErrDuplicateEntry    = errors.New("user already has a position in this event")
	ErrInsufficientFunds = errors.New("insufficient points balance")
	ErrAlreadyResolved   = errors.New("event already resolved")
	ErrInvalidOutcome    = errors.New("winning outcome is not one of the event options")
	ErrNoBets            = errors.New("event has no bets")
	ErrAlreadyClaimed    = errors.New("daily claim already taken today")
	ErrUsernameTaken     = errors.New("username already registered")
)
