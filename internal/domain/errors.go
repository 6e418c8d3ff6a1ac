package domain

import "errors"

// Precondition violations surfaced verbatim to callers. A failed operation
// leaves the store exactly as it was.
var (
	ErrNotOperational     = errors.New("ledger is not operational")
	ErrUnauthorized       = errors.New("caller is not authorized")
	ErrNotFunded          = errors.New("airline must provide funding")
	ErrNotRegistered      = errors.New("airline must be registered")
	ErrDuplicateVote      = errors.New("caller cannot vote twice for the same candidate")
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrUnknownFlight      = errors.New("flight is not registered")
	ErrAlreadyProcessed   = errors.New("flight status already processed")
	ErrAlreadyBooked      = errors.New("passenger already booked this flight")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrInsuranceOverCap   = errors.New("insurance amount exceeds the cap")
	ErrNothingToWithdraw  = errors.New("nothing to withdraw")
	ErrOracleNotRegistered = errors.New("oracle is not registered")
	ErrIndexMismatch      = errors.New("index does not match an assigned oracle index")
	ErrRequestClosed      = errors.New("request is closed")
	ErrDuplicateResponse  = errors.New("oracle already responded to this request")
)
