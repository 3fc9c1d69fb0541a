package domain

import "errors"

// Sentinel errors for every rejection the ledgers can produce. Operations
// check all preconditions before mutating anything, so any of these implies
// that no state changed.
var (
	// Validation errors: bad arguments, safe to retry with corrected input.
	ErrInvalidOptions  = errors.New("a project needs at least two options")
	ErrInvalidDeadline = errors.New("deadline must be in the future")
	ErrInvalidEscrow   = errors.New("initial escrow must be positive")
	ErrInvalidOption   = errors.New("option index out of range")
	ErrInvalidPrice    = errors.New("price must be positive")
	ErrInvalidAmount   = errors.New("amount must be positive")

	// Authorization errors: wrong caller, not retryable as-is.
	ErrNotOwner              = errors.New("caller does not own the ticket")
	ErrNotAuthorized         = errors.New("caller is not authorized to transfer the ticket")
	ErrNotCreator            = errors.New("caller is not the project creator")
	ErrNotSeller             = errors.New("caller is not the order seller")
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// State-conflict errors: the caller acted on a stale view.
	ErrAlreadyClaimed    = errors.New("already claimed")
	ErrAlreadySettled    = errors.New("project already settled")
	ErrProjectSettled    = errors.New("project is settled")
	ErrProjectNotSettled = errors.New("project is not settled yet")
	ErrProjectExpired    = errors.New("project deadline has passed")
	ErrNotYetExpired     = errors.New("project deadline has not passed yet")
	ErrAlreadyListed     = errors.New("ticket already has an active order")
	ErrOrderNotActive    = errors.New("order is not active")
	ErrNoActiveOrders    = errors.New("no active orders for this market segment")
	ErrNotWinningTicket  = errors.New("ticket did not back the winning option")

	// Value-mismatch errors: caller must adjust the amount.
	ErrWrongPayment        = errors.New("payment does not match the required price")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Lookup failures.
	ErrUnknownProject = errors.New("unknown project")
	ErrUnknownTicket  = errors.New("unknown ticket")
	ErrUnknownOrder   = errors.New("unknown order")
	ErrNotFound       = errors.New("not found")

	// Infrastructure.
	ErrRateLimited = errors.New("rate limited")
)
