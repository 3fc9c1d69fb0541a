package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// EventKind identifies the type of a committed ledger event.
type EventKind string

const (
	EventProjectCreated    EventKind = "project_created"
	EventTicketPurchased   EventKind = "ticket_purchased"
	EventProjectSettled    EventKind = "project_settled"
	EventWinningsClaimed   EventKind = "winnings_claimed"
	EventTicketListed      EventKind = "ticket_listed"
	EventOrderCancelled    EventKind = "order_cancelled"
	EventOrderFilled       EventKind = "order_filled"
	EventTicketTransferred EventKind = "ticket_transferred"
	EventTicketApproved    EventKind = "ticket_approved"
	EventOperatorApproval  EventKind = "operator_approval"
	EventCreditGranted     EventKind = "credit_granted"
	EventCreditTransferred EventKind = "credit_transferred"
	EventCreditApproved    EventKind = "credit_approved"
	EventWithdrawal        EventKind = "withdrawal"
)

// Event is the durable record emitted by every successful mutating operation:
// exactly one per commit, none on failure. Seq is the engine's global commit
// sequence; the payload is one of the typed structs below.
type Event struct {
	ID      uuid.UUID      `json:"id"`
	Seq     uint64         `json:"seq"`
	Kind    EventKind      `json:"kind"`
	Actor   common.Address `json:"actor"`
	Time    time.Time      `json:"time"`
	Payload any            `json:"payload"`
}

// ProjectCreatedPayload records a new project and its initial escrow.
type ProjectCreatedPayload struct {
	ProjectID   uint64         `json:"project_id"`
	Creator     common.Address `json:"creator"`
	Title       string         `json:"title"`
	Options     []string       `json:"options"`
	PoolBalance uint64         `json:"pool_balance"`
	Deadline    time.Time      `json:"deadline"`
}

// TicketPurchasedPayload records a primary-market ticket sale.
type TicketPurchasedPayload struct {
	ProjectID   uint64         `json:"project_id"`
	TicketID    uint64         `json:"ticket_id"`
	Buyer       common.Address `json:"buyer"`
	OptionIndex int            `json:"option_index"`
	Price       uint64         `json:"price"`
}

// ProjectSettledPayload records the winning option and the payout split.
type ProjectSettledPayload struct {
	ProjectID      uint64 `json:"project_id"`
	WinningOption  int    `json:"winning_option"`
	WinningTickets uint64 `json:"winning_tickets"`
	WinnerShare    uint64 `json:"winner_share"`
	Remainder      uint64 `json:"remainder"` // credited to the creator
}

// WinningsClaimedPayload records a per-ticket payout claim.
type WinningsClaimedPayload struct {
	ProjectID uint64         `json:"project_id"`
	TicketID  uint64         `json:"ticket_id"`
	Owner     common.Address `json:"owner"`
	Amount    uint64         `json:"amount"`
}

// TicketListedPayload records a new resale order.
type TicketListedPayload struct {
	OrderID     uint64         `json:"order_id"`
	TicketID    uint64         `json:"ticket_id"`
	ProjectID   uint64         `json:"project_id"`
	OptionIndex int            `json:"option_index"`
	Seller      common.Address `json:"seller"`
	Price       uint64         `json:"price"`
}

// OrderCancelledPayload records a cancelled resale order.
type OrderCancelledPayload struct {
	OrderID  uint64         `json:"order_id"`
	TicketID uint64         `json:"ticket_id"`
	Seller   common.Address `json:"seller"`
}

// OrderFilledPayload records a matched resale order.
type OrderFilledPayload struct {
	OrderID     uint64         `json:"order_id"`
	TicketID    uint64         `json:"ticket_id"`
	ProjectID   uint64         `json:"project_id"`
	OptionIndex int            `json:"option_index"`
	Buyer       common.Address `json:"buyer"`
	Seller      common.Address `json:"seller"`
	Price       uint64         `json:"price"`
}

// TicketTransferredPayload records a registry ownership change.
type TicketTransferredPayload struct {
	TicketID uint64         `json:"ticket_id"`
	From     common.Address `json:"from"`
	To       common.Address `json:"to"`
	By       common.Address `json:"by"` // owner, approved operator, or blanket operator
}

// TicketApprovedPayload records a per-ticket delegated approval.
type TicketApprovedPayload struct {
	TicketID uint64         `json:"ticket_id"`
	Owner    common.Address `json:"owner"`
	Operator common.Address `json:"operator"`
}

// OperatorApprovalPayload records a blanket operator approval toggle.
type OperatorApprovalPayload struct {
	Owner    common.Address `json:"owner"`
	Operator common.Address `json:"operator"`
	Enabled  bool           `json:"enabled"`
}

// CreditGrantedPayload records a one-time credit grant.
type CreditGrantedPayload struct {
	Account common.Address `json:"account"`
	Amount  uint64         `json:"amount"`
}

// CreditTransferredPayload records a credit movement. Spender is set when the
// transfer was delegated via an allowance.
type CreditTransferredPayload struct {
	From    common.Address  `json:"from"`
	To      common.Address  `json:"to"`
	Amount  uint64          `json:"amount"`
	Spender *common.Address `json:"spender,omitempty"`
}

// CreditApprovedPayload records a credit allowance grant.
type CreditApprovedPayload struct {
	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
	Amount  uint64         `json:"amount"`
}

// WithdrawalPayload records a native-balance withdrawal.
type WithdrawalPayload struct {
	Account common.Address `json:"account"`
	Amount  uint64         `json:"amount"`
}
