package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Ticket is a non-fungible, transferable receipt proving the purchase of one
// option in one project. Provenance fields (project, option, price, time) are
// immutable; only the owner and the single delegated approval ever change.
// Tickets are never destroyed.
type Ticket struct {
	ID            uint64         `json:"id"`
	Owner         common.Address `json:"owner"`
	ProjectID     uint64         `json:"project_id"`
	OptionIndex   int            `json:"option_index"`
	PurchasePrice uint64         `json:"purchase_price"`
	PurchaseTime  time.Time      `json:"purchase_time"`

	// ApprovedOperator is the single per-ticket delegated transfer approval.
	// Cleared on every ownership change. Nil when no approval is set.
	ApprovedOperator *common.Address `json:"approved_operator,omitempty"`
}
