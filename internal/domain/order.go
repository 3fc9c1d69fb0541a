package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// OrderStatus tracks the resale-order lifecycle. Active orders can fill or
// cancel; both Filled and Cancelled are terminal.
type OrderStatus string

const (
	OrderActive    OrderStatus = "active"
	OrderFilled    OrderStatus = "filled"
	OrderCancelled OrderStatus = "cancelled"
)

// Order is a standing offer to sell one specific ticket at a fixed price.
// ProjectID and OptionIndex are denormalized from the ticket at listing time
// so the order book can be queried per market segment without touching the
// registry.
type Order struct {
	ID          uint64         `json:"id"`
	Seller      common.Address `json:"seller"`
	TicketID    uint64         `json:"ticket_id"`
	ProjectID   uint64         `json:"project_id"`
	OptionIndex int            `json:"option_index"`
	Price       uint64         `json:"price"`
	Status      OrderStatus    `json:"status"`
	CreateTime  time.Time      `json:"create_time"`
	FilledAt    *time.Time     `json:"filled_at,omitempty"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`
}

// IsActive reports whether the order can still be filled or cancelled.
func (o Order) IsActive() bool {
	return o.Status == OrderActive
}
