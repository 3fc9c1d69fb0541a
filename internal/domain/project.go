// Package domain defines the entities, events, and collaborator interfaces of
// the betledger prediction-market engine. Accounts are opaque address-like
// keys represented as go-ethereum addresses; all monetary amounts are
// unsigned integers in base units.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProjectState tracks the project lifecycle. Open is the initial state,
// Settled is terminal; there are no other transitions.
type ProjectState string

const (
	ProjectOpen    ProjectState = "open"
	ProjectSettled ProjectState = "settled"
)

// Project is an escrow-backed prediction market: a titled set of mutually
// exclusive options, a prize pool, and a deadline after which the creator
// declares the winning option.
type Project struct {
	ID                 uint64         `json:"id"`
	Creator            common.Address `json:"creator"`
	Title              string         `json:"title"`
	Options            []string       `json:"options"`
	PoolBalance        uint64         `json:"pool_balance"`
	Deadline           time.Time      `json:"deadline"`
	State              ProjectState   `json:"state"`
	WinningOption      int            `json:"winning_option"` // valid only when State == ProjectSettled
	OptionTicketCounts []uint64       `json:"option_ticket_counts"`
	CreatedAt          time.Time      `json:"created_at"`

	// WinnerShare is the fixed per-ticket payout computed at settlement:
	// PoolBalance / count of winning tickets. Zero until settled.
	WinnerShare uint64 `json:"winner_share"`
}

// IsOpen reports whether the project still accepts ticket purchases.
func (p Project) IsOpen() bool {
	return p.State == ProjectOpen
}

// TotalTickets returns the number of tickets minted across all options.
func (p Project) TotalTickets() uint64 {
	var n uint64
	for _, c := range p.OptionTicketCounts {
		n += c
	}
	return n
}
