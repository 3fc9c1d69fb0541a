package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// orderBook owns resale orders. The byTicket index enforces the at-most-one
// active order per ticket invariant; bySeller backs the portfolio history
// read and keeps terminal orders forever.
type orderBook struct {
	orders   map[uint64]*domain.Order
	ids      []uint64 // creation order, backs best-price iteration
	byTicket map[uint64]uint64
	bySeller map[common.Address][]uint64
	nextID   uint64
}

func newOrderBook() *orderBook {
	return &orderBook{
		orders:   make(map[uint64]*domain.Order),
		byTicket: make(map[uint64]uint64),
		bySeller: make(map[common.Address][]uint64),
		nextID:   1,
	}
}

func (b *orderBook) activeOrderForTicket(ticketID uint64) (*domain.Order, bool) {
	id, ok := b.byTicket[ticketID]
	if !ok {
		return nil, false
	}
	o := b.orders[id]
	if o == nil || !o.IsActive() {
		return nil, false
	}
	return o, true
}

func (b *orderBook) create(o domain.Order) *domain.Order {
	o.ID = b.nextID
	o.Status = domain.OrderActive
	b.nextID++
	stored := o
	b.orders[stored.ID] = &stored
	b.ids = append(b.ids, stored.ID)
	b.byTicket[stored.TicketID] = stored.ID
	b.bySeller[stored.Seller] = append(b.bySeller[stored.Seller], stored.ID)
	return &stored
}

func (b *orderBook) get(orderID uint64) (*domain.Order, error) {
	o, ok := b.orders[orderID]
	if !ok {
		return nil, domain.ErrUnknownOrder
	}
	return o, nil
}

// resolve moves an active order into a terminal state and releases the
// ticket->order slot so the ticket can be listed again.
func (b *orderBook) resolve(o *domain.Order, status domain.OrderStatus) {
	o.Status = status
	if b.byTicket[o.TicketID] == o.ID {
		delete(b.byTicket, o.TicketID)
	}
}

// activeSegment returns the active orders for one (project, option) segment
// in order-creation order. The relative order is stable within a read.
func (b *orderBook) activeSegment(projectID uint64, optionIndex int) []*domain.Order {
	var out []*domain.Order
	for _, id := range b.ids {
		o := b.orders[id]
		if o.IsActive() && o.ProjectID == projectID && o.OptionIndex == optionIndex {
			out = append(out, o)
		}
	}
	return out
}

// best selects the active order with the lowest price for the segment; ties
// break by earliest create time, then by lowest order id. The id-ordered scan
// makes the two tie-breaks coincide: the first order at the minimum price is
// the oldest one with that price.
func (b *orderBook) best(projectID uint64, optionIndex int) (*domain.Order, error) {
	var best *domain.Order
	for _, id := range b.ids {
		o := b.orders[id]
		if !o.IsActive() || o.ProjectID != projectID || o.OptionIndex != optionIndex {
			continue
		}
		if best == nil || o.Price < best.Price {
			best = o
		}
	}
	if best == nil {
		return nil, domain.ErrNoActiveOrders
	}
	return best, nil
}

// ordersOf returns every order the account ever created, terminal ones
// included, in creation order.
func (b *orderBook) ordersOf(seller common.Address) []uint64 {
	ids := b.bySeller[seller]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}
