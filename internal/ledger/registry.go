package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// ticketRegistry owns every ticket's ownership record and the two delegated
// authorization layers: a single per-ticket approval plus blanket per-owner
// operator approvals. Minting is unexported so only the project ledger (in
// this package) can create tickets.
type ticketRegistry struct {
	tickets   map[uint64]*domain.Ticket
	byOwner   map[common.Address][]uint64
	operators map[common.Address]map[common.Address]bool
	nextID    uint64
}

func newTicketRegistry() *ticketRegistry {
	return &ticketRegistry{
		tickets:   make(map[uint64]*domain.Ticket),
		byOwner:   make(map[common.Address][]uint64),
		operators: make(map[common.Address]map[common.Address]bool),
		nextID:    1,
	}
}

// mint creates a ticket with the next sequential id. Provenance fields are
// fixed forever; the approved operator starts empty.
func (r *ticketRegistry) mint(t domain.Ticket) uint64 {
	t.ID = r.nextID
	t.ApprovedOperator = nil
	r.nextID++
	r.tickets[t.ID] = &t
	r.byOwner[t.Owner] = append(r.byOwner[t.Owner], t.ID)
	return t.ID
}

func (r *ticketRegistry) get(ticketID uint64) (*domain.Ticket, error) {
	t, ok := r.tickets[ticketID]
	if !ok {
		return nil, domain.ErrUnknownTicket
	}
	return t, nil
}

func (r *ticketRegistry) ownerOf(ticketID uint64) (common.Address, error) {
	t, err := r.get(ticketID)
	if err != nil {
		return common.Address{}, err
	}
	return t.Owner, nil
}

// approve sets the single per-ticket delegated approval, overwriting any
// prior one. Only the current owner may approve.
func (r *ticketRegistry) approve(caller common.Address, ticketID uint64, operator common.Address) error {
	t, err := r.get(ticketID)
	if err != nil {
		return err
	}
	if t.Owner != caller {
		return domain.ErrNotOwner
	}
	op := operator
	t.ApprovedOperator = &op
	return nil
}

// setApprovalForAll toggles a blanket approval covering every ticket the
// owner holds, now and in the future. Independent of per-ticket approvals.
func (r *ticketRegistry) setApprovalForAll(owner, operator common.Address, enabled bool) {
	m := r.operators[owner]
	if m == nil {
		if !enabled {
			return
		}
		m = make(map[common.Address]bool)
		r.operators[owner] = m
	}
	if enabled {
		m[operator] = true
	} else {
		delete(m, operator)
	}
}

// canTransfer is the single authorization check consulted by every transfer
// path: owner, blanket operator, or per-ticket approved operator.
func (r *ticketRegistry) canTransfer(caller common.Address, t *domain.Ticket) bool {
	if caller == t.Owner {
		return true
	}
	if r.operators[t.Owner][caller] {
		return true
	}
	return t.ApprovedOperator != nil && *t.ApprovedOperator == caller
}

// transfer moves ownership to the new account and clears the per-ticket
// approval. Blanket approvals are per-owner and persist untouched.
func (r *ticketRegistry) transfer(caller common.Address, ticketID uint64, to common.Address) (from common.Address, err error) {
	t, err := r.get(ticketID)
	if err != nil {
		return common.Address{}, err
	}
	if !r.canTransfer(caller, t) {
		return common.Address{}, domain.ErrNotAuthorized
	}

	from = t.Owner
	r.removeFromOwner(from, ticketID)
	t.Owner = to
	t.ApprovedOperator = nil
	r.byOwner[to] = append(r.byOwner[to], ticketID)
	return from, nil
}

func (r *ticketRegistry) removeFromOwner(owner common.Address, ticketID uint64) {
	ids := r.byOwner[owner]
	for i, id := range ids {
		if id == ticketID {
			r.byOwner[owner] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

// ticketsOf returns the ids currently held by owner. Insertion order is not
// stable across transfers; callers must not rely on positional identity.
func (r *ticketRegistry) ticketsOf(owner common.Address) []uint64 {
	ids := r.byOwner[owner]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}
