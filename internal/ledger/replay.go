package ledger

import (
	"fmt"
	"time"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// Replay re-applies journaled events in sequence order by re-invoking the
// operation each event records. Commits are deterministic, so replaying the
// journal onto the state it was recorded from reproduces the same ids and
// sequence numbers; any divergence (a gap, a failed precondition, a sequence
// mismatch) aborts with an error naming the offending event.
//
// The engine clock is pinned to each event's commit time for the duration of
// that event so deadline checks resolve exactly as they did originally.
func (e *Engine) Replay(events []domain.Event) error {
	e.mu.Lock()
	saved := e.now
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.now = saved
		e.mu.Unlock()
	}()

	for _, ev := range events {
		if ev.Seq <= e.HeadSeq() {
			continue // already part of the restored snapshot
		}
		if ev.Seq != e.HeadSeq()+1 {
			return fmt.Errorf("ledger: replay gap: journal seq %d after head %d", ev.Seq, e.HeadSeq())
		}

		at := ev.Time
		e.mu.Lock()
		e.now = func() time.Time { return at }
		e.mu.Unlock()

		applied, err := e.applyEvent(ev)
		if err != nil {
			return fmt.Errorf("ledger: replay seq %d (%s): %w", ev.Seq, ev.Kind, err)
		}
		if applied.Seq != ev.Seq {
			return fmt.Errorf("ledger: replay seq %d (%s): committed as %d", ev.Seq, ev.Kind, applied.Seq)
		}
	}
	return nil
}

// applyEvent dispatches one journaled event back through its operation.
func (e *Engine) applyEvent(ev domain.Event) (domain.Event, error) {
	switch p := ev.Payload.(type) {
	case domain.CreditGrantedPayload:
		// Grant mints the configured amount, so a journal recorded under a
		// different grant_amount would rebuild different balances. Refuse
		// rather than diverge silently.
		if p.Amount != e.cfg.GrantAmount {
			return domain.Event{}, fmt.Errorf("journaled grant of %d but engine grants %d", p.Amount, e.cfg.GrantAmount)
		}
		return e.Grant(p.Account)
	case domain.CreditTransferredPayload:
		if p.Spender != nil {
			return e.CreditTransferFrom(*p.Spender, p.From, p.To, p.Amount)
		}
		return e.CreditTransfer(p.From, p.To, p.Amount)
	case domain.CreditApprovedPayload:
		return e.CreditApprove(p.Owner, p.Spender, p.Amount)
	case domain.TicketApprovedPayload:
		return e.ApproveTicket(p.Owner, p.TicketID, p.Operator)
	case domain.OperatorApprovalPayload:
		return e.SetApprovalForAll(p.Owner, p.Operator, p.Enabled)
	case domain.TicketTransferredPayload:
		return e.TransferTicket(p.By, p.TicketID, p.To)
	case domain.ProjectCreatedPayload:
		return e.CreateProject(p.Creator, p.Title, p.Options, p.Deadline, p.PoolBalance)
	case domain.TicketPurchasedPayload:
		return e.BuyTicket(p.Buyer, p.ProjectID, p.OptionIndex, p.Price)
	case domain.ProjectSettledPayload:
		return e.SettleProject(ev.Actor, p.ProjectID, p.WinningOption)
	case domain.WinningsClaimedPayload:
		return e.ClaimWinnings(p.Owner, p.TicketID)
	case domain.TicketListedPayload:
		return e.ListTicket(p.Seller, p.TicketID, p.Price)
	case domain.OrderCancelledPayload:
		return e.CancelOrder(p.Seller, p.OrderID)
	case domain.OrderFilledPayload:
		return e.BuyFromOrderBook(p.Buyer, p.OrderID, p.Price)
	case domain.WithdrawalPayload:
		return e.Withdraw(p.Account, p.Amount)
	default:
		return domain.Event{}, fmt.Errorf("unsupported payload %T", ev.Payload)
	}
}
