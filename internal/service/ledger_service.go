// Package service wires the ledger engine to its infrastructure: every
// successful commit is journaled, fanned out on the signal bus, and reflected
// into the order-book cache before the result returns to the caller.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betledger/internal/domain"
	"github.com/alanyoungcy/betledger/internal/ledger"
)

// Signal bus channels and streams carrying committed events.
const (
	// ChannelEvents receives every committed event.
	ChannelEvents = "ledger.events"
	// StreamJournal is the durable stream indexers catch up from.
	StreamJournal = "ledger:journal"
)

// Notifier delivers operator notifications for selected events.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// LedgerService fronts the engine for the transport layer. Mutations run
// through a shared pipeline: per-actor rate limit, engine commit, journal
// append, bus fan-out, cache invalidation, operator notification.
type LedgerService struct {
	engine   *ledger.Engine
	events   domain.EventStore
	bus      domain.SignalBus
	book     domain.OrderBookCache
	limiter  domain.RateLimiter
	notifier Notifier
	logger   *slog.Logger

	rateLimit  int
	rateWindow time.Duration
}

// NewLedgerService creates a LedgerService. bus, book, limiter, and notifier
// may be nil; the corresponding pipeline stage is skipped.
func NewLedgerService(
	engine *ledger.Engine,
	events domain.EventStore,
	bus domain.SignalBus,
	book domain.OrderBookCache,
	limiter domain.RateLimiter,
	notifier Notifier,
	rateLimit int,
	rateWindow time.Duration,
	logger *slog.Logger,
) *LedgerService {
	return &LedgerService{
		engine:     engine,
		events:     events,
		bus:        bus,
		book:       book,
		limiter:    limiter,
		notifier:   notifier,
		logger:     logger.With(slog.String("component", "ledger_service")),
		rateLimit:  rateLimit,
		rateWindow: rateWindow,
	}
}

// Engine exposes the underlying engine for snapshotting.
func (s *LedgerService) Engine() *ledger.Engine {
	return s.engine
}

// commit runs the shared mutation pipeline around one engine operation.
func (s *LedgerService) commit(ctx context.Context, actor common.Address, fn func() (domain.Event, error)) (domain.Event, error) {
	if err := s.allow(ctx, actor); err != nil {
		return domain.Event{}, err
	}

	ev, err := fn()
	if err != nil {
		return domain.Event{}, err
	}

	if err := s.events.Append(ctx, ev); err != nil {
		// The commit already happened; the journal gap is an operational
		// incident, not a reason to report failure to the caller.
		s.logger.ErrorContext(ctx, "journal append failed",
			slog.Uint64("seq", ev.Seq),
			slog.String("kind", string(ev.Kind)),
			slog.String("error", err.Error()),
		)
	}

	s.fanOut(ctx, ev)
	s.invalidate(ctx, ev)
	s.notify(ctx, ev)
	return ev, nil
}

// allow applies the per-actor sliding-window rate limit to mutating calls.
func (s *LedgerService) allow(ctx context.Context, actor common.Address) error {
	if s.limiter == nil || s.rateLimit <= 0 {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, "ledger:"+actor.Hex(), s.rateLimit, s.rateWindow)
	if err != nil {
		return fmt.Errorf("service: rate limiter: %w", err)
	}
	if !ok {
		return domain.ErrRateLimited
	}
	return nil
}

// fanOut publishes the committed event on pub/sub and the durable stream.
func (s *LedgerService) fanOut(ctx context.Context, ev domain.Event) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal event for fan-out",
			slog.Uint64("seq", ev.Seq),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.bus.Publish(ctx, ChannelEvents, payload); err != nil {
		s.logger.WarnContext(ctx, "publish event",
			slog.Uint64("seq", ev.Seq),
			slog.String("error", err.Error()),
		)
	}
	if err := s.bus.StreamAppend(ctx, StreamJournal, payload); err != nil {
		s.logger.WarnContext(ctx, "stream append event",
			slog.Uint64("seq", ev.Seq),
			slog.String("error", err.Error()),
		)
	}
}

// invalidate drops cached order-book segments touched by the commit.
func (s *LedgerService) invalidate(ctx context.Context, ev domain.Event) {
	if s.book == nil {
		return
	}

	var projectID uint64
	var optionIndex int
	switch p := ev.Payload.(type) {
	case domain.TicketListedPayload:
		projectID, optionIndex = p.ProjectID, p.OptionIndex
	case domain.OrderFilledPayload:
		projectID, optionIndex = p.ProjectID, p.OptionIndex
	case domain.OrderCancelledPayload:
		order, err := s.engine.GetOrder(p.OrderID)
		if err != nil {
			return
		}
		projectID, optionIndex = order.ProjectID, order.OptionIndex
	default:
		return
	}

	if err := s.book.InvalidateSegment(ctx, projectID, optionIndex); err != nil {
		s.logger.WarnContext(ctx, "invalidate order book segment",
			slog.Uint64("project_id", projectID),
			slog.Int("option_index", optionIndex),
			slog.String("error", err.Error()),
		)
	}
}

// notify forwards settlement and fill events to operators.
func (s *LedgerService) notify(ctx context.Context, ev domain.Event) {
	if s.notifier == nil {
		return
	}

	var title, message string
	switch p := ev.Payload.(type) {
	case domain.ProjectSettledPayload:
		title = "Project settled"
		message = fmt.Sprintf("project %d settled on option %d: %d winning tickets, share %d",
			p.ProjectID, p.WinningOption, p.WinningTickets, p.WinnerShare)
	case domain.OrderFilledPayload:
		title = "Order filled"
		message = fmt.Sprintf("order %d filled: ticket %d sold for %d", p.OrderID, p.TicketID, p.Price)
	default:
		return
	}

	if err := s.notifier.Notify(ctx, string(ev.Kind), title, message); err != nil {
		s.logger.WarnContext(ctx, "notify",
			slog.String("kind", string(ev.Kind)),
			slog.String("error", err.Error()),
		)
	}
}

// ---------------------------------------------------------------------------
// Credit operations
// ---------------------------------------------------------------------------

// Grant mints the one-time credit grant to account.
func (s *LedgerService) Grant(ctx context.Context, account common.Address) (domain.Event, error) {
	return s.commit(ctx, account, func() (domain.Event, error) {
		return s.engine.Grant(account)
	})
}

// TransferCredits moves credits between accounts.
func (s *LedgerService) TransferCredits(ctx context.Context, from, to common.Address, amount uint64) (domain.Event, error) {
	return s.commit(ctx, from, func() (domain.Event, error) {
		return s.engine.CreditTransfer(from, to, amount)
	})
}

// ApproveCredits sets the allowance owner grants to spender.
func (s *LedgerService) ApproveCredits(ctx context.Context, owner, spender common.Address, amount uint64) (domain.Event, error) {
	return s.commit(ctx, owner, func() (domain.Event, error) {
		return s.engine.CreditApprove(owner, spender, amount)
	})
}

// TransferCreditsFrom moves credits on behalf of an approved spender.
func (s *LedgerService) TransferCreditsFrom(ctx context.Context, spender, from, to common.Address, amount uint64) (domain.Event, error) {
	return s.commit(ctx, spender, func() (domain.Event, error) {
		return s.engine.CreditTransferFrom(spender, from, to, amount)
	})
}

// CreditBalance returns the credit balance of account.
func (s *LedgerService) CreditBalance(account common.Address) uint64 {
	return s.engine.CreditBalance(account)
}

// CreditAllowance returns the allowance owner grants to spender.
func (s *LedgerService) CreditAllowance(owner, spender common.Address) uint64 {
	return s.engine.CreditAllowance(owner, spender)
}

// ---------------------------------------------------------------------------
// Project operations
// ---------------------------------------------------------------------------

// CreateProject opens a new market escrowed by the creator.
func (s *LedgerService) CreateProject(ctx context.Context, creator common.Address, title string, options []string, deadline time.Time, escrow uint64) (domain.Event, error) {
	return s.commit(ctx, creator, func() (domain.Event, error) {
		return s.engine.CreateProject(creator, title, options, deadline, escrow)
	})
}

// BuyTicket sells one primary-market ticket to buyer.
func (s *LedgerService) BuyTicket(ctx context.Context, buyer common.Address, projectID uint64, optionIndex int, payment uint64) (domain.Event, error) {
	return s.commit(ctx, buyer, func() (domain.Event, error) {
		return s.engine.BuyTicket(buyer, projectID, optionIndex, payment)
	})
}

// SettleProject declares the winning option.
func (s *LedgerService) SettleProject(ctx context.Context, caller common.Address, projectID uint64, winningOption int) (domain.Event, error) {
	return s.commit(ctx, caller, func() (domain.Event, error) {
		return s.engine.SettleProject(caller, projectID, winningOption)
	})
}

// ClaimWinnings pays out one winning ticket.
func (s *LedgerService) ClaimWinnings(ctx context.Context, caller common.Address, ticketID uint64) (domain.Event, error) {
	return s.commit(ctx, caller, func() (domain.Event, error) {
		return s.engine.ClaimWinnings(caller, ticketID)
	})
}

// GetProject returns a project record.
func (s *LedgerService) GetProject(projectID uint64) (domain.Project, error) {
	return s.engine.GetProject(projectID)
}

// ListProjectIDs returns every project id in creation order.
func (s *LedgerService) ListProjectIDs() []uint64 {
	return s.engine.ListProjectIDs()
}

// ---------------------------------------------------------------------------
// Ticket operations
// ---------------------------------------------------------------------------

// TransferTicket moves ticket ownership.
func (s *LedgerService) TransferTicket(ctx context.Context, caller common.Address, ticketID uint64, to common.Address) (domain.Event, error) {
	return s.commit(ctx, caller, func() (domain.Event, error) {
		return s.engine.TransferTicket(caller, ticketID, to)
	})
}

// ApproveTicket sets the delegated transfer approval for one ticket.
func (s *LedgerService) ApproveTicket(ctx context.Context, caller common.Address, ticketID uint64, operator common.Address) (domain.Event, error) {
	return s.commit(ctx, caller, func() (domain.Event, error) {
		return s.engine.ApproveTicket(caller, ticketID, operator)
	})
}

// SetApprovalForAll toggles a blanket operator approval.
func (s *LedgerService) SetApprovalForAll(ctx context.Context, caller, operator common.Address, enabled bool) (domain.Event, error) {
	return s.commit(ctx, caller, func() (domain.Event, error) {
		return s.engine.SetApprovalForAll(caller, operator, enabled)
	})
}

// TicketInfo returns one ticket record.
func (s *LedgerService) TicketInfo(ticketID uint64) (domain.Ticket, error) {
	return s.engine.TicketInfo(ticketID)
}

// TicketsOf returns the ids held by owner.
func (s *LedgerService) TicketsOf(owner common.Address) []uint64 {
	return s.engine.TicketsOf(owner)
}

// ---------------------------------------------------------------------------
// Order book operations
// ---------------------------------------------------------------------------

// ListTicket places a ticket for resale.
func (s *LedgerService) ListTicket(ctx context.Context, seller common.Address, ticketID, price uint64) (domain.Event, error) {
	return s.commit(ctx, seller, func() (domain.Event, error) {
		return s.engine.ListTicket(seller, ticketID, price)
	})
}

// CancelOrder retires an active order and returns the ticket to the seller.
func (s *LedgerService) CancelOrder(ctx context.Context, caller common.Address, orderID uint64) (domain.Event, error) {
	return s.commit(ctx, caller, func() (domain.Event, error) {
		return s.engine.CancelOrder(caller, orderID)
	})
}

// BuyOrder fills a specific active order.
func (s *LedgerService) BuyOrder(ctx context.Context, buyer common.Address, orderID, payment uint64) (domain.Event, error) {
	return s.commit(ctx, buyer, func() (domain.Event, error) {
		return s.engine.BuyFromOrderBook(buyer, orderID, payment)
	})
}

// BuyBest fills the cheapest active order for a market segment.
func (s *LedgerService) BuyBest(ctx context.Context, buyer common.Address, projectID uint64, optionIndex int, payment uint64) (domain.Event, error) {
	return s.commit(ctx, buyer, func() (domain.Event, error) {
		return s.engine.BuyAtBestPrice(buyer, projectID, optionIndex, payment)
	})
}

// OrderBookSegment returns the active orders for a market segment, served
// from the cache when fresh and rebuilt from the engine on a miss.
func (s *LedgerService) OrderBookSegment(ctx context.Context, projectID uint64, optionIndex int) (domain.OrderBookSegment, error) {
	if s.book != nil {
		seg, err := s.book.GetSegment(ctx, projectID, optionIndex)
		if err == nil {
			return seg, nil
		}
	}

	ids, prices := s.engine.GetOrderBook(projectID, optionIndex)
	seg := domain.OrderBookSegment{
		ProjectID:   projectID,
		OptionIndex: optionIndex,
		OrderIDs:    ids,
		Prices:      prices,
		Timestamp:   time.Now().UTC(),
	}
	if s.book != nil {
		if err := s.book.SetSegment(ctx, seg); err != nil {
			s.logger.WarnContext(ctx, "cache order book segment",
				slog.Uint64("project_id", projectID),
				slog.Int("option_index", optionIndex),
				slog.String("error", err.Error()),
			)
		}
	}
	return seg, nil
}

// GetOrder returns one order record.
func (s *LedgerService) GetOrder(orderID uint64) (domain.Order, error) {
	return s.engine.GetOrder(orderID)
}

// UserOrders returns every order the account ever created.
func (s *LedgerService) UserOrders(seller common.Address) []domain.Order {
	return s.engine.UserOrders(seller)
}

// ---------------------------------------------------------------------------
// Balance operations
// ---------------------------------------------------------------------------

// NativeBalance returns the withdrawable native balance of account.
func (s *LedgerService) NativeBalance(account common.Address) uint64 {
	return s.engine.NativeBalance(account)
}

// Withdraw debits the account's native balance.
func (s *LedgerService) Withdraw(ctx context.Context, account common.Address, amount uint64) (domain.Event, error) {
	return s.commit(ctx, account, func() (domain.Event, error) {
		return s.engine.Withdraw(account, amount)
	})
}
