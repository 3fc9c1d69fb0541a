// Package ledger implements the core state machines of the betledger engine:
// the credit ledger, the ticket registry, the project ledger, the resale
// order book, and the native balance book. The Engine is the single
// serializing access point: every operation runs to completion under one
// mutex, validates all preconditions before touching state, and emits exactly
// one event per successful commit.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// PaymentMode selects how the engine collects payments and pays proceeds.
type PaymentMode string

const (
	// PaymentNative treats the payment argument as host-attached value:
	// incoming funds are fresh value, proceeds accrue to the balance book.
	PaymentNative PaymentMode = "native"

	// PaymentCredit collects payments from the caller's credit balance via a
	// prior allowance to the platform account, and pays proceeds in credits.
	PaymentCredit PaymentMode = "credit"
)

var (
	// PlatformAccount holds escrowed credits in credit payment mode and is
	// the spender that callers must approve before paying with credits.
	PlatformAccount = common.HexToAddress("0x0000000000000000000000000000000000000be7")

	// EscrowAccount owns listed tickets while their order is active, which
	// keeps the seller from disposing of the ticket until the order resolves.
	EscrowAccount = common.HexToAddress("0x000000000000000000000000000000000000e5c0")
)

// Config carries the fixed economic parameters of the engine.
type Config struct {
	// TicketPrice is the fixed primary-market price per ticket.
	TicketPrice uint64

	// GrantAmount is the one-time credit grant per account.
	GrantAmount uint64

	// PaymentMode selects native or credit settlement.
	PaymentMode PaymentMode

	// Now overrides the clock; defaults to time.Now. Tests inject a fixed
	// clock here.
	Now func() time.Time
}

// Engine is the serializing front door to all four ledgers. All exported
// methods are safe for concurrent use; internally every call commits under
// one mutex so reads observe a consistent snapshot and writes are atomic.
type Engine struct {
	mu  sync.Mutex
	cfg Config
	now func() time.Time
	seq uint64

	credits  *creditLedger
	tickets  *ticketRegistry
	projects *projectLedger
	book     *orderBook
	balances *balanceBook
}

// New creates an empty engine with the given configuration.
func New(cfg Config) *Engine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		cfg:      cfg,
		now:      now,
		credits:  newCreditLedger(),
		tickets:  newTicketRegistry(),
		projects: newProjectLedger(),
		book:     newOrderBook(),
		balances: newBalanceBook(),
	}
}

// HeadSeq returns the sequence number of the last committed operation.
func (e *Engine) HeadSeq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}

// emit assigns the next commit sequence and builds the event record for a
// successful mutation. Must be called with the lock held, after every
// precondition has passed.
func (e *Engine) emit(kind domain.EventKind, actor common.Address, payload any) domain.Event {
	e.seq++
	return domain.Event{
		ID:      uuid.New(),
		Seq:     e.seq,
		Kind:    kind,
		Actor:   actor,
		Time:    e.now(),
		Payload: payload,
	}
}

// ---------------------------------------------------------------------------
// Payment plumbing
// ---------------------------------------------------------------------------

// checkPayment verifies the payer can fund amount without mutating anything.
// In native mode the host already collected the attached value, so there is
// nothing to check.
func (e *Engine) checkPayment(payer common.Address, amount uint64) error {
	if e.cfg.PaymentMode != PaymentCredit {
		return nil
	}
	if err := e.credits.checkAllowance(payer, PlatformAccount, amount); err != nil {
		return err
	}
	return e.credits.checkBalance(payer, amount)
}

// collectPayment moves amount from the payer into platform custody. Callers
// must have run checkPayment first; in credit mode this cannot fail after a
// successful check because commits are serialized.
func (e *Engine) collectPayment(payer common.Address, amount uint64) {
	if e.cfg.PaymentMode != PaymentCredit {
		return
	}
	if err := e.credits.transferFrom(PlatformAccount, payer, PlatformAccount, amount); err != nil {
		panic(fmt.Sprintf("ledger: collect after successful check: %v", err))
	}
}

// payOut credits proceeds or winnings to an account, from platform custody
// in credit mode or onto the native balance book otherwise.
func (e *Engine) payOut(to common.Address, amount uint64) {
	if amount == 0 {
		return
	}
	if e.cfg.PaymentMode == PaymentCredit {
		if err := e.credits.transfer(PlatformAccount, to, amount); err != nil {
			panic(fmt.Sprintf("ledger: platform custody underfunded: %v", err))
		}
		return
	}
	e.balances.credit(to, amount)
}

// payDirect moves a buyer's payment straight to the seller during a fill.
func (e *Engine) payDirect(payer, seller common.Address, amount uint64) {
	if e.cfg.PaymentMode == PaymentCredit {
		if err := e.credits.transferFrom(PlatformAccount, payer, seller, amount); err != nil {
			panic(fmt.Sprintf("ledger: fill payment after successful check: %v", err))
		}
		return
	}
	e.balances.credit(seller, amount)
}

// ---------------------------------------------------------------------------
// Credit ledger operations
// ---------------------------------------------------------------------------

// Grant mints the fixed grant amount to account, at most once per account.
func (e *Engine) Grant(account common.Address) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.credits.grant(account, e.cfg.GrantAmount); err != nil {
		return domain.Event{}, err
	}
	return e.emit(domain.EventCreditGranted, account, domain.CreditGrantedPayload{
		Account: account,
		Amount:  e.cfg.GrantAmount,
	}), nil
}

// CreditTransfer moves credits between accounts.
func (e *Engine) CreditTransfer(from, to common.Address, amount uint64) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.credits.transfer(from, to, amount); err != nil {
		return domain.Event{}, err
	}
	return e.emit(domain.EventCreditTransferred, from, domain.CreditTransferredPayload{
		From:   from,
		To:     to,
		Amount: amount,
	}), nil
}

// CreditApprove sets the allowance owner grants to spender.
func (e *Engine) CreditApprove(owner, spender common.Address, amount uint64) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.credits.approve(owner, spender, amount)
	return e.emit(domain.EventCreditApproved, owner, domain.CreditApprovedPayload{
		Owner:   owner,
		Spender: spender,
		Amount:  amount,
	}), nil
}

// CreditTransferFrom moves credits from -> to on behalf of spender,
// consuming the allowance.
func (e *Engine) CreditTransferFrom(spender, from, to common.Address, amount uint64) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.credits.transferFrom(spender, from, to, amount); err != nil {
		return domain.Event{}, err
	}
	sp := spender
	return e.emit(domain.EventCreditTransferred, spender, domain.CreditTransferredPayload{
		From:    from,
		To:      to,
		Amount:  amount,
		Spender: &sp,
	}), nil
}

// CreditBalance returns the credit balance of account.
func (e *Engine) CreditBalance(account common.Address) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.credits.balanceOf(account)
}

// CreditAllowance returns the remaining allowance owner grants to spender.
func (e *Engine) CreditAllowance(owner, spender common.Address) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.credits.allowanceOf(owner, spender)
}

// CreditTotalSupply returns the sum of all credit balances.
func (e *Engine) CreditTotalSupply() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.credits.supply
}

// ---------------------------------------------------------------------------
// Ticket registry operations
// ---------------------------------------------------------------------------

// ApproveTicket sets the single delegated transfer approval for a ticket.
func (e *Engine) ApproveTicket(caller common.Address, ticketID uint64, operator common.Address) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.tickets.approve(caller, ticketID, operator); err != nil {
		return domain.Event{}, err
	}
	return e.emit(domain.EventTicketApproved, caller, domain.TicketApprovedPayload{
		TicketID: ticketID,
		Owner:    caller,
		Operator: operator,
	}), nil
}

// SetApprovalForAll toggles a blanket operator approval for the caller.
func (e *Engine) SetApprovalForAll(caller, operator common.Address, enabled bool) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tickets.setApprovalForAll(caller, operator, enabled)
	return e.emit(domain.EventOperatorApproval, caller, domain.OperatorApprovalPayload{
		Owner:    caller,
		Operator: operator,
		Enabled:  enabled,
	}), nil
}

// TransferTicket moves ticket ownership. The caller must be the owner, the
// per-ticket approved operator, or a blanket operator for the owner.
func (e *Engine) TransferTicket(caller common.Address, ticketID uint64, to common.Address) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	from, err := e.tickets.transfer(caller, ticketID, to)
	if err != nil {
		return domain.Event{}, err
	}
	return e.emit(domain.EventTicketTransferred, caller, domain.TicketTransferredPayload{
		TicketID: ticketID,
		From:     from,
		To:       to,
		By:       caller,
	}), nil
}

// OwnerOf returns the registered owner of a ticket.
func (e *Engine) OwnerOf(ticketID uint64) (common.Address, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tickets.ownerOf(ticketID)
}

// TicketInfo returns a copy of the full ticket record.
func (e *Engine) TicketInfo(ticketID uint64) (domain.Ticket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.tickets.get(ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	return copyTicket(t), nil
}

// TicketsOf returns the ids of every ticket the account currently holds.
func (e *Engine) TicketsOf(owner common.Address) []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tickets.ticketsOf(owner)
}

// ---------------------------------------------------------------------------
// Project ledger operations
// ---------------------------------------------------------------------------

// CreateProject opens a new market escrowed with initialEscrow supplied by
// the creator.
func (e *Engine) CreateProject(creator common.Address, title string, options []string, deadline time.Time, initialEscrow uint64) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(options) < 2 {
		return domain.Event{}, domain.ErrInvalidOptions
	}
	if !deadline.After(e.now()) {
		return domain.Event{}, domain.ErrInvalidDeadline
	}
	if initialEscrow == 0 {
		return domain.Event{}, domain.ErrInvalidEscrow
	}
	if err := e.checkPayment(creator, initialEscrow); err != nil {
		return domain.Event{}, err
	}

	e.collectPayment(creator, initialEscrow)
	proj := e.projects.create(creator, title, options, deadline, initialEscrow, e.now())

	return e.emit(domain.EventProjectCreated, creator, domain.ProjectCreatedPayload{
		ProjectID:   proj.ID,
		Creator:     creator,
		Title:       proj.Title,
		Options:     append([]string(nil), proj.Options...),
		PoolBalance: proj.PoolBalance,
		Deadline:    proj.Deadline,
	}), nil
}

// BuyTicket sells one ticket on the primary market at the fixed ticket
// price. The pool increment, the option count increment, and the mint commit
// together or not at all.
func (e *Engine) BuyTicket(buyer common.Address, projectID uint64, optionIndex int, payment uint64) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	proj, err := e.projects.get(projectID)
	if err != nil {
		return domain.Event{}, err
	}
	if !proj.IsOpen() {
		return domain.Event{}, domain.ErrProjectSettled
	}
	if !e.now().Before(proj.Deadline) {
		return domain.Event{}, domain.ErrProjectExpired
	}
	if optionIndex < 0 || optionIndex >= len(proj.Options) {
		return domain.Event{}, domain.ErrInvalidOption
	}
	if payment != e.cfg.TicketPrice {
		return domain.Event{}, domain.ErrWrongPayment
	}
	if err := e.checkPayment(buyer, payment); err != nil {
		return domain.Event{}, err
	}

	e.collectPayment(buyer, payment)
	proj.PoolBalance += payment
	proj.OptionTicketCounts[optionIndex]++
	ticketID := e.tickets.mint(domain.Ticket{
		Owner:         buyer,
		ProjectID:     projectID,
		OptionIndex:   optionIndex,
		PurchasePrice: payment,
		PurchaseTime:  e.now(),
	})

	return e.emit(domain.EventTicketPurchased, buyer, domain.TicketPurchasedPayload{
		ProjectID:   projectID,
		TicketID:    ticketID,
		Buyer:       buyer,
		OptionIndex: optionIndex,
		Price:       payment,
	}), nil
}

// SettleProject declares the winning option after the deadline. It freezes
// the per-ticket winner share (pool divided by winning tickets) and credits
// the integer remainder to the creator so the pool stays fully accounted
// for; winners pull their share via ClaimWinnings.
func (e *Engine) SettleProject(caller common.Address, projectID uint64, winningOption int) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	proj, err := e.projects.get(projectID)
	if err != nil {
		return domain.Event{}, err
	}
	if proj.Creator != caller {
		return domain.Event{}, domain.ErrNotCreator
	}
	if e.now().Before(proj.Deadline) {
		return domain.Event{}, domain.ErrNotYetExpired
	}
	if !proj.IsOpen() {
		return domain.Event{}, domain.ErrAlreadySettled
	}
	if winningOption < 0 || winningOption >= len(proj.Options) {
		return domain.Event{}, domain.ErrInvalidOption
	}

	winners := proj.OptionTicketCounts[winningOption]
	var share, remainder uint64
	if winners == 0 {
		remainder = proj.PoolBalance
	} else {
		share = proj.PoolBalance / winners
		remainder = proj.PoolBalance - share*winners
	}

	proj.State = domain.ProjectSettled
	proj.WinningOption = winningOption
	proj.WinnerShare = share
	proj.PoolBalance -= remainder
	e.payOut(proj.Creator, remainder)

	return e.emit(domain.EventProjectSettled, caller, domain.ProjectSettledPayload{
		ProjectID:      projectID,
		WinningOption:  winningOption,
		WinningTickets: winners,
		WinnerShare:    share,
		Remainder:      remainder,
	}), nil
}

// ClaimWinnings pays the frozen winner share to the current owner of a
// winning ticket, once per ticket. Claim order never changes the amount.
func (e *Engine) ClaimWinnings(caller common.Address, ticketID uint64) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.tickets.get(ticketID)
	if err != nil {
		return domain.Event{}, err
	}
	proj, err := e.projects.get(t.ProjectID)
	if err != nil {
		return domain.Event{}, err
	}
	if proj.IsOpen() {
		return domain.Event{}, domain.ErrProjectNotSettled
	}
	if t.OptionIndex != proj.WinningOption {
		return domain.Event{}, domain.ErrNotWinningTicket
	}
	if t.Owner != caller {
		return domain.Event{}, domain.ErrNotOwner
	}
	if e.projects.claimed[ticketID] {
		return domain.Event{}, domain.ErrAlreadyClaimed
	}

	e.projects.claimed[ticketID] = true
	proj.PoolBalance -= proj.WinnerShare
	e.payOut(t.Owner, proj.WinnerShare)

	return e.emit(domain.EventWinningsClaimed, caller, domain.WinningsClaimedPayload{
		ProjectID: proj.ID,
		TicketID:  ticketID,
		Owner:     t.Owner,
		Amount:    proj.WinnerShare,
	}), nil
}

// GetProject returns a copy of the project record.
func (e *Engine) GetProject(projectID uint64) (domain.Project, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	proj, err := e.projects.get(projectID)
	if err != nil {
		return domain.Project{}, err
	}
	return copyProject(proj), nil
}

// ProjectOptions returns the option labels of a project.
func (e *Engine) ProjectOptions(projectID uint64) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	proj, err := e.projects.get(projectID)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(proj.Options))
	copy(out, proj.Options)
	return out, nil
}

// OptionTicketCount returns the number of tickets sold for one option.
func (e *Engine) OptionTicketCount(projectID uint64, optionIndex int) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	proj, err := e.projects.get(projectID)
	if err != nil {
		return 0, err
	}
	if optionIndex < 0 || optionIndex >= len(proj.Options) {
		return 0, domain.ErrInvalidOption
	}
	return proj.OptionTicketCounts[optionIndex], nil
}

// ListProjectIDs returns every project id in creation order.
func (e *Engine) ListProjectIDs() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.projects.listIDs()
}

// ---------------------------------------------------------------------------
// Order book operations
// ---------------------------------------------------------------------------

// ListTicket places a ticket for resale at a fixed price. The ticket moves
// into escrow custody so the seller cannot dispose of it while the order is
// active.
func (e *Engine) ListTicket(seller common.Address, ticketID uint64, price uint64) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.tickets.get(ticketID)
	if err != nil {
		return domain.Event{}, err
	}
	if _, listed := e.book.activeOrderForTicket(ticketID); listed {
		return domain.Event{}, domain.ErrAlreadyListed
	}
	if t.Owner != seller {
		return domain.Event{}, domain.ErrNotOwner
	}
	if price == 0 {
		return domain.Event{}, domain.ErrInvalidPrice
	}
	proj, err := e.projects.get(t.ProjectID)
	if err != nil {
		return domain.Event{}, err
	}
	if !proj.IsOpen() {
		return domain.Event{}, domain.ErrProjectSettled
	}

	if _, err := e.tickets.transfer(seller, ticketID, EscrowAccount); err != nil {
		return domain.Event{}, err
	}
	order := e.book.create(domain.Order{
		Seller:      seller,
		TicketID:    ticketID,
		ProjectID:   t.ProjectID,
		OptionIndex: t.OptionIndex,
		Price:       price,
		CreateTime:  e.now(),
	})

	return e.emit(domain.EventTicketListed, seller, domain.TicketListedPayload{
		OrderID:     order.ID,
		TicketID:    ticketID,
		ProjectID:   order.ProjectID,
		OptionIndex: order.OptionIndex,
		Seller:      seller,
		Price:       price,
	}), nil
}

// CancelOrder returns a listed ticket to its seller and retires the order.
func (e *Engine) CancelOrder(caller common.Address, orderID uint64) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, err := e.book.get(orderID)
	if err != nil {
		return domain.Event{}, err
	}
	if order.Seller != caller {
		return domain.Event{}, domain.ErrNotSeller
	}
	if !order.IsActive() {
		return domain.Event{}, domain.ErrOrderNotActive
	}

	if _, err := e.tickets.transfer(EscrowAccount, order.TicketID, order.Seller); err != nil {
		return domain.Event{}, err
	}
	e.book.resolve(order, domain.OrderCancelled)
	at := e.now()
	order.CancelledAt = &at

	return e.emit(domain.EventOrderCancelled, caller, domain.OrderCancelledPayload{
		OrderID:  orderID,
		TicketID: order.TicketID,
		Seller:   order.Seller,
	}), nil
}

// BuyFromOrderBook fills a specific active order: the ticket goes to the
// buyer and the payment to the seller, atomically.
func (e *Engine) BuyFromOrderBook(buyer common.Address, orderID uint64, payment uint64) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, err := e.book.get(orderID)
	if err != nil {
		return domain.Event{}, err
	}
	return e.fill(buyer, order, payment)
}

// BuyAtBestPrice fills the cheapest active order for a market segment. Ties
// break by earliest creation, then lowest order id.
func (e *Engine) BuyAtBestPrice(buyer common.Address, projectID uint64, optionIndex int, payment uint64) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, err := e.book.best(projectID, optionIndex)
	if err != nil {
		return domain.Event{}, err
	}
	return e.fill(buyer, order, payment)
}

// fill runs the shared match path. Must be called with the lock held.
func (e *Engine) fill(buyer common.Address, order *domain.Order, payment uint64) (domain.Event, error) {
	if !order.IsActive() {
		return domain.Event{}, domain.ErrOrderNotActive
	}
	if payment != order.Price {
		return domain.Event{}, domain.ErrWrongPayment
	}
	if err := e.checkPayment(buyer, payment); err != nil {
		return domain.Event{}, err
	}

	e.payDirect(buyer, order.Seller, payment)
	if _, err := e.tickets.transfer(EscrowAccount, order.TicketID, buyer); err != nil {
		panic(fmt.Sprintf("ledger: escrow lost custody of listed ticket %d: %v", order.TicketID, err))
	}
	e.book.resolve(order, domain.OrderFilled)
	at := e.now()
	order.FilledAt = &at

	return e.emit(domain.EventOrderFilled, buyer, domain.OrderFilledPayload{
		OrderID:     order.ID,
		TicketID:    order.TicketID,
		ProjectID:   order.ProjectID,
		OptionIndex: order.OptionIndex,
		Buyer:       buyer,
		Seller:      order.Seller,
		Price:       order.Price,
	}), nil
}

// GetOrderBook returns the active order ids and prices for one market
// segment, in order-creation order.
func (e *Engine) GetOrderBook(projectID uint64, optionIndex int) (orderIDs []uint64, prices []uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, o := range e.book.activeSegment(projectID, optionIndex) {
		orderIDs = append(orderIDs, o.ID)
		prices = append(prices, o.Price)
	}
	return orderIDs, prices
}

// GetOrder returns a copy of the order record.
func (e *Engine) GetOrder(orderID uint64) (domain.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.book.get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return copyOrder(o), nil
}

// UserOrders returns every order the account ever created, including
// terminal ones, in creation order.
func (e *Engine) UserOrders(seller common.Address) []domain.Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := e.book.ordersOf(seller)
	out := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyOrder(e.book.orders[id]))
	}
	return out
}

// ---------------------------------------------------------------------------
// Native balance book operations
// ---------------------------------------------------------------------------

// NativeBalance returns the withdrawable native balance of account.
func (e *Engine) NativeBalance(account common.Address) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balances.balanceOf(account)
}

// Withdraw debits the account's native balance; the host pays the value out.
func (e *Engine) Withdraw(account common.Address, amount uint64) (domain.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if amount == 0 {
		return domain.Event{}, domain.ErrInvalidAmount
	}
	if err := e.balances.debit(account, amount); err != nil {
		return domain.Event{}, err
	}
	return e.emit(domain.EventWithdrawal, account, domain.WithdrawalPayload{
		Account: account,
		Amount:  amount,
	}), nil
}

// ---------------------------------------------------------------------------
// copy helpers: reads hand out copies so callers never alias engine state.
// ---------------------------------------------------------------------------

func copyProject(p *domain.Project) domain.Project {
	out := *p
	out.Options = make([]string, len(p.Options))
	copy(out.Options, p.Options)
	out.OptionTicketCounts = make([]uint64, len(p.OptionTicketCounts))
	copy(out.OptionTicketCounts, p.OptionTicketCounts)
	return out
}

func copyTicket(t *domain.Ticket) domain.Ticket {
	out := *t
	if t.ApprovedOperator != nil {
		op := *t.ApprovedOperator
		out.ApprovedOperator = &op
	}
	return out
}

func copyOrder(o *domain.Order) domain.Order {
	out := *o
	if o.FilledAt != nil {
		at := *o.FilledAt
		out.FilledAt = &at
	}
	if o.CancelledAt != nil {
		at := *o.CancelledAt
		out.CancelledAt = &at
	}
	return out
}
