package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// TicketService defines the methods the ticket handler requires from the
// service layer.
type TicketService interface {
	TransferTicket(ctx context.Context, caller common.Address, ticketID uint64, to common.Address) (domain.Event, error)
	ApproveTicket(ctx context.Context, caller common.Address, ticketID uint64, operator common.Address) (domain.Event, error)
	SetApprovalForAll(ctx context.Context, caller, operator common.Address, enabled bool) (domain.Event, error)
	TicketInfo(ticketID uint64) (domain.Ticket, error)
	TicketsOf(owner common.Address) []uint64
}

// TicketHandler serves ticket-registry HTTP endpoints.
type TicketHandler struct {
	tickets TicketService
	logger  *slog.Logger
}

// NewTicketHandler creates a TicketHandler with the given service and logger.
func NewTicketHandler(tickets TicketService, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{tickets: tickets, logger: logger}
}

// Get returns one ticket record.
// GET /api/tickets/{id}
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.tickets.TicketInfo(id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type accountTicketsResponse struct {
	Account   string   `json:"account"`
	TicketIDs []uint64 `json:"ticket_ids"`
}

// AccountTickets returns the ids of every ticket the account holds.
// GET /api/accounts/{account}/tickets
func (h *TicketHandler) AccountTickets(w http.ResponseWriter, r *http.Request) {
	account, ok := parseAddress(w, "account", r.PathValue("account"))
	if !ok {
		return
	}

	ids := h.tickets.TicketsOf(account)
	if ids == nil {
		ids = []uint64{}
	}
	writeJSON(w, http.StatusOK, accountTicketsResponse{
		Account:   account.Hex(),
		TicketIDs: ids,
	})
}

type transferTicketRequest struct {
	To string `json:"to"`
}

// Transfer moves ticket ownership. The caller must be the owner or an
// approved operator.
// POST /api/tickets/{id}/transfer
func (h *TicketHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req transferTicketRequest
	if !decodeBody(w, r, &req) {
		return
	}
	to, ok := parseAddress(w, "to", req.To)
	if !ok {
		return
	}

	ev, err := h.tickets.TransferTicket(r.Context(), caller, id, to)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type approveTicketRequest struct {
	Operator string `json:"operator"`
}

// Approve sets the delegated transfer approval for one ticket.
// POST /api/tickets/{id}/approve
func (h *TicketHandler) Approve(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req approveTicketRequest
	if !decodeBody(w, r, &req) {
		return
	}
	operator, ok := parseAddress(w, "operator", req.Operator)
	if !ok {
		return
	}

	ev, err := h.tickets.ApproveTicket(r.Context(), caller, id, operator)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type approveAllRequest struct {
	Operator string `json:"operator"`
	Enabled  bool   `json:"enabled"`
}

// ApproveAll toggles a blanket operator approval for the caller.
// POST /api/accounts/approve-all
func (h *TicketHandler) ApproveAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req approveAllRequest
	if !decodeBody(w, r, &req) {
		return
	}
	operator, ok := parseAddress(w, "operator", req.Operator)
	if !ok {
		return
	}

	ev, err := h.tickets.SetApprovalForAll(r.Context(), caller, operator, req.Enabled)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
