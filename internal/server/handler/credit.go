package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// CreditService defines the methods the credit handler requires from the
// service layer.
type CreditService interface {
	Grant(ctx context.Context, account common.Address) (domain.Event, error)
	TransferCredits(ctx context.Context, from, to common.Address, amount uint64) (domain.Event, error)
	ApproveCredits(ctx context.Context, owner, spender common.Address, amount uint64) (domain.Event, error)
	TransferCreditsFrom(ctx context.Context, spender, from, to common.Address, amount uint64) (domain.Event, error)
	CreditBalance(account common.Address) uint64
	CreditAllowance(owner, spender common.Address) uint64
}

// CreditHandler serves credit-ledger HTTP endpoints.
type CreditHandler struct {
	credits CreditService
	logger  *slog.Logger
}

// NewCreditHandler creates a CreditHandler with the given service and logger.
func NewCreditHandler(credits CreditService, logger *slog.Logger) *CreditHandler {
	return &CreditHandler{credits: credits, logger: logger}
}

// Grant mints the one-time credit grant to the caller.
// POST /api/credits/grant
func (h *CreditHandler) Grant(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}

	ev, err := h.credits.Grant(r.Context(), caller)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

type transferCreditsRequest struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// Transfer moves credits from the caller to another account.
// POST /api/credits/transfer
func (h *CreditHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req transferCreditsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	to, ok := parseAddress(w, "to", req.To)
	if !ok {
		return
	}

	ev, err := h.credits.TransferCredits(r.Context(), caller, to, req.Amount)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type approveCreditsRequest struct {
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`
}

// Approve sets the allowance the caller grants to a spender.
// POST /api/credits/approve
func (h *CreditHandler) Approve(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req approveCreditsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	spender, ok := parseAddress(w, "spender", req.Spender)
	if !ok {
		return
	}

	ev, err := h.credits.ApproveCredits(r.Context(), caller, spender, req.Amount)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type transferFromRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// TransferFrom moves credits on behalf of the caller's allowance.
// POST /api/credits/transfer-from
func (h *CreditHandler) TransferFrom(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req transferFromRequest
	if !decodeBody(w, r, &req) {
		return
	}
	from, ok := parseAddress(w, "from", req.From)
	if !ok {
		return
	}
	to, ok := parseAddress(w, "to", req.To)
	if !ok {
		return
	}

	ev, err := h.credits.TransferCreditsFrom(r.Context(), caller, from, to, req.Amount)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type creditAccountResponse struct {
	Account   string  `json:"account"`
	Balance   uint64  `json:"balance"`
	Spender   string  `json:"spender,omitempty"`
	Allowance *uint64 `json:"allowance,omitempty"`
}

// GetAccount returns the credit balance of an account, plus the allowance
// toward an optional ?spender= address.
// GET /api/credits/{account}
func (h *CreditHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := parseAddress(w, "account", r.PathValue("account"))
	if !ok {
		return
	}

	resp := creditAccountResponse{
		Account: account.Hex(),
		Balance: h.credits.CreditBalance(account),
	}
	if raw := r.URL.Query().Get("spender"); raw != "" {
		spender, ok := parseAddress(w, "spender", raw)
		if !ok {
			return
		}
		allowance := h.credits.CreditAllowance(account, spender)
		resp.Spender = spender.Hex()
		resp.Allowance = &allowance
	}
	writeJSON(w, http.StatusOK, resp)
}
