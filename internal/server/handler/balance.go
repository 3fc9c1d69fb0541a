package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// BalanceService defines the methods the balance handler requires from the
// service layer.
type BalanceService interface {
	NativeBalance(account common.Address) uint64
	Withdraw(ctx context.Context, account common.Address, amount uint64) (domain.Event, error)
}

// BalanceHandler serves native-balance HTTP endpoints.
type BalanceHandler struct {
	balances BalanceService
	logger   *slog.Logger
}

// NewBalanceHandler creates a BalanceHandler with the given service and
// logger.
func NewBalanceHandler(balances BalanceService, logger *slog.Logger) *BalanceHandler {
	return &BalanceHandler{balances: balances, logger: logger}
}

type balanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

// Get returns the withdrawable native balance of an account.
// GET /api/balance/{account}
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, ok := parseAddress(w, "account", r.PathValue("account"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		Account: account.Hex(),
		Balance: h.balances.NativeBalance(account),
	})
}

type withdrawRequest struct {
	Amount uint64 `json:"amount"`
}

// Withdraw debits the caller's native balance.
// POST /api/balance/withdraw
func (h *BalanceHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req withdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ev, err := h.balances.Withdraw(r.Context(), caller, req.Amount)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
