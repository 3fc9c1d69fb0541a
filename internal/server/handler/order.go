package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// OrderService defines the methods the order handler requires from the
// service layer.
type OrderService interface {
	ListTicket(ctx context.Context, seller common.Address, ticketID, price uint64) (domain.Event, error)
	CancelOrder(ctx context.Context, caller common.Address, orderID uint64) (domain.Event, error)
	BuyOrder(ctx context.Context, buyer common.Address, orderID, payment uint64) (domain.Event, error)
	BuyBest(ctx context.Context, buyer common.Address, projectID uint64, optionIndex int, payment uint64) (domain.Event, error)
	OrderBookSegment(ctx context.Context, projectID uint64, optionIndex int) (domain.OrderBookSegment, error)
	GetOrder(orderID uint64) (domain.Order, error)
	UserOrders(seller common.Address) []domain.Order
}

// OrderHandler serves resale order-book HTTP endpoints.
type OrderHandler struct {
	orders OrderService
	logger *slog.Logger
}

// NewOrderHandler creates an OrderHandler with the given service and logger.
func NewOrderHandler(orders OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

type listTicketRequest struct {
	TicketID uint64 `json:"ticket_id"`
	Price    uint64 `json:"price"`
}

// Create places one of the caller's tickets for resale.
// POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req listTicketRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ev, err := h.orders.ListTicket(r.Context(), caller, req.TicketID, req.Price)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// Cancel retires one of the caller's active orders.
// DELETE /api/orders/{id}
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ev, err := h.orders.CancelOrder(r.Context(), caller, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type buyOrderRequest struct {
	Payment uint64 `json:"payment"`
}

// Buy fills a specific active order for the caller.
// POST /api/orders/{id}/buy
func (h *OrderHandler) Buy(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req buyOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ev, err := h.orders.BuyOrder(r.Context(), caller, id, req.Payment)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type buyBestRequest struct {
	ProjectID   uint64 `json:"project_id"`
	OptionIndex int    `json:"option_index"`
	Payment     uint64 `json:"payment"`
}

// BuyBest fills the cheapest active order for a market segment.
// POST /api/orders/buy-best
func (h *OrderHandler) BuyBest(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req buyBestRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ev, err := h.orders.BuyBest(r.Context(), caller, req.ProjectID, req.OptionIndex, req.Payment)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// Get returns one order record, active or terminal.
// GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type accountOrdersResponse struct {
	Account string         `json:"account"`
	Orders  []domain.Order `json:"orders"`
}

// AccountOrders returns every order the account ever created.
// GET /api/accounts/{account}/orders
func (h *OrderHandler) AccountOrders(w http.ResponseWriter, r *http.Request) {
	account, ok := parseAddress(w, "account", r.PathValue("account"))
	if !ok {
		return
	}

	orders := h.orders.UserOrders(account)
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, accountOrdersResponse{
		Account: account.Hex(),
		Orders:  orders,
	})
}

// OrderBook returns the active orders for one market segment.
// GET /api/orderbook?project_id=&option=
func (h *OrderHandler) OrderBook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	projectID, err := strconv.ParseUint(q.Get("project_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project_id")
		return
	}
	optionIndex, err := strconv.Atoi(q.Get("option"))
	if err != nil || optionIndex < 0 {
		writeError(w, http.StatusBadRequest, "invalid option")
		return
	}

	seg, err := h.orders.OrderBookSegment(r.Context(), projectID, optionIndex)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if seg.OrderIDs == nil {
		seg.OrderIDs = []uint64{}
	}
	if seg.Prices == nil {
		seg.Prices = []uint64{}
	}
	writeJSON(w, http.StatusOK, seg)
}
