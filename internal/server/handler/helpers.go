package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// accountHeader carries the caller's account address. Authentication of the
// address is the deployment's job; the ledger only needs a consistent
// identity per request.
const accountHeader = "X-Account"

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a ledger error onto an HTTP status and writes it.
// Unrecognized errors are logged and reported as 500 without leaking detail.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "handler: unexpected error",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// statusFor maps the ledger error taxonomy onto HTTP statuses: validation
// 400, authorization 403, unknown references 404, state conflicts 409,
// payment shortfalls 402, rate limiting 429.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidOptions),
		errors.Is(err, domain.ErrInvalidDeadline),
		errors.Is(err, domain.ErrInvalidEscrow),
		errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrNotOwner),
		errors.Is(err, domain.ErrNotAuthorized),
		errors.Is(err, domain.ErrNotCreator),
		errors.Is(err, domain.ErrNotSeller):
		return http.StatusForbidden

	case errors.Is(err, domain.ErrUnknownProject),
		errors.Is(err, domain.ErrUnknownTicket),
		errors.Is(err, domain.ErrUnknownOrder),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrAlreadySettled),
		errors.Is(err, domain.ErrProjectSettled),
		errors.Is(err, domain.ErrProjectNotSettled),
		errors.Is(err, domain.ErrProjectExpired),
		errors.Is(err, domain.ErrNotYetExpired),
		errors.Is(err, domain.ErrAlreadyListed),
		errors.Is(err, domain.ErrOrderNotActive),
		errors.Is(err, domain.ErrNoActiveOrders),
		errors.Is(err, domain.ErrNotWinningTicket):
		return http.StatusConflict

	case errors.Is(err, domain.ErrWrongPayment),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInsufficientAllowance):
		return http.StatusPaymentRequired

	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests

	default:
		return http.StatusInternalServerError
	}
}

// callerAccount extracts and validates the caller address from the X-Account
// header. The bool result reports whether a valid address was present; the
// error response has already been written when it is false.
func callerAccount(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	raw := r.Header.Get(accountHeader)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing "+accountHeader+" header")
		return common.Address{}, false
	}
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid "+accountHeader+" address")
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// parseAddress validates a hex address from a request body field.
func parseAddress(w http.ResponseWriter, field, raw string) (common.Address, bool) {
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid "+field+" address")
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// pathID extracts a uint64 path parameter using Go 1.22+ built-in routing.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// decodeBody decodes the JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
