package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betledger/internal/domain"
	"github.com/alanyoungcy/betledger/internal/ledger"
	"github.com/alanyoungcy/betledger/internal/service"
)

type memEventStore struct {
	events []domain.Event
}

func (m *memEventStore) Append(_ context.Context, ev domain.Event) error {
	m.events = append(m.events, ev)
	return nil
}

func (m *memEventStore) ListAfter(context.Context, uint64, int) ([]domain.Event, error) {
	return nil, nil
}

func (m *memEventStore) ListBefore(context.Context, time.Time) ([]domain.Event, error) {
	return nil, nil
}

func (m *memEventStore) DeleteBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (m *memEventStore) LastSeq(context.Context) (uint64, error) {
	return 0, nil
}

type apiFixture struct {
	mux   *http.ServeMux
	clock time.Time
}

// newAPIFixture builds the full handler surface over an in-memory engine,
// registered with the same route patterns the server uses.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

	engine := ledger.New(ledger.Config{
		TicketPrice: 100,
		GrantAmount: 1000,
		PaymentMode: ledger.PaymentNative,
		Now:         func() time.Time { return f.clock },
	})
	svc := service.NewLedgerService(
		engine, &memEventStore{}, nil, nil, nil, nil, 0, 0, slog.Default(),
	)

	logger := slog.Default()
	credits := NewCreditHandler(svc, logger)
	projects := NewProjectHandler(svc, logger)
	tickets := NewTicketHandler(svc, logger)
	orders := NewOrderHandler(svc, logger)
	balances := NewBalanceHandler(svc, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/credits/grant", credits.Grant)
	mux.HandleFunc("POST /api/credits/transfer", credits.Transfer)
	mux.HandleFunc("GET /api/credits/{account}", credits.GetAccount)
	mux.HandleFunc("POST /api/projects", projects.Create)
	mux.HandleFunc("GET /api/projects", projects.List)
	mux.HandleFunc("GET /api/projects/{id}", projects.Get)
	mux.HandleFunc("POST /api/projects/{id}/tickets", projects.BuyTicket)
	mux.HandleFunc("POST /api/projects/{id}/settle", projects.Settle)
	mux.HandleFunc("POST /api/tickets/{id}/claim", projects.Claim)
	mux.HandleFunc("GET /api/tickets/{id}", tickets.Get)
	mux.HandleFunc("GET /api/accounts/{account}/tickets", tickets.AccountTickets)
	mux.HandleFunc("POST /api/orders", orders.Create)
	mux.HandleFunc("DELETE /api/orders/{id}", orders.Cancel)
	mux.HandleFunc("POST /api/orders/{id}/buy", orders.Buy)
	mux.HandleFunc("GET /api/orderbook", orders.OrderBook)
	mux.HandleFunc("GET /api/balance/{account}", balances.Get)
	f.mux = mux
	return f
}

func hexAddr(b byte) string {
	var a common.Address
	a[common.AddressLength-1] = b
	return a.Hex()
}

func (f *apiFixture) do(t *testing.T, method, path, account string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if account != "" {
		req.Header.Set(accountHeader, account)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) openProject(t *testing.T) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/projects", hexAddr(1), map[string]any{
		"title":    "t",
		"options":  []string{"a", "b"},
		"deadline": f.clock.Add(time.Hour).Format(time.RFC3339),
		"escrow":   1000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCreateProjectEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.openProject(t)

	rec := f.do(t, http.MethodGet, "/api/projects/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var proj domain.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &proj))
	assert.Equal(t, uint64(1000), proj.PoolBalance)
	assert.Equal(t, []string{"a", "b"}, proj.Options)
}

func TestCreateProjectRequiresAccountHeader(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/projects", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/projects", "not-an-address", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	f := newAPIFixture(t)
	f.openProject(t)

	// validation -> 400
	rec := f.do(t, http.MethodPost, "/api/projects", hexAddr(1), map[string]any{
		"title":    "t",
		"options":  []string{"only"},
		"deadline": f.clock.Add(time.Hour).Format(time.RFC3339),
		"escrow":   10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown reference -> 404
	rec = f.do(t, http.MethodGet, "/api/projects/99", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// wrong payment -> 402
	rec = f.do(t, http.MethodPost, "/api/projects/1/tickets", hexAddr(2), map[string]any{
		"option_index": 0,
		"payment":      1,
	})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	// settling before the deadline as a non-creator -> 403
	rec = f.do(t, http.MethodPost, "/api/projects/1/settle", hexAddr(9), map[string]any{
		"winning_option": 0,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// settling before the deadline as the creator -> 409
	rec = f.do(t, http.MethodPost, "/api/projects/1/settle", hexAddr(1), map[string]any{
		"winning_option": 0,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGrantConflictOnSecondCall(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/credits/grant", hexAddr(5), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/credits/grant", hexAddr(5), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/credits/"+hexAddr(5), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Balance uint64 `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1000), resp.Balance)
}

func TestOrderLifecycleEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	f.openProject(t)

	rec := f.do(t, http.MethodPost, "/api/projects/1/tickets", hexAddr(2), map[string]any{
		"option_index": 0,
		"payment":      100,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/orders", hexAddr(2), map[string]any{
		"ticket_id": 1,
		"price":     250,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/orderbook?project_id=1&option=0", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var seg domain.OrderBookSegment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seg))
	assert.Equal(t, []uint64{1}, seg.OrderIDs)

	// cancelling someone else's order is forbidden
	rec = f.do(t, http.MethodDelete, "/api/orders/1", hexAddr(9), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/orders/1/buy", hexAddr(3), map[string]any{
		"payment": 250,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/balance/"+hexAddr(2), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bal struct {
		Balance uint64 `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bal))
	assert.Equal(t, uint64(250), bal.Balance)

	rec = f.do(t, http.MethodGet, "/api/accounts/"+hexAddr(3)+"/tickets", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tix accountTicketsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tix))
	assert.Equal(t, []uint64{1}, tix.TicketIDs)
}

func TestSettleAndClaimEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	f.openProject(t)

	rec := f.do(t, http.MethodPost, "/api/projects/1/tickets", hexAddr(2), map[string]any{
		"option_index": 0,
		"payment":      100,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	f.clock = f.clock.Add(2 * time.Hour)

	rec = f.do(t, http.MethodPost, "/api/projects/1/settle", hexAddr(1), map[string]any{
		"winning_option": 0,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/tickets/1/claim", hexAddr(2), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// second claim conflicts
	rec = f.do(t, http.MethodPost, "/api/tickets/1/claim", hexAddr(2), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/balance/"+hexAddr(2), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bal struct {
		Balance uint64 `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bal))
	assert.Equal(t, uint64(1100), bal.Balance)
}
