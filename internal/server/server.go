// Package server exposes the ledger over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/betledger/internal/domain"
	"github.com/alanyoungcy/betledger/internal/server/handler"
	"github.com/alanyoungcy/betledger/internal/server/middleware"
	"github.com/alanyoungcy/betledger/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// IP-level request limiting, applied before auth. Zero disables it.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health   *handler.HealthHandler
	Credits  *handler.CreditHandler
	Projects *handler.ProjectHandler
	Tickets  *handler.TicketHandler
	Orders   *handler.OrderHandler
	Balances *handler.BalanceHandler
}

// Server is the HTTP + WebSocket API server for the ledger.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (CORS, logging, rate limiting, auth) and attaches
// the WebSocket hub. limiter may be nil to disable IP-level limiting.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Credit ledger endpoints.
	mux.HandleFunc("POST /api/credits/grant", handlers.Credits.Grant)
	mux.HandleFunc("POST /api/credits/transfer", handlers.Credits.Transfer)
	mux.HandleFunc("POST /api/credits/approve", handlers.Credits.Approve)
	mux.HandleFunc("POST /api/credits/transfer-from", handlers.Credits.TransferFrom)
	mux.HandleFunc("GET /api/credits/{account}", handlers.Credits.GetAccount)

	// Project lifecycle endpoints.
	mux.HandleFunc("POST /api/projects", handlers.Projects.Create)
	mux.HandleFunc("GET /api/projects", handlers.Projects.List)
	mux.HandleFunc("GET /api/projects/{id}", handlers.Projects.Get)
	mux.HandleFunc("POST /api/projects/{id}/tickets", handlers.Projects.BuyTicket)
	mux.HandleFunc("POST /api/projects/{id}/settle", handlers.Projects.Settle)
	mux.HandleFunc("POST /api/tickets/{id}/claim", handlers.Projects.Claim)

	// Ticket registry endpoints.
	mux.HandleFunc("GET /api/tickets/{id}", handlers.Tickets.Get)
	mux.HandleFunc("POST /api/tickets/{id}/transfer", handlers.Tickets.Transfer)
	mux.HandleFunc("POST /api/tickets/{id}/approve", handlers.Tickets.Approve)
	mux.HandleFunc("GET /api/accounts/{account}/tickets", handlers.Tickets.AccountTickets)
	mux.HandleFunc("POST /api/accounts/approve-all", handlers.Tickets.ApproveAll)

	// Order book endpoints.
	mux.HandleFunc("POST /api/orders", handlers.Orders.Create)
	mux.HandleFunc("POST /api/orders/buy-best", handlers.Orders.BuyBest)
	mux.HandleFunc("GET /api/orders/{id}", handlers.Orders.Get)
	mux.HandleFunc("DELETE /api/orders/{id}", handlers.Orders.Cancel)
	mux.HandleFunc("POST /api/orders/{id}/buy", handlers.Orders.Buy)
	mux.HandleFunc("GET /api/orderbook", handlers.Orders.OrderBook)
	mux.HandleFunc("GET /api/accounts/{account}/orders", handlers.Orders.AccountOrders)

	// Native balance endpoints.
	mux.HandleFunc("GET /api/balance/{account}", handlers.Balances.Get)
	mux.HandleFunc("POST /api/balance/withdraw", handlers.Balances.Withdraw)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
