package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// ProjectService defines the methods the project handler requires from the
// service layer.
type ProjectService interface {
	CreateProject(ctx context.Context, creator common.Address, title string, options []string, deadline time.Time, escrow uint64) (domain.Event, error)
	BuyTicket(ctx context.Context, buyer common.Address, projectID uint64, optionIndex int, payment uint64) (domain.Event, error)
	SettleProject(ctx context.Context, caller common.Address, projectID uint64, winningOption int) (domain.Event, error)
	ClaimWinnings(ctx context.Context, caller common.Address, ticketID uint64) (domain.Event, error)
	GetProject(projectID uint64) (domain.Project, error)
	ListProjectIDs() []uint64
}

// ProjectHandler serves project-lifecycle HTTP endpoints.
type ProjectHandler struct {
	projects ProjectService
	logger   *slog.Logger
}

// NewProjectHandler creates a ProjectHandler with the given service and
// logger.
func NewProjectHandler(projects ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

type createProjectRequest struct {
	Title    string    `json:"title"`
	Options  []string  `json:"options"`
	Deadline time.Time `json:"deadline"`
	Escrow   uint64    `json:"escrow"`
}

// Create opens a new market escrowed by the caller.
// POST /api/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req createProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ev, err := h.projects.CreateProject(r.Context(), caller, req.Title, req.Options, req.Deadline, req.Escrow)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

type listProjectsResponse struct {
	Projects []domain.Project `json:"projects"`
}

// List returns every project in creation order.
// GET /api/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	ids := h.projects.ListProjectIDs()
	projects := make([]domain.Project, 0, len(ids))
	for _, id := range ids {
		proj, err := h.projects.GetProject(id)
		if err != nil {
			continue
		}
		projects = append(projects, proj)
	}
	writeJSON(w, http.StatusOK, listProjectsResponse{Projects: projects})
}

// Get returns one project record.
// GET /api/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	proj, err := h.projects.GetProject(id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

type buyTicketRequest struct {
	OptionIndex int    `json:"option_index"`
	Payment     uint64 `json:"payment"`
}

// BuyTicket sells one primary-market ticket to the caller.
// POST /api/projects/{id}/tickets
func (h *ProjectHandler) BuyTicket(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req buyTicketRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ev, err := h.projects.BuyTicket(r.Context(), caller, id, req.OptionIndex, req.Payment)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

type settleRequest struct {
	WinningOption int `json:"winning_option"`
}

// Settle declares the winning option. Only the creator may settle.
// POST /api/projects/{id}/settle
func (h *ProjectHandler) Settle(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req settleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ev, err := h.projects.SettleProject(r.Context(), caller, id, req.WinningOption)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// Claim pays out one winning ticket held by the caller.
// POST /api/tickets/{id}/claim
func (h *ProjectHandler) Claim(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ev, err := h.projects.ClaimWinnings(r.Context(), caller, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
