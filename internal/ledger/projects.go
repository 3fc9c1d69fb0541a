package ledger

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// projectLedger owns project metadata, escrowed pools, per-option ticket
// counts, and settlement bookkeeping (per-ticket claim flags).
type projectLedger struct {
	projects map[uint64]*domain.Project
	ids      []uint64 // creation order, backs ListProjectIDs
	claimed  map[uint64]bool
	nextID   uint64
}

func newProjectLedger() *projectLedger {
	return &projectLedger{
		projects: make(map[uint64]*domain.Project),
		claimed:  make(map[uint64]bool),
		nextID:   1,
	}
}

func (p *projectLedger) create(creator common.Address, title string, options []string, deadline time.Time, escrow uint64, now time.Time) *domain.Project {
	opts := make([]string, len(options))
	copy(opts, options)

	proj := &domain.Project{
		ID:                 p.nextID,
		Creator:            creator,
		Title:              title,
		Options:            opts,
		PoolBalance:        escrow,
		Deadline:           deadline,
		State:              domain.ProjectOpen,
		WinningOption:      -1,
		OptionTicketCounts: make([]uint64, len(opts)),
		CreatedAt:          now,
	}
	p.nextID++
	p.projects[proj.ID] = proj
	p.ids = append(p.ids, proj.ID)
	return proj
}

func (p *projectLedger) get(projectID uint64) (*domain.Project, error) {
	proj, ok := p.projects[projectID]
	if !ok {
		return nil, domain.ErrUnknownProject
	}
	return proj, nil
}

func (p *projectLedger) listIDs() []uint64 {
	out := make([]uint64, len(p.ids))
	copy(out, p.ids)
	return out
}
