package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/betledger/internal/domain"
	"github.com/alanyoungcy/betledger/internal/ledger"
	"github.com/alanyoungcy/betledger/internal/server"
	"github.com/alanyoungcy/betledger/internal/server/handler"
	"github.com/alanyoungcy/betledger/internal/server/ws"
	"github.com/alanyoungcy/betledger/internal/service"
)

// replayBatchSize bounds how many journal rows are loaded per round while
// catching the engine up to the journal head.
const replayBatchSize = 500

// ServeMode restores the engine, then runs the HTTP/WebSocket server together
// with the periodic snapshotter and (when enabled) the journal archiver.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	engine, err := a.restoreEngine(ctx, deps)
	if err != nil {
		return fmt.Errorf("serve mode: %w", err)
	}

	svc := service.NewLedgerService(
		engine,
		deps.EventStore,
		deps.SignalBus,
		deps.BookCache,
		deps.RateLimiter,
		deps.Notifier,
		a.cfg.Market.RateLimit,
		a.cfg.Market.RateWindow.Duration,
		a.logger,
	)

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Channels:  []string{service.ChannelEvents},
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
			RateLimit:   a.cfg.Server.RateLimit,
			RateWindow:  a.cfg.Server.RateWindow.Duration,
		},
		server.Handlers{
			Health:   handler.NewHealthHandler(a.logger),
			Credits:  handler.NewCreditHandler(svc, a.logger),
			Projects: handler.NewProjectHandler(svc, a.logger),
			Tickets:  handler.NewTicketHandler(svc, a.logger),
			Orders:   handler.NewOrderHandler(svc, a.logger),
			Balances: handler.NewBalanceHandler(svc, a.logger),
		},
		hub,
		deps.RateLimiter,
		a.logger,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("ws hub: %w", err)
		}
		return nil
	})

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if a.cfg.Snapshot.Enabled {
		g.Go(func() error {
			return a.runSnapshotter(ctx, engine, deps.SnapshotStore)
		})
	}

	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		g.Go(func() error {
			return a.runArchiver(ctx, deps.Archiver)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ReplayMode rebuilds engine state from the latest snapshot plus the journal
// tail, saves a fresh snapshot, and exits. It is the offline recovery and
// consistency check: a journal that does not replay cleanly is corrupt.
func (a *App) ReplayMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting replay mode")

	engine, err := a.restoreEngine(ctx, deps)
	if err != nil {
		return fmt.Errorf("replay mode: %w", err)
	}

	lastSeq, err := deps.EventStore.LastSeq(ctx)
	if err != nil {
		return fmt.Errorf("replay mode: journal head: %w", err)
	}
	if engine.HeadSeq() != lastSeq {
		return fmt.Errorf("replay mode: engine head %d does not match journal head %d", engine.HeadSeq(), lastSeq)
	}

	seq, state, err := engine.Snapshot()
	if err != nil {
		return fmt.Errorf("replay mode: snapshot: %w", err)
	}
	if err := deps.SnapshotStore.Save(ctx, seq, state); err != nil {
		return fmt.Errorf("replay mode: save snapshot: %w", err)
	}

	a.logger.InfoContext(ctx, "replay complete",
		slog.Uint64("head_seq", seq),
		slog.Int("snapshot_bytes", len(state)),
	)
	return nil
}

// restoreEngine builds the engine from config, loads the latest snapshot if
// one exists, and replays the journal tail so the engine matches the journal
// head.
func (a *App) restoreEngine(ctx context.Context, deps *Dependencies) (*ledger.Engine, error) {
	engine := ledger.New(ledger.Config{
		TicketPrice: a.cfg.Market.TicketPrice,
		GrantAmount: a.cfg.Market.GrantAmount,
		PaymentMode: ledger.PaymentMode(strings.ToLower(a.cfg.Market.PaymentMode)),
	})

	seq, state, err := deps.SnapshotStore.Load(ctx)
	switch {
	case err == nil:
		if err := engine.Restore(state); err != nil {
			return nil, fmt.Errorf("restore snapshot seq=%d: %w", seq, err)
		}
		a.logger.InfoContext(ctx, "engine restored from snapshot", slog.Uint64("seq", seq))
	case errors.Is(err, domain.ErrNotFound):
		a.logger.InfoContext(ctx, "no snapshot found, starting from the journal")
	default:
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	replayed := 0
	for {
		events, err := deps.EventStore.ListAfter(ctx, engine.HeadSeq(), replayBatchSize)
		if err != nil {
			return nil, fmt.Errorf("list journal tail after seq %d: %w", engine.HeadSeq(), err)
		}
		if len(events) == 0 {
			break
		}
		if err := engine.Replay(events); err != nil {
			return nil, err
		}
		replayed += len(events)
	}

	a.logger.InfoContext(ctx, "engine ready",
		slog.Uint64("head_seq", engine.HeadSeq()),
		slog.Int("replayed_events", replayed),
	)
	return engine, nil
}

// runSnapshotter periodically persists the engine state, and once more on
// shutdown so a restart replays at most one interval of journal tail.
func (a *App) runSnapshotter(ctx context.Context, engine *ledger.Engine, store domain.SnapshotStore) error {
	interval := a.cfg.Snapshot.Interval.Duration
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	save := func(ctx context.Context) {
		seq, state, err := engine.Snapshot()
		if err != nil {
			a.logger.ErrorContext(ctx, "snapshot failed", slog.String("error", err.Error()))
			return
		}
		if err := store.Save(ctx, seq, state); err != nil {
			a.logger.ErrorContext(ctx, "snapshot save failed",
				slog.Uint64("seq", seq),
				slog.String("error", err.Error()),
			)
			return
		}
		a.logger.InfoContext(ctx, "snapshot saved",
			slog.Uint64("seq", seq),
			slog.Int("bytes", len(state)),
		)
	}

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			save(finalCtx)
			cancel()
			return nil
		case <-ticker.C:
			save(ctx)
		}
	}
}

// runArchiver periodically ages journal rows past the retention window out to
// blob storage.
func (a *App) runArchiver(ctx context.Context, archiver domain.Archiver) error {
	interval := a.cfg.Archive.Interval.Duration
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cutoff := time.Now().UTC().AddDate(0, 0, -a.cfg.Archive.RetentionDays)
			n, err := archiver.ArchiveEvents(ctx, cutoff)
			if err != nil {
				a.logger.ErrorContext(ctx, "journal archive failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				a.logger.InfoContext(ctx, "journal archived",
					slog.Int64("events", n),
					slog.Time("cutoff", cutoff),
				)
			}
		}
	}
}
