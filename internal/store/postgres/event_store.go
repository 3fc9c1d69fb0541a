package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// EventStore implements domain.EventStore using PostgreSQL. The ledger_events
// table is the append-only journal; seq is the engine's commit sequence and
// doubles as the primary key.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Append persists one committed event. Appending the same sequence twice is
// an error; the engine guarantees sequence numbers are never reused.
func (s *EventStore) Append(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("postgres: marshal event payload: %w", err)
	}

	const query = `
		INSERT INTO ledger_events (seq, id, kind, actor, occurred_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = s.pool.Exec(ctx, query,
		int64(ev.Seq), ev.ID, string(ev.Kind), ev.Actor.Hex(), ev.Time, payload,
	)
	if err != nil {
		return fmt.Errorf("postgres: append event seq=%d: %w", ev.Seq, err)
	}
	return nil
}

// ListAfter returns up to limit events with seq strictly greater than seq,
// in sequence order. It backs replay and incremental consumers.
func (s *EventStore) ListAfter(ctx context.Context, seq uint64, limit int) ([]domain.Event, error) {
	query := `
		SELECT seq, id, kind, actor, occurred_at, payload
		FROM ledger_events
		WHERE seq > $1
		ORDER BY seq ASC`
	args := []any{int64(seq)}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events after seq=%d: %w", seq, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListBefore returns every event that occurred strictly before the cutoff,
// in sequence order. It feeds the archiver.
func (s *EventStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Event, error) {
	const query = `
		SELECT seq, id, kind, actor, occurred_at, payload
		FROM ledger_events
		WHERE occurred_at < $1
		ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events before %s: %w", before, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// DeleteBefore removes events that occurred strictly before the cutoff and
// returns the number removed. Called only after the archiver has uploaded
// them.
func (s *EventStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM ledger_events WHERE occurred_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete events before %s: %w", before, err)
	}
	return tag.RowsAffected(), nil
}

// LastSeq returns the highest journaled sequence, or zero for an empty
// journal.
func (s *EventStore) LastSeq(ctx context.Context) (uint64, error) {
	var seq int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM ledger_events`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("postgres: last event seq: %w", err)
	}
	return uint64(seq), nil
}

func scanEvents(rows pgx.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		var (
			seq     int64
			id      uuid.UUID
			kind    string
			actor   string
			at      time.Time
			payload []byte
		)
		if err := rows.Scan(&seq, &id, &kind, &actor, &at, &payload); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}

		decoded, err := decodePayload(domain.EventKind(kind), payload)
		if err != nil {
			return nil, fmt.Errorf("postgres: decode event seq=%d payload: %w", seq, err)
		}
		events = append(events, domain.Event{
			ID:      id,
			Seq:     uint64(seq),
			Kind:    domain.EventKind(kind),
			Actor:   common.HexToAddress(actor),
			Time:    at,
			Payload: decoded,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list events rows: %w", err)
	}
	return events, nil
}

// decodePayload restores the typed payload for a journaled event.
func decodePayload(kind domain.EventKind, raw []byte) (any, error) {
	switch kind {
	case domain.EventProjectCreated:
		return unmarshalPayload[domain.ProjectCreatedPayload](raw)
	case domain.EventTicketPurchased:
		return unmarshalPayload[domain.TicketPurchasedPayload](raw)
	case domain.EventProjectSettled:
		return unmarshalPayload[domain.ProjectSettledPayload](raw)
	case domain.EventWinningsClaimed:
		return unmarshalPayload[domain.WinningsClaimedPayload](raw)
	case domain.EventTicketListed:
		return unmarshalPayload[domain.TicketListedPayload](raw)
	case domain.EventOrderCancelled:
		return unmarshalPayload[domain.OrderCancelledPayload](raw)
	case domain.EventOrderFilled:
		return unmarshalPayload[domain.OrderFilledPayload](raw)
	case domain.EventTicketTransferred:
		return unmarshalPayload[domain.TicketTransferredPayload](raw)
	case domain.EventTicketApproved:
		return unmarshalPayload[domain.TicketApprovedPayload](raw)
	case domain.EventOperatorApproval:
		return unmarshalPayload[domain.OperatorApprovalPayload](raw)
	case domain.EventCreditGranted:
		return unmarshalPayload[domain.CreditGrantedPayload](raw)
	case domain.EventCreditTransferred:
		return unmarshalPayload[domain.CreditTransferredPayload](raw)
	case domain.EventCreditApproved:
		return unmarshalPayload[domain.CreditApprovedPayload](raw)
	case domain.EventWithdrawal:
		return unmarshalPayload[domain.WithdrawalPayload](raw)
	default:
		// Unknown kinds round-trip as generic maps so old journals survive
		// schema evolution.
		return unmarshalPayload[map[string]any](raw)
	}
}

func unmarshalPayload[T any](raw []byte) (T, error) {
	var p T
	err := json.Unmarshal(raw, &p)
	return p, err
}
