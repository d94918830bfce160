package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"shop-automation/internal/domain/event"
	"shop-automation/internal/infra"
	"shop-automation/internal/pkg/pgconv"
)

type EventStore struct {
	pool *pgxpool.Pool
}

func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

func (s *EventStore) Append(ctx context.Context, evt *event.Event) error {
	const query = `
		INSERT INTO events (id, kind, payload, occurred_at, processed, attempts)
		VALUES ($1, $2, $3, $4, false, 0)`

	_, err := s.pool.Exec(ctx, query, evt.ID(), evt.Kind().String(), evt.Payload(), evt.OccurredAt())
	if err != nil {
		return infra.WrapRepoErr("failed to append event", err)
	}
	return nil
}

func (s *EventStore) ListPending(ctx context.Context, limit int32) ([]*event.Event, error) {
	const query = `
		SELECT id, kind, payload, occurred_at, processed, attempts, last_error
		FROM events
		WHERE processed = false
		ORDER BY occurred_at
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list pending events", err)
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan event row", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read pending events", err)
	}
	return events, nil
}

// MarkProcessed is conditional: the update only applies while the event is
// still pending, so concurrent sweeps commit side effects at most once.
func (s *EventStore) MarkProcessed(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `
		UPDATE events SET processed = true, updated_at = now()
		WHERE id = $1 AND processed = false`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return false, infra.WrapRepoErr("failed to mark event processed", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *EventStore) RecordFailure(ctx context.Context, id uuid.UUID, handlerErr string) error {
	const query = `
		UPDATE events SET attempts = attempts + 1, last_error = $2, updated_at = now()
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, id, handlerErr)
	if err != nil {
		return infra.WrapRepoErr("failed to record event failure", err)
	}
	return nil
}

func scanEvent(rows pgx.Rows) (*event.Event, error) {
	var (
		id         uuid.UUID
		kind       string
		payload    []byte
		occurredAt pgtype.Timestamptz
		processed  bool
		attempts   int32
		lastError  pgtype.Text
	)
	if err := rows.Scan(&id, &kind, &payload, &occurredAt, &processed, &attempts, &lastError); err != nil {
		return nil, err
	}

	// Kinds are restored verbatim; the processor skips unregistered ones.
	return event.Restore(
		id,
		event.Kind(kind),
		payload,
		occurredAt.Time,
		processed,
		attempts,
		pgconv.StringPtrFromPgtype(lastError),
	), nil
}
