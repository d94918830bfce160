package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"shop-automation/internal/automation"
	"shop-automation/internal/infra"
	"shop-automation/internal/usecase/readmodel"
)

type OutboundMessageRepository struct {
	pool *pgxpool.Pool
}

func NewOutboundMessageRepository(pool *pgxpool.Pool) *OutboundMessageRepository {
	return &OutboundMessageRepository{pool: pool}
}

// Enqueue dedups on (event_id, recipient_id, template): a handler retrying
// after a partial failure re-enqueues the same message and the conflict
// clause swallows it.
func (r *OutboundMessageRepository) Enqueue(ctx context.Context, msg automation.OutboundMessage) error {
	data, err := json.Marshal(msg.Data)
	if err != nil {
		return infra.WrapRepoErr("failed to marshal message data", err)
	}

	const query = `
		INSERT INTO outbound_messages (id, event_id, recipient_id, subject, template, data, status, enqueued_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'queued', $7)
		ON CONFLICT (event_id, recipient_id, template) DO NOTHING`

	_, err = r.pool.Exec(ctx, query, uuid.New(), msg.EventID, msg.RecipientID, msg.Subject, msg.Template, data, msg.EnqueuedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to enqueue outbound message", err)
	}
	return nil
}

// ListPending returns queued messages newest first, for the admin dashboard.
// Delivery (and the status flip) belongs to the external delivery service.
func (r *OutboundMessageRepository) ListPending(ctx context.Context, limit int32) ([]*readmodel.OutboundMessageRM, error) {
	const query = `
		SELECT id, recipient_id, subject, template, data, enqueued_at
		FROM outbound_messages
		WHERE status = 'queued'
		ORDER BY enqueued_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list pending messages", err)
	}
	defer rows.Close()

	var messages []*readmodel.OutboundMessageRM
	for rows.Next() {
		rm := &readmodel.OutboundMessageRM{}
		if err := rows.Scan(&rm.ID, &rm.RecipientID, &rm.Subject, &rm.Template, &rm.Data, &rm.EnqueuedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan message row", err)
		}
		messages = append(messages, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read pending messages", err)
	}
	return messages, nil
}
