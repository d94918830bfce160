package readmodel

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventRM struct {
	ID         uuid.UUID       `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
	Processed  bool            `json:"processed"`
	Attempts   int32           `json:"attempts"`
	LastError  *string         `json:"last_error,omitempty"`
}

type OutboundMessageRM struct {
	ID          uuid.UUID       `json:"id"`
	RecipientID uuid.UUID       `json:"recipient_id"`
	Subject     string          `json:"subject"`
	Template    string          `json:"template"`
	Data        json.RawMessage `json:"data"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
}

type AdminTaskRM struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Kind         string    `json:"kind"`
	Priority     string    `json:"priority"`
	AssignedRole string    `json:"assigned_role"`
	CreatedAt    time.Time `json:"created_at"`
}
