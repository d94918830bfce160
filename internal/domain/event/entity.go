package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable record of a business occurrence. It is appended by
// an external producer (or the scheduler sweep, for synthetic kinds), read
// by the processor, and marked processed exactly once on handler success.
type Event struct {
	id         uuid.UUID
	kind       Kind
	payload    []byte
	occurredAt time.Time
	processed  bool
	attempts   int32
	lastError  *string
}

func NewEvent(kind Kind, payload Payload, occurredAt time.Time) (*Event, error) {
	raw, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		id:         uuid.New(),
		kind:       kind,
		payload:    raw,
		occurredAt: occurredAt,
	}, nil
}

// Restore rebuilds an event from its stored representation.
func Restore(id uuid.UUID, kind Kind, payload []byte, occurredAt time.Time, processed bool, attempts int32, lastError *string) *Event {
	return &Event{
		id:         id,
		kind:       kind,
		payload:    payload,
		occurredAt: occurredAt,
		processed:  processed,
		attempts:   attempts,
		lastError:  lastError,
	}
}

func (e *Event) DecodedPayload() (Payload, error) {
	return DecodePayload(e.kind, e.payload)
}

func (e *Event) ID() uuid.UUID         { return e.id }
func (e *Event) Kind() Kind            { return e.kind }
func (e *Event) Payload() []byte       { return e.payload }
func (e *Event) OccurredAt() time.Time { return e.occurredAt }
func (e *Event) Processed() bool       { return e.processed }
func (e *Event) Attempts() int32       { return e.attempts }
func (e *Event) LastError() *string    { return e.lastError }
