package request

import "encoding/json"

// TriggerEventRequest is the envelope external collaborators submit. The
// payload is validated against the typed schema for the kind before anything
// is persisted.
type TriggerEventRequest struct {
	Event string          `json:"event" binding:"required"`
	Data  json.RawMessage `json:"data" binding:"required"`
}
