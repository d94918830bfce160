package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"shop-automation/internal/domain/event"
)

var (
	ErrUnknownAction   = errors.New("unknown scheduled action kind")
	ErrExecuteAtInPast = errors.New("scheduled action must execute in the future")
)

// Action tags the deferred work a handler may schedule.
type Action string

const (
	ActionRelatedProductsNudge Action = "related_products_nudge"
)

// syntheticKinds maps each action to the event kind its firing produces.
var syntheticKinds = map[Action]event.Kind{
	ActionRelatedProductsNudge: event.KindRelatedProductsNudge,
}

func NewAction(s string) (Action, error) {
	a := Action(s)
	if _, ok := syntheticKinds[a]; !ok {
		return "", ErrUnknownAction
	}
	return a, nil
}

func (a Action) String() string {
	return string(a)
}

// ScheduledAction is a future-dated unit of work. The sweep claims it exactly
// once (executed flips false->true) and re-enters it into the pipeline as a
// synthetic event.
type ScheduledAction struct {
	id            uuid.UUID
	action        Action
	sourceEventID uuid.UUID
	customerID    uuid.UUID
	context       []byte
	executeAt     time.Time
	executed      bool
}

// NewScheduledAction keys the action to the event that scheduled it. The store
// deduplicates on that source, so a retried handler never schedules twice.
func NewScheduledAction(action Action, sourceEventID, customerID uuid.UUID, context []byte, executeAt, now time.Time) (*ScheduledAction, error) {
	if _, ok := syntheticKinds[action]; !ok {
		return nil, ErrUnknownAction
	}
	if !executeAt.After(now) {
		return nil, ErrExecuteAtInPast
	}
	return &ScheduledAction{
		id:            uuid.New(),
		action:        action,
		sourceEventID: sourceEventID,
		customerID:    customerID,
		context:       context,
		executeAt:     executeAt,
	}, nil
}

func Restore(id uuid.UUID, action Action, sourceEventID, customerID uuid.UUID, context []byte, executeAt time.Time, executed bool) *ScheduledAction {
	return &ScheduledAction{
		id:            id,
		action:        action,
		sourceEventID: sourceEventID,
		customerID:    customerID,
		context:       context,
		executeAt:     executeAt,
		executed:      executed,
	}
}

func (s *ScheduledAction) IsDueAt(t time.Time) bool {
	return !s.executeAt.After(t) && !s.executed
}

// SyntheticEvent converts a claimed action into the event the pipeline
// processes. The context persisted at scheduling time is the event payload.
func (s *ScheduledAction) SyntheticEvent(firedAt time.Time) (*event.Event, error) {
	kind := syntheticKinds[s.action]
	payload, err := event.DecodePayload(kind, s.context)
	if err != nil {
		return nil, err
	}
	return event.NewEvent(kind, payload, firedAt)
}

func (s *ScheduledAction) ID() uuid.UUID            { return s.id }
func (s *ScheduledAction) Action() Action           { return s.action }
func (s *ScheduledAction) SourceEventID() uuid.UUID { return s.sourceEventID }
func (s *ScheduledAction) CustomerID() uuid.UUID    { return s.customerID }
func (s *ScheduledAction) Context() []byte          { return s.context }
func (s *ScheduledAction) ExecuteAt() time.Time     { return s.executeAt }
func (s *ScheduledAction) Executed() bool           { return s.executed }
