package automation

import (
	"github.com/google/uuid"

	"shop-automation/internal/domain/event"
)

type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeSkipped   OutcomeStatus = "skipped_unknown_type"
)

type EventOutcome struct {
	EventID uuid.UUID     `json:"event_id"`
	Kind    event.Kind    `json:"kind"`
	Status  OutcomeStatus `json:"status"`
	Error   string        `json:"error,omitempty"`
}

// Report aggregates one sweep of the pending backlog. It is surfaced to the
// manual process endpoint and logged by the periodic runner.
type Report struct {
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Outcomes  []EventOutcome `json:"outcomes"`
}

func (r *Report) record(outcome EventOutcome) {
	switch outcome.Status {
	case OutcomeSucceeded:
		r.Succeeded++
	case OutcomeFailed:
		r.Failed++
	case OutcomeSkipped:
		r.Skipped++
	}
	r.Outcomes = append(r.Outcomes, outcome)
}

func (r *Report) Total() int {
	return r.Succeeded + r.Failed + r.Skipped
}
