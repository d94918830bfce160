package commands

import (
	"context"
	"encoding/json"
	"log/slog"

	"shop-automation/internal/automation"
	"shop-automation/internal/domain/event"
	"shop-automation/internal/pkg/clock"
	"shop-automation/internal/pkg/errs"
	"shop-automation/internal/usecase/readmodel"
)

var (
	ErrUnknownEventKind = errs.New("unknown event kind")
	ErrInvalidPayload   = errs.New("invalid event payload")
	ErrHandlerFailed    = errs.New("event handler failed")
	ErrStorageFailure   = errs.New("storage failure")
)

type TriggerResult struct {
	Event     *readmodel.EventRM `json:"event"`
	Processed bool               `json:"processed"`
}

type SweepResult struct {
	Emitted int                `json:"emitted"`
	Report  *automation.Report `json:"report"`
}

type AutomationCommands interface {
	// Trigger validates and persists an inbound event, then dispatches it
	// synchronously through the same handler path the sweep uses.
	Trigger(ctx context.Context, kind string, data json.RawMessage) (*TriggerResult, error)
	// RunSweep serves the manual process endpoint: due scheduled actions are
	// re-entered first, then the pending backlog is processed.
	RunSweep(ctx context.Context) (*SweepResult, error)
}

type automationCommandsImpl struct {
	events    automation.EventStore
	processor *automation.Processor
	sweeper   *automation.Sweeper
	clock     clock.Clock
	logger    *slog.Logger
}

func NewAutomationCommands(
	events automation.EventStore,
	processor *automation.Processor,
	sweeper *automation.Sweeper,
	clk clock.Clock,
	logger *slog.Logger,
) AutomationCommands {
	return &automationCommandsImpl{
		events:    events,
		processor: processor,
		sweeper:   sweeper,
		clock:     clk,
		logger:    logger,
	}
}

func (a *automationCommandsImpl) Trigger(ctx context.Context, kindStr string, data json.RawMessage) (*TriggerResult, error) {
	kind, err := event.NewExternalKind(kindStr)
	if err != nil {
		return nil, errs.Mark(err, ErrUnknownEventKind)
	}

	payload, err := event.DecodePayload(kind, data)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidPayload)
	}

	evt, err := event.NewEvent(kind, payload, a.clock.Now())
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidPayload)
	}

	if err := a.events.Append(ctx, evt); err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	result := &TriggerResult{
		Event: &readmodel.EventRM{
			ID:         evt.ID(),
			Kind:       evt.Kind().String(),
			Payload:    evt.Payload(),
			OccurredAt: evt.OccurredAt(),
		},
	}

	// The processor path applies the per-customer lock, handler timeout and
	// panic boundary, and the conditional marker keeps the dispatch at most
	// once even if the periodic runner races this trigger.
	processed, err := a.processor.ProcessOne(ctx, evt)
	if err != nil {
		// The event is durable; the periodic sweep retries it.
		return nil, errs.Mark(err, ErrHandlerFailed)
	}
	result.Processed = processed

	return result, nil
}

func (a *automationCommandsImpl) RunSweep(ctx context.Context) (*SweepResult, error) {
	emitted, err := a.sweeper.SweepDue(ctx)
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	report, err := a.processor.ProcessPending(ctx)
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	return &SweepResult{Emitted: emitted, Report: report}, nil
}
