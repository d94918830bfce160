package automation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"shop-automation/internal/domain/event"
	"shop-automation/internal/pkg/clock"
	"shop-automation/internal/pkg/errs"
	"shop-automation/internal/pkg/lock"
)

var errNoHandlerResult = errs.New("handler returned without result")

type ProcessorConfig struct {
	Workers        int
	HandlerTimeout time.Duration
	BatchSize      int32
}

// Processor pulls pending events and runs them through the registry. Events
// are commutative across kinds, so workers run them concurrently; mutations
// for the same customer are serialized through a keyed lock. A handler
// failure never aborts the batch: the event stays pending for the next sweep.
type Processor struct {
	events        EventStore
	registry      *Registry
	clock         clock.Clock
	logger        *slog.Logger
	cfg           ProcessorConfig
	customerLocks *lock.Keyed
}

func NewProcessor(events EventStore, registry *Registry, clk clock.Clock, logger *slog.Logger, cfg ProcessorConfig) *Processor {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 100
	}
	return &Processor{
		events:        events,
		registry:      registry,
		clock:         clk,
		logger:        logger,
		cfg:           cfg,
		customerLocks: lock.NewKeyed(),
	}
}

// ProcessPending sweeps the pending backlog once. A storage failure while
// pulling the backlog aborts the sweep; per-event failures are recorded in
// the report and retried next time.
func (p *Processor) ProcessPending(ctx context.Context) (*Report, error) {
	pending, err := p.events.ListPending(ctx, p.cfg.BatchSize)
	if err != nil {
		return nil, errs.Wrap(err, "list pending events")
	}

	report := &Report{}
	if len(pending) == 0 {
		return report, nil
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		queue   = make(chan *event.Event)
		workers = p.cfg.Workers
	)
	if workers > len(pending) {
		workers = len(pending)
	}

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for evt := range queue {
				outcome := p.processOne(ctx, evt)
				mu.Lock()
				report.record(outcome)
				mu.Unlock()
			}
		}()
	}

	for _, evt := range pending {
		select {
		case queue <- evt:
		case <-ctx.Done():
			// Cancellable between events; in-flight events finish their
			// commit so no event is left half-applied.
			close(queue)
			wg.Wait()
			return report, ctx.Err()
		}
	}
	close(queue)
	wg.Wait()

	p.logger.Info("processed pending events",
		"succeeded", report.Succeeded, "failed", report.Failed, "skipped", report.Skipped)
	return report, nil
}

func (p *Processor) processOne(ctx context.Context, evt *event.Event) EventOutcome {
	outcome := EventOutcome{EventID: evt.ID(), Kind: evt.Kind()}

	if !p.registry.Has(evt.Kind()) {
		// Unknown kinds are terminal: mark them so they do not clog every
		// subsequent sweep.
		p.logger.Warn("skipping event with unknown kind", "event_id", evt.ID(), "kind", evt.Kind())
		if _, err := p.events.MarkProcessed(ctx, evt.ID()); err != nil {
			p.logger.Error("failed to mark skipped event", "event_id", evt.ID(), "error", err)
		}
		outcome.Status = OutcomeSkipped
		return outcome
	}

	if _, err := p.ProcessOne(ctx, evt); err != nil {
		outcome.Status = OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Status = OutcomeSucceeded
	return outcome
}

// ProcessOne runs a single event through the same per-customer lock, timeout
// and panic boundary the batch path uses, then marks it processed. It reports
// whether this caller won the marker; false with a nil error means a
// concurrent sweep marked the event first.
func (p *Processor) ProcessOne(ctx context.Context, evt *event.Event) (bool, error) {
	if err := p.dispatch(ctx, evt); err != nil {
		if recErr := p.events.RecordFailure(ctx, evt.ID(), err.Error()); recErr != nil {
			p.logger.Error("failed to record handler failure", "event_id", evt.ID(), "error", recErr)
		}
		return false, err
	}

	marked, err := p.events.MarkProcessed(ctx, evt.ID())
	if err != nil {
		// Side effects are committed but the marker is not; handlers are
		// idempotent so the retry converges.
		return false, errs.Wrap(err, "mark event processed")
	}
	if !marked {
		p.logger.Warn("event already marked by a concurrent sweep", "event_id", evt.ID())
	}
	return marked, nil
}

// dispatch runs the handler under the per-event timeout and the per-customer
// lock, converting panics into per-event failures.
func (p *Processor) dispatch(ctx context.Context, evt *event.Event) (err error) {
	if p.cfg.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.HandlerTimeout)
		defer cancel()
	}

	if customerID, ok := payloadCustomerID(evt); ok {
		unlock := p.customerLocks.Lock(customerID.String())
		defer unlock()
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("handler panicked", "event_id", evt.ID(), "kind", evt.Kind(), "panic", r)
			err = errNoHandlerResult
		}
	}()

	err = p.registry.Dispatch(ctx, evt)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = errs.Wrap(err, "handler timed out")
	}
	return err
}

func payloadCustomerID(evt *event.Event) (uuid.UUID, bool) {
	payload, err := evt.DecodedPayload()
	if err != nil {
		return uuid.Nil, false
	}
	return event.CustomerIDOf(payload)
}
