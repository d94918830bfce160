package automation

import (
	"context"
	"log/slog"
	"time"
)

// Runner drives the periodic sweep: due scheduled actions are re-entered as
// synthetic events, then the pending backlog is processed. It is started and
// stopped through the fx lifecycle.
type Runner struct {
	sweeper   *Sweeper
	processor *Processor
	interval  time.Duration
	logger    *slog.Logger
	stop      chan struct{}
	done      chan struct{}
}

func NewRunner(sweeper *Sweeper, processor *Processor, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		sweeper:   sweeper,
		processor: processor,
		interval:  interval,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (r *Runner) Start() {
	go r.loop()
}

func (r *Runner) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Runner) loop() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(context.Background())
		case <-r.stop:
			return
		}
	}
}

// RunOnce executes one sweep + process pass. Failures are operator-visible
// through logs only; the next tick retries.
func (r *Runner) RunOnce(ctx context.Context) {
	if _, err := r.sweeper.SweepDue(ctx); err != nil {
		r.logger.Error("scheduled sweep failed", "error", err)
	}
	if _, err := r.processor.ProcessPending(ctx); err != nil {
		r.logger.Error("periodic processing failed", "error", err)
	}
}
