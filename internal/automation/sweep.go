package automation

import (
	"context"
	"log/slog"

	"shop-automation/internal/pkg/clock"
	"shop-automation/internal/pkg/errs"
)

const sweepBatchLimit = 500

// Sweeper turns due scheduled actions into synthetic events. Claiming flips
// executed false->true before anything is emitted, so concurrent sweeps fire
// each action at most once.
type Sweeper struct {
	schedules ScheduleStore
	events    EventStore
	clock     clock.Clock
	logger    *slog.Logger
}

func NewSweeper(schedules ScheduleStore, events EventStore, clk clock.Clock, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		schedules: schedules,
		events:    events,
		clock:     clk,
		logger:    logger,
	}
}

// SweepDue claims every due action and appends its synthetic event to the
// event store for normal processing. It returns the number of events emitted.
func (s *Sweeper) SweepDue(ctx context.Context) (int, error) {
	now := s.clock.Now()
	due, err := s.schedules.ListDue(ctx, now, sweepBatchLimit)
	if err != nil {
		return 0, errs.Wrap(err, "list due scheduled actions")
	}

	emitted := 0
	for _, sa := range due {
		claimed, err := s.schedules.Claim(ctx, sa.ID())
		if err != nil {
			return emitted, errs.Wrap(err, "claim scheduled action")
		}
		if !claimed {
			continue
		}

		evt, err := sa.SyntheticEvent(now)
		if err != nil {
			// The context was validated at scheduling time; a decode failure
			// here means corrupted storage. The claim stands so the action
			// does not loop.
			s.logger.Error("dropping scheduled action with bad context",
				"action_id", sa.ID(), "action", sa.Action(), "error", err)
			continue
		}

		if err := s.events.Append(ctx, evt); err != nil {
			return emitted, errs.Wrap(err, "append synthetic event")
		}
		emitted++
	}

	if emitted > 0 {
		s.logger.Info("sweep emitted synthetic events", "count", emitted)
	}
	return emitted, nil
}
