package components

import (
	"context"
	"log/slog"

	"shop-automation/internal/automation"
	"shop-automation/internal/pkg/clock"
	"shop-automation/internal/pkg/config"

	"go.uber.org/fx"
)

var AutomationModule = fx.Module("automation",
	fx.Provide(
		automation.NewHandlers,
		automation.BuildRegistry,
		NewProcessor,
		automation.NewSweeper,
		NewRunner,
	),
	fx.Invoke(startRunner),
)

func NewProcessor(events automation.EventStore, registry *automation.Registry, clk clock.Clock, logger *slog.Logger, cfg config.Config) *automation.Processor {
	return automation.NewProcessor(events, registry, clk, logger, automation.ProcessorConfig{
		Workers:        cfg.Automation.Workers,
		HandlerTimeout: cfg.Automation.HandlerTimeout,
		BatchSize:      cfg.Automation.BatchSize,
	})
}

func NewRunner(sweeper *automation.Sweeper, processor *automation.Processor, cfg config.Config, logger *slog.Logger) *automation.Runner {
	return automation.NewRunner(sweeper, processor, cfg.Automation.SweepInterval, logger)
}

func startRunner(lc fx.Lifecycle, runner *automation.Runner, logger *slog.Logger, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			logger.Info("starting automation runner", "interval", cfg.Automation.SweepInterval)
			runner.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			logger.Info("stopping automation runner")
			runner.Stop()
			return nil
		},
	})
}
