package components

import (
	"shop-automation/internal/automation"
	repo_impl "shop-automation/internal/infra/repository"
	"shop-automation/internal/usecase"
	"shop-automation/internal/usecase/queries"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repo_impl.NewEventStore,
			fx.As(new(automation.EventStore)),
		),
		fx.Annotate(
			repo_impl.NewCouponRepository,
			fx.As(new(automation.CouponStore)),
		),
		fx.Annotate(
			repo_impl.NewCustomerRepository,
			fx.As(new(automation.CustomerStore)),
		),
		fx.Annotate(
			repo_impl.NewOrderRepository,
			fx.As(new(automation.OrderStore)),
		),
		fx.Annotate(
			repo_impl.NewScheduledActionRepository,
			fx.As(new(automation.ScheduleStore)),
		),
		// Write side feeds the handlers, read side feeds the dashboard queries.
		fx.Annotate(
			repo_impl.NewOutboundMessageRepository,
			fx.As(new(automation.OutboundQueue)),
			fx.As(new(queries.OutboundMessageReadStore)),
		),
		fx.Annotate(
			repo_impl.NewAdminTaskRepository,
			fx.As(new(automation.AdminTaskStore)),
			fx.As(new(queries.AdminTaskReadStore)),
		),
		fx.Annotate(
			repo_impl.NewUserRepository,
			fx.As(new(usecase.UserRepository)),
			fx.As(new(automation.UserDirectory)),
		),
	),
)
