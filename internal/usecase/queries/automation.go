package queries

import (
	"context"

	"shop-automation/internal/automation"
	"shop-automation/internal/domain/event"
	"shop-automation/internal/pkg/errs"
	"shop-automation/internal/usecase/readmodel"
)

const defaultListLimit = 100

// AutomationRule describes one declared automation for the config view.
type AutomationRule struct {
	Kind        string   `json:"kind"`
	Trigger     string   `json:"trigger"`
	SideEffects []string `json:"side_effects"`
}

var ruleCatalog = map[event.Kind]AutomationRule{
	event.KindPurchase: {
		Trigger:     "completed checkout",
		SideEffects: []string{"purchase confirmation email", "loyalty points credit", "related-products nudge in 72h"},
	},
	event.KindCartAbandoned: {
		Trigger:     "cart abandoned, no completed order in 24h",
		SideEffects: []string{"recovery email", "10% coupon valid 7 days"},
	},
	event.KindNewCustomer: {
		Trigger:     "customer registration",
		SideEffects: []string{"welcome email", "15% first-purchase coupon valid 30 days"},
	},
	event.KindCustomerInactive: {
		Trigger:     "30 days without a purchase",
		SideEffects: []string{"win-back email", "20% coupon valid 14 days"},
	},
	event.KindBirthday: {
		Trigger:     "customer birthday",
		SideEffects: []string{"birthday email", "25% coupon valid 7 days"},
	},
	event.KindLowStock: {
		Trigger:     "inventory below threshold",
		SideEffects: []string{"admin task", "alert to all administrators"},
	},
	event.KindRelatedProductsNudge: {
		Trigger:     "scheduled 72h after a purchase",
		SideEffects: []string{"related-products email"},
	},
}

type OutboundMessageReadStore interface {
	ListPending(ctx context.Context, limit int32) ([]*readmodel.OutboundMessageRM, error)
}

type AdminTaskReadStore interface {
	List(ctx context.Context, limit int32) ([]*readmodel.AdminTaskRM, error)
}

type AutomationQueries interface {
	Config(ctx context.Context) []AutomationRule
	EmailQueue(ctx context.Context) ([]*readmodel.OutboundMessageRM, error)
	Tasks(ctx context.Context) ([]*readmodel.AdminTaskRM, error)
}

type automationQueriesImpl struct {
	registry *automation.Registry
	messages OutboundMessageReadStore
	tasks    AdminTaskReadStore
}

func NewAutomationQueries(registry *automation.Registry, messages OutboundMessageReadStore, tasks AdminTaskReadStore) AutomationQueries {
	return &automationQueriesImpl{
		registry: registry,
		messages: messages,
		tasks:    tasks,
	}
}

// Config lists the automations actually registered, described from the
// static catalog.
func (q *automationQueriesImpl) Config(_ context.Context) []AutomationRule {
	kinds := q.registry.Kinds()
	rules := make([]AutomationRule, 0, len(kinds))
	for _, kind := range kinds {
		rule := ruleCatalog[kind]
		rule.Kind = kind.String()
		rules = append(rules, rule)
	}
	return rules
}

func (q *automationQueriesImpl) EmailQueue(ctx context.Context) ([]*readmodel.OutboundMessageRM, error) {
	messages, err := q.messages.ListPending(ctx, defaultListLimit)
	if err != nil {
		return nil, errs.Wrap(err, "list pending outbound messages")
	}
	return messages, nil
}

func (q *automationQueriesImpl) Tasks(ctx context.Context) ([]*readmodel.AdminTaskRM, error) {
	tasks, err := q.tasks.List(ctx, defaultListLimit)
	if err != nil {
		return nil, errs.Wrap(err, "list admin tasks")
	}
	return tasks, nil
}
