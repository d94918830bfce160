package response

import (
	"shop-automation/internal/automation"
	"shop-automation/internal/usecase/commands"
	"shop-automation/internal/usecase/queries"
	"shop-automation/internal/usecase/readmodel"
)

type TriggerResponse struct {
	Success bool                    `json:"success"`
	Event   *commands.TriggerResult `json:"event"`
	Message string                  `json:"message"`
}

type ProcessResponse struct {
	Success   bool               `json:"success"`
	Processed int                `json:"processed"`
	Emitted   int                `json:"emitted"`
	Report    *automation.Report `json:"report,omitempty"`
}

type ConfigResponse struct {
	Automations []queries.AutomationRule `json:"automations"`
}

type EmailQueueResponse struct {
	Messages []*readmodel.OutboundMessageRM `json:"messages"`
}

type TasksResponse struct {
	Tasks []*readmodel.AdminTaskRM `json:"tasks"`
}
