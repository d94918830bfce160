package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	reqdto "shop-automation/internal/handler/dto/request"
	resdto "shop-automation/internal/handler/dto/response"
	"shop-automation/internal/pkg/errs"
	"shop-automation/internal/usecase/commands"
	"shop-automation/internal/usecase/queries"
)

type AutomationHandler struct {
	automationCommands commands.AutomationCommands
	automationQueries  queries.AutomationQueries
}

func NewAutomationHandler(automationCommands commands.AutomationCommands, automationQueries queries.AutomationQueries) *AutomationHandler {
	return &AutomationHandler{
		automationCommands: automationCommands,
		automationQueries:  automationQueries,
	}
}

// @Summary Trigger automation event
// @Description Submit a business event and dispatch it through the automation pipeline
// @Tags automation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.TriggerEventRequest true "Event envelope"
// @Success 200 {object} resdto.TriggerResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /automation/trigger [post]
func (h *AutomationHandler) Trigger(c *gin.Context) {
	var req reqdto.TriggerEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.automationCommands.Trigger(c.Request.Context(), req.Event, req.Data)
	if err != nil {
		// errs.Is rather than errors.Is: the command layer attaches the
		// sentinels as marks, which the standard library cannot see.
		switch {
		case errs.Is(err, commands.ErrUnknownEventKind):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Unknown event kind",
			})
		case errs.Is(err, commands.ErrInvalidPayload):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid event payload",
			})
		case errs.Is(err, commands.ErrHandlerFailed):
			// The event is persisted and will be retried by the sweep.
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Event accepted but handler failed; it will be retried",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.TriggerResponse{
		Success: true,
		Event:   result,
		Message: "event processed",
	})
}

// @Summary Process pending events
// @Description Run one sweep: fire due scheduled actions, then process the pending backlog
// @Tags automation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.ProcessResponse
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /automation/process [post]
func (h *AutomationHandler) Process(c *gin.Context) {
	result, err := h.automationCommands.RunSweep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Sweep failed",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.ProcessResponse{
		Success:   true,
		Processed: result.Report.Total(),
		Emitted:   result.Emitted,
		Report:    result.Report,
	})
}

// @Summary Automation configuration
// @Description List the declared automations and their side effects
// @Tags automation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.ConfigResponse
// @Failure 401 {object} map[string]string
// @Router /automation/config [get]
func (h *AutomationHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, resdto.ConfigResponse{
		Automations: h.automationQueries.Config(c.Request.Context()),
	})
}

// @Summary Pending email queue
// @Description List pending outbound messages, newest first
// @Tags automation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.EmailQueueResponse
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /automation/email-queue [get]
func (h *AutomationHandler) EmailQueue(c *gin.Context) {
	messages, err := h.automationQueries.EmailQueue(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.EmailQueueResponse{Messages: messages})
}

// @Summary Admin tasks
// @Description List operational admin tasks, newest first
// @Tags automation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.TasksResponse
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /automation/tasks [get]
func (h *AutomationHandler) Tasks(c *gin.Context) {
	tasks, err := h.automationQueries.Tasks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.TasksResponse{Tasks: tasks})
}
