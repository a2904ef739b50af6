package Controllers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"AuditDesk/AbstractFunctions"
	"AuditDesk/Models"
	"AuditDesk/Reports"
	"AuditDesk/middleware"
)

// ReportController serves the dashboard aggregates.
type ReportController struct {
	Tasks *Models.TaskRepository
	Log   *zap.Logger
}

func NewReportController(tasks *Models.TaskRepository, log *zap.Logger) *ReportController {
	return &ReportController{Tasks: tasks, Log: log}
}

func (c *ReportController) Summary(ctx *fiber.Ctx) error {
	tasks, _, err := c.Tasks.List(ctx.UserContext())
	if err != nil {
		return respondError(ctx, c.Log, err)
	}
	return ctx.JSON(Reports.Summary(tasks))
}

// Me reports the caller's own progress.
func (c *ReportController) Me(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)
	tasks, _, err := c.Tasks.List(ctx.UserContext())
	if err != nil {
		return respondError(ctx, c.Log, err)
	}
	return ctx.JSON(Reports.Progress(tasks, user.Username))
}

// Daily drills into one journal date, ?date=27/Dec/2025&branch=HQ.
func (c *ReportController) Daily(ctx *fiber.Ctx) error {
	date, ok := AbstractFunctions.ParseDate(ctx.Query("date"))
	if !ok {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be a date such as 27/Dec/2025"})
	}
	tasks, _, err := c.Tasks.List(ctx.UserContext())
	if err != nil {
		return respondError(ctx, c.Log, err)
	}
	return ctx.JSON(Reports.Daily(tasks, date, ctx.Query("branch")))
}

func (c *ReportController) JournalDates(ctx *fiber.Ctx) error {
	tasks, _, err := c.Tasks.List(ctx.UserContext())
	if err != nil {
		return respondError(ctx, c.Log, err)
	}
	return ctx.JSON(Reports.JournalDates(tasks))
}
