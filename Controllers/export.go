package Controllers

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"AuditDesk/Lifecycle"
	"AuditDesk/Models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportController hands out the raw Tasks table.
type ExportController struct {
	Tasks *Models.TaskRepository
	Clock Lifecycle.Clock
	Log   *zap.Logger
}

func NewExportController(tasks *Models.TaskRepository, clock Lifecycle.Clock, log *zap.Logger) *ExportController {
	return &ExportController{Tasks: tasks, Clock: clock, Log: log}
}

func (c *ExportController) filename(ext string) string {
	return fmt.Sprintf("audit_tasks_%s.%s", c.Clock.Now().Format("20060102_150405"), ext)
}

func (c *ExportController) CSV(ctx *fiber.Ctx) error {
	tasks, _, err := c.Tasks.List(ctx.UserContext())
	if err != nil {
		return respondError(ctx, c.Log, err)
	}
	header, rows := Models.EncodeTasks(tasks)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, c.filename("csv")))
	return ctx.Send(buf.Bytes())
}

// XLSX builds a one-sheet workbook with the styled header row.
func (c *ExportController) XLSX(ctx *fiber.Ctx) error {
	tasks, _, err := c.Tasks.List(ctx.UserContext())
	if err != nil {
		return respondError(ctx, c.Log, err)
	}
	header, rows := Models.EncodeTasks(tasks)

	f, err := Models.BuildWorkbook([]Models.Sheet{{Name: Models.TasksSheet, Header: header, Rows: rows}})
	if err != nil {
		c.Log.Error("build export workbook", zap.Error(err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build workbook"})
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		c.Log.Error("write export workbook", zap.Error(err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build workbook"})
	}

	ctx.Set(fiber.HeaderContentType, xlsxContentType)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, c.filename("xlsx")))
	return ctx.Send(buf.Bytes())
}
