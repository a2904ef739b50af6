package Controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"AuditDesk/Lifecycle"
	"AuditDesk/Models"
)

var errForbidden = errors.New("you can only change your own tasks")

const storageUnavailable = "storage unavailable, retry in a moment"

// respondError maps domain errors to HTTP responses. Anything it does not
// recognise came from the sheet store.
func respondError(ctx *fiber.Ctx, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, Models.ErrNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Task not found"})
	case errors.Is(err, errForbidden):
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, Models.ErrUserExists):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A user with this name already exists"})
	case errors.Is(err, Lifecycle.ErrAlreadyCompleted),
		errors.Is(err, Lifecycle.ErrCountsFrozen):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, Models.ErrVersionConflict):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "The sheet is busy, please retry"})
	case errors.Is(err, Lifecycle.ErrNegativeCount):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	log.Error("storage failure",
		zap.String("method", ctx.Method()),
		zap.String("path", ctx.Path()),
		zap.Error(err),
	)
	ctx.Set(fiber.HeaderRetryAfter, "30")
	return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": storageUnavailable})
}
