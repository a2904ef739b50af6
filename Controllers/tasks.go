package Controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"AuditDesk/AbstractFunctions"
	"AuditDesk/Lifecycle"
	"AuditDesk/Models"
	"AuditDesk/Reports"
	"AuditDesk/middleware"
)

// TaskController handles the audit task endpoints.
type TaskController struct {
	Tasks     *Models.TaskRepository
	Users     *Models.UserRepository
	Validator *Validator
	Clock     Lifecycle.Clock
	Policy    Lifecycle.CountPolicy
	Log       *zap.Logger
}

func NewTaskController(tasks *Models.TaskRepository, users *Models.UserRepository, v *Validator, clock Lifecycle.Clock, policy Lifecycle.CountPolicy, log *zap.Logger) *TaskController {
	return &TaskController{Tasks: tasks, Users: users, Validator: v, Clock: clock, Policy: policy, Log: log}
}

type startTaskInput struct {
	Branch      string `json:"branch" validate:"required,branch"`
	TaskType    string `json:"task_type" validate:"required,tasktype"`
	JournalDate string `json:"journal_date" validate:"required,journaldate"`
}

type assignTaskInput struct {
	Employee string `json:"employee" validate:"required"`
	startTaskInput
}

type countsInput struct {
	TransactionCount *int `json:"transaction_count" validate:"required,min=0"`
	FindingCount     *int `json:"finding_count" validate:"required,min=0"`
}

type completeInput struct {
	TransactionCount *int `json:"transaction_count" validate:"omitempty,min=0"`
	FindingCount     *int `json:"finding_count" validate:"omitempty,min=0"`
}

// GetTasks lists the caller's tasks, or every task for administrators.
// ?status=active hides completed tasks and ?branch narrows to one branch.
func (c *TaskController) GetTasks(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)

	filter := Reports.Filter{Branch: ctx.Query("branch")}
	switch ctx.Query("status", "all") {
	case "active":
		filter.ActiveOnly = true
	case "all":
	default:
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be active or all"})
	}
	if !user.IsAdmin() {
		filter.Employee = user.Username
	}

	tasks, _, err := c.Tasks.List(ctx.UserContext())
	if err != nil {
		return respondError(ctx, c.Log, err)
	}
	return ctx.JSON(Reports.FilterTasks(tasks, filter))
}

// StartTask opens a task for the caller.
func (c *TaskController) StartTask(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)

	var input startTaskInput
	if ok, err := c.Validator.parseBody(ctx, &input); !ok {
		return err
	}
	task, err := c.create(ctx.UserContext(), user.Username, input)
	if err != nil {
		return respondError(ctx, c.Log, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(task)
}

// AssignTask opens a task on behalf of an existing employee.
func (c *TaskController) AssignTask(ctx *fiber.Ctx) error {
	var input assignTaskInput
	if ok, err := c.Validator.parseBody(ctx, &input); !ok {
		return err
	}

	employee, err := c.Users.Find(ctx.UserContext(), input.Employee)
	if err != nil {
		if errors.Is(err, Models.ErrNotFound) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown employee"})
		}
		return respondError(ctx, c.Log, err)
	}

	task, err := c.create(ctx.UserContext(), employee.Username, input.startTaskInput)
	if err != nil {
		return respondError(ctx, c.Log, err)
	}
	admin, _ := middleware.CurrentUser(ctx)
	c.Log.Info("task assigned",
		zap.String("task", task.ID),
		zap.String("employee", task.Employee),
		zap.String("by", admin.Username),
	)
	return ctx.Status(fiber.StatusCreated).JSON(task)
}

func (c *TaskController) create(ctx context.Context, employee string, input startTaskInput) (Models.Task, error) {
	journal, _ := AbstractFunctions.ParseDate(input.JournalDate)
	task := Lifecycle.CreateTask(Lifecycle.NewTask{
		Employee:    employee,
		TaskType:    input.TaskType,
		Branch:      input.Branch,
		JournalDate: journal,
	}, c.Clock.Now())

	_, err := c.Tasks.Mutate(ctx, func(tasks []Models.Task) ([]Models.Task, error) {
		return append(tasks, task), nil
	})
	return task, err
}

// UpdateCounts edits the transaction and finding counts. Employees may edit
// their own active tasks; administrators any task the count policy allows.
func (c *TaskController) UpdateCounts(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)
	id := ctx.Params("id")

	var input countsInput
	if ok, err := c.Validator.parseBody(ctx, &input); !ok {
		return err
	}

	policy := c.Policy
	if !user.IsAdmin() {
		policy.FreezeCompleted = true
	}

	var updated Models.Task
	_, err := c.Tasks.Mutate(ctx.UserContext(), func(tasks []Models.Task) ([]Models.Task, error) {
		i, err := c.owned(tasks, id, user)
		if err != nil {
			return nil, err
		}
		updated, err = Lifecycle.UpdateCounts(tasks[i], *input.TransactionCount, *input.FindingCount, policy)
		if err != nil {
			return nil, err
		}
		tasks[i] = updated
		return tasks, nil
	})
	if err != nil {
		return respondError(ctx, c.Log, err)
	}
	return ctx.JSON(updated)
}

// CompleteTask optionally records final counts, then closes the task.
func (c *TaskController) CompleteTask(ctx *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(ctx)
	id := ctx.Params("id")

	var input completeInput
	if len(ctx.Body()) > 0 {
		if ok, err := c.Validator.parseBody(ctx, &input); !ok {
			return err
		}
	}

	now := c.Clock.Now()
	var completed Models.Task
	_, err := c.Tasks.Mutate(ctx.UserContext(), func(tasks []Models.Task) ([]Models.Task, error) {
		i, err := c.owned(tasks, id, user)
		if err != nil {
			return nil, err
		}
		task := tasks[i]
		if task.Completed() {
			return nil, Lifecycle.ErrAlreadyCompleted
		}
		if input.TransactionCount != nil || input.FindingCount != nil {
			transactions, findings := task.TransactionCount, task.FindingCount
			if input.TransactionCount != nil {
				transactions = *input.TransactionCount
			}
			if input.FindingCount != nil {
				findings = *input.FindingCount
			}
			if task, err = Lifecycle.UpdateCounts(task, transactions, findings, c.Policy); err != nil {
				return nil, err
			}
		}
		if completed, err = Lifecycle.CompleteTask(task, now); err != nil {
			return nil, err
		}
		tasks[i] = completed
		return tasks, nil
	})
	if err != nil {
		return respondError(ctx, c.Log, err)
	}
	c.Log.Info("task completed",
		zap.String("task", completed.ID),
		zap.String("employee", completed.Employee),
		zap.String("duration", completed.Duration),
	)
	return ctx.JSON(completed)
}

// DeleteTask removes the row for good.
func (c *TaskController) DeleteTask(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	_, err := c.Tasks.Mutate(ctx.UserContext(), func(tasks []Models.Task) ([]Models.Task, error) {
		i := Models.FindTask(tasks, id)
		if i < 0 {
			return nil, fmt.Errorf("task %s: %w", id, Models.ErrNotFound)
		}
		return append(tasks[:i], tasks[i+1:]...), nil
	})
	if err != nil {
		return respondError(ctx, c.Log, err)
	}
	admin, _ := middleware.CurrentUser(ctx)
	c.Log.Info("task deleted", zap.String("task", id), zap.String("by", admin.Username))
	return ctx.JSON(fiber.Map{"message": "Task deleted", "id": id})
}

// owned finds id in tasks and checks that user may change it.
func (c *TaskController) owned(tasks []Models.Task, id string, user Models.User) (int, error) {
	i := Models.FindTask(tasks, id)
	if i < 0 {
		return -1, fmt.Errorf("task %s: %w", id, Models.ErrNotFound)
	}
	if !user.IsAdmin() && tasks[i].Employee != user.Username {
		return -1, errForbidden
	}
	return i, nil
}

// Options lists the choices offered when starting a task.
func Options(branches, taskTypes []string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"branches": branches, "task_types": taskTypes})
	}
}
