// Package Lifecycle owns the audit task state machine: a task is created In
// Progress and moves to Completed exactly once. Every function here is pure;
// the caller supplies the current instant.
package Lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"AuditDesk/AbstractFunctions"
	"AuditDesk/Models"
)

// ZeroDuration is returned whenever a duration cannot be computed.
const ZeroDuration = "0h 0m"

var (
	ErrAlreadyCompleted = errors.New("task is already completed")
	ErrCountsFrozen     = errors.New("counts of a completed task cannot change")
	ErrNegativeCount    = errors.New("counts must not be negative")
)

// CountPolicy decides whether counts may change after completion.
type CountPolicy struct {
	FreezeCompleted bool
}

// NewTask is what a caller knows when a task starts.
type NewTask struct {
	Employee    string
	TaskType    string
	Branch      string
	JournalDate time.Time
}

// Clock supplies the current instant in the reference timezone.
type Clock interface {
	Now() time.Time
}

// ZoneClock reads the system clock in a fixed location.
type ZoneClock struct {
	Location *time.Location
}

func (c ZoneClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// ComputeDuration returns the elapsed time between assignment and completion
// as "{h}h {m}m", truncating seconds. Unparsable inputs and negative spans
// give ZeroDuration.
func ComputeDuration(assignedDate, assignedTime, completedDate, completedTime string) string {
	ad, ok1 := AbstractFunctions.ParseDate(assignedDate)
	at, ok2 := AbstractFunctions.ParseTime(assignedTime)
	cd, ok3 := AbstractFunctions.ParseDate(completedDate)
	ct, ok4 := AbstractFunctions.ParseTime(completedTime)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return ZeroDuration
	}
	return FormatElapsed(AbstractFunctions.Combine(cd, ct).Sub(AbstractFunctions.Combine(ad, at)))
}

// FormatElapsed renders d as whole hours and minutes. Negative spans are
// ZeroDuration.
func FormatElapsed(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		return ZeroDuration
	}
	return fmt.Sprintf("%dh %dm", secs/3600, secs%3600/60)
}

// CreateTask builds a fresh In Progress record stamped with now.
func CreateTask(in NewTask, now time.Time) Models.Task {
	date, clock := AbstractFunctions.Split(now)
	return Models.Task{
		ID:               uuid.NewString(),
		Employee:         in.Employee,
		TaskType:         in.TaskType,
		Branch:           in.Branch,
		AssignedDate:     date,
		AssignedTime:     clock,
		JournalDate:      AbstractFunctions.FormatDate(in.JournalDate),
		CompletionStatus: Models.StatusInProgress,
	}
}

// CompleteTask moves task to Completed at now. The completion date and time,
// duration, status and progress are set together.
func CompleteTask(task Models.Task, now time.Time) (Models.Task, error) {
	if task.Completed() {
		return task, ErrAlreadyCompleted
	}
	date, clock := AbstractFunctions.Split(now)
	task.CompletionDate = date
	task.CompletionTime = clock
	task.Duration = ComputeDuration(task.AssignedDate, task.AssignedTime, date, clock)
	task.CompletionStatus = Models.StatusCompleted
	task.Progress = 1
	return task, nil
}

// UpdateCounts sets the transaction and finding counts. Completion fields are
// never recomputed.
func UpdateCounts(task Models.Task, transactions, findings int, policy CountPolicy) (Models.Task, error) {
	if transactions < 0 || findings < 0 {
		return task, ErrNegativeCount
	}
	if task.Completed() && policy.FreezeCompleted {
		return task, ErrCountsFrozen
	}
	task.TransactionCount = transactions
	task.FindingCount = findings
	return task, nil
}
