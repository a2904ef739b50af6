package Models

import "errors"

// Status is the completion state of an audit task.
type Status string

const (
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Task is one row of the Tasks sheet. Dates and times hold the persisted
// string forms ("27/Dec/2025", "09:00:00 AM"); rows whose legacy values could
// not be normalized keep their original text.
type Task struct {
	ID               string `json:"id"`
	Employee         string `json:"employee"`
	TaskType         string `json:"task_type"`
	Branch           string `json:"branch"`
	AssignedDate     string `json:"assigned_date"`
	AssignedTime     string `json:"assigned_time"`
	JournalDate      string `json:"journal_date"`
	TransactionCount int    `json:"transaction_count"`
	FindingCount     int    `json:"finding_count"`
	CompletionStatus Status `json:"completion_status"`
	CompletionDate   string `json:"completion_date"`
	CompletionTime   string `json:"completion_time"`
	Duration         string `json:"duration"`
	Progress         int    `json:"progress"`

	// Extra keeps columns this service does not know about so a whole-table
	// write never drops them.
	Extra map[string]string `json:"-"`
}

// Completed reports whether the task has gone through its one transition.
func (t Task) Completed() bool {
	return t.CompletionStatus == StatusCompleted
}

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("table changed since it was read")
	ErrUserExists      = errors.New("user already exists")
)

// FindTask returns the index of the task with the given id, or -1.
func FindTask(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
