package Models

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"AuditDesk/AbstractFunctions"
)

// Column headers of the Tasks sheet.
const (
	ColTaskID           = "Task ID"
	ColEmployee         = "Employee"
	ColTaskType         = "Task Description"
	ColBranch           = "Branch"
	ColAssignedDate     = "Assigned Date"
	ColAssignedTime     = "Assigned Time"
	ColJournalDate      = "Journal Date"
	ColTransactionCount = "Number of Transaction"
	ColFindingCount     = "Number of Findings"
	ColCompletionStatus = "Completion Status"
	ColCompletionDate   = "Completion Date"
	ColCompletionTime   = "Completion Time"
	ColDuration         = "Duration"
	ColProgress         = "Progress %"
)

// Column headers of the Users sheet.
const (
	ColUsername = "Username"
	ColPassword = "Password"
	ColRole     = "Role"
)

var TaskHeader = []string{
	ColTaskID, ColEmployee, ColTaskType, ColBranch, ColAssignedDate, ColAssignedTime,
	ColJournalDate, ColTransactionCount, ColFindingCount, ColCompletionStatus,
	ColCompletionDate, ColCompletionTime, ColDuration, ColProgress,
}

var UserHeader = []string{ColUsername, ColPassword, ColRole}

// headerAliases maps older column names onto the current ones.
var headerAliases = map[string]string{
	"timeduration": ColDuration,
	"id":           ColTaskID,
	"progress":     ColProgress,
}

type columns map[string]int

func indexHeader(header []string, known []string) (columns, []string) {
	canonical := make(map[string]string, len(known))
	for _, k := range known {
		canonical[strings.ToLower(k)] = k
	}

	idx := make(columns, len(header))
	var extra []string
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		key := strings.ToLower(h)
		name, ok := canonical[key]
		if !ok {
			name, ok = headerAliases[key]
		}
		if !ok {
			name = h
		}
		// A repeated column keeps its data under a numbered name.
		if _, dup := idx[name]; dup {
			name = numbered(h, idx, canonical)
			ok = false
		}
		if !ok {
			extra = append(extra, name)
		}
		idx[name] = i
	}
	return idx, extra
}

func numbered(h string, taken columns, canonical map[string]string) string {
	for n := 2; ; n++ {
		name := fmt.Sprintf("%s (%d)", h, n)
		_, used := taken[name]
		_, known := canonical[strings.ToLower(name)]
		if !used && !known {
			return name
		}
	}
}

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// DecodeTasks is the single validation and coercion pass for the Tasks sheet.
// backfilled reports whether any row was missing an id and got a new one.
func DecodeTasks(s Sheet) (tasks []Task, backfilled bool) {
	cols, extra := indexHeader(s.Header, TaskHeader)
	tasks = make([]Task, 0, len(s.Rows))
	for _, row := range s.Rows {
		t := Task{
			ID:               cols.get(row, ColTaskID),
			Employee:         cols.get(row, ColEmployee),
			TaskType:         cols.get(row, ColTaskType),
			Branch:           cols.get(row, ColBranch),
			AssignedDate:     AbstractFunctions.NormalizeDateString(cols.get(row, ColAssignedDate)),
			AssignedTime:     AbstractFunctions.NormalizeTimeString(cols.get(row, ColAssignedTime)),
			JournalDate:      AbstractFunctions.NormalizeDateString(cols.get(row, ColJournalDate)),
			TransactionCount: coerceCount(cols.get(row, ColTransactionCount)),
			FindingCount:     coerceCount(cols.get(row, ColFindingCount)),
			CompletionStatus: coerceStatus(cols.get(row, ColCompletionStatus)),
			CompletionDate:   AbstractFunctions.NormalizeDateString(cols.get(row, ColCompletionDate)),
			CompletionTime:   AbstractFunctions.NormalizeTimeString(cols.get(row, ColCompletionTime)),
			Duration:         cols.get(row, ColDuration),
		}
		if t.Completed() {
			t.Progress = 1
		} else {
			t.CompletionDate, t.CompletionTime, t.Duration = "", "", ""
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
			backfilled = true
		}
		for _, name := range extra {
			if v := cols.get(row, name); v != "" {
				if t.Extra == nil {
					t.Extra = make(map[string]string)
				}
				t.Extra[name] = v
			}
		}
		tasks = append(tasks, t)
	}
	return tasks, backfilled
}

// EncodeTasks lays tasks out under TaskHeader followed by any extra columns
// in alphabetical order.
func EncodeTasks(tasks []Task) ([]string, [][]string) {
	extraSet := map[string]struct{}{}
	for _, t := range tasks {
		for k := range t.Extra {
			extraSet[k] = struct{}{}
		}
	}
	extra := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extra = append(extra, k)
	}
	sort.Strings(extra)

	header := append(append([]string(nil), TaskHeader...), extra...)
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		status := t.CompletionStatus
		if status == "" {
			status = StatusInProgress
		}
		row := []string{
			t.ID, t.Employee, t.TaskType, t.Branch, t.AssignedDate, t.AssignedTime,
			t.JournalDate, strconv.Itoa(t.TransactionCount), strconv.Itoa(t.FindingCount),
			string(status), t.CompletionDate, t.CompletionTime, t.Duration,
			strconv.Itoa(t.Progress),
		}
		for _, k := range extra {
			row = append(row, t.Extra[k])
		}
		rows = append(rows, row)
	}
	return header, rows
}

// DecodeUsers reads the Users sheet. Unknown roles fall back to RoleUser.
func DecodeUsers(s Sheet) []User {
	cols, _ := indexHeader(s.Header, UserHeader)
	users := make([]User, 0, len(s.Rows))
	for _, row := range s.Rows {
		u := User{
			Username: cols.get(row, ColUsername),
			Password: cols.get(row, ColPassword),
			Role:     coerceRole(cols.get(row, ColRole)),
		}
		if u.Username == "" {
			continue
		}
		users = append(users, u)
	}
	return users
}

func EncodeUsers(users []User) ([]string, [][]string) {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.Username, u.Password, string(u.Role)})
	}
	return append([]string(nil), UserHeader...), rows
}

// coerceCount follows the dashboard's numeric coercion: anything that is not
// a number becomes 0, fractions truncate and negatives clamp to 0.
func coerceCount(raw string) int {
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return max(n, 0)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func coerceStatus(raw string) Status {
	if strings.EqualFold(raw, string(StatusCompleted)) {
		return StatusCompleted
	}
	return StatusInProgress
}

func coerceRole(raw string) Role {
	if strings.EqualFold(raw, string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}
