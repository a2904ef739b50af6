// Package Reports aggregates audit tasks for the dashboard endpoints. Every
// function takes the task table as read and never touches storage.
package Reports

import (
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"AuditDesk/AbstractFunctions"
	"AuditDesk/Models"
)

// Count is one bar of a breakdown.
type Count struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
}

type SummaryReport struct {
	TotalAudits       int     `json:"total_audits"`
	TotalFindings     int     `json:"total_findings"`
	TotalTransactions int     `json:"total_transactions"`
	ActiveBranches    int     `json:"active_branches"`
	FindingsByBranch  []Count `json:"findings_by_branch"`
	TasksByEmployee   []Count `json:"tasks_by_employee"`
	BranchCoverage    []Count `json:"branch_coverage"`
	TaskTypes         []Count `json:"task_types"`
}

type ProgressReport struct {
	Employee          string                `json:"employee"`
	Total             int                   `json:"total"`
	Completed         int                   `json:"completed"`
	StatusCounts      map[Models.Status]int `json:"status_counts"`
	TotalFindings     int                   `json:"total_findings"`
	TotalTransactions int                   `json:"total_transactions"`
}

type DailyDetail struct {
	ID       string        `json:"id"`
	Employee string        `json:"employee"`
	TaskType string        `json:"task_type"`
	Branch   string        `json:"branch"`
	Status   Models.Status `json:"completion_status"`
	Duration string        `json:"duration"`
}

type DailyReport struct {
	JournalDate          string        `json:"journal_date"`
	Branch               string        `json:"branch,omitempty"`
	TotalTransactions    int           `json:"total_transactions"`
	ActiveEmployees      int           `json:"active_employees"`
	TransactionsByBranch []Count       `json:"transactions_by_branch"`
	Details              []DailyDetail `json:"details"`
}

// Filter narrows a task list. Zero values match everything.
type Filter struct {
	ActiveOnly bool
	Branch     string
	Employee   string
}

func (f Filter) match(t Models.Task) bool {
	if f.ActiveOnly && t.Completed() {
		return false
	}
	if f.Branch != "" && !strings.EqualFold(t.Branch, f.Branch) {
		return false
	}
	if f.Employee != "" && t.Employee != f.Employee {
		return false
	}
	return true
}

// FilterTasks returns the tasks matching f in their stored order.
func FilterTasks(tasks []Models.Task, f Filter) []Models.Task {
	out := make([]Models.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.match(t) {
			out = append(out, t)
		}
	}
	return out
}

func Summary(tasks []Models.Task) SummaryReport {
	report := SummaryReport{TotalAudits: len(tasks)}
	findings := map[string]int{}
	perEmployee := map[string]int{}
	coverage := map[string]map[string]struct{}{}
	types := map[string]int{}

	for _, t := range tasks {
		report.TotalFindings += t.FindingCount
		report.TotalTransactions += t.TransactionCount
		findings[t.Branch] += t.FindingCount
		perEmployee[t.Employee]++
		types[t.TaskType]++
		if coverage[t.Employee] == nil {
			coverage[t.Employee] = map[string]struct{}{}
		}
		coverage[t.Employee][t.Branch] = struct{}{}
	}

	branchCoverage := make(map[string]int, len(coverage))
	for employee, branches := range coverage {
		branchCoverage[employee] = len(branches)
	}

	report.ActiveBranches = len(findings)
	report.FindingsByBranch = descending(findings)
	report.TasksByEmployee = descending(perEmployee)
	report.BranchCoverage = descending(branchCoverage)
	report.TaskTypes = descending(types)
	return report
}

// Progress reports how far one employee has come.
func Progress(tasks []Models.Task, employee string) ProgressReport {
	report := ProgressReport{Employee: employee, StatusCounts: map[Models.Status]int{}}
	for _, t := range tasks {
		if t.Employee != employee {
			continue
		}
		report.Total++
		report.StatusCounts[t.CompletionStatus]++
		report.TotalFindings += t.FindingCount
		report.TotalTransactions += t.TransactionCount
		if t.Completed() {
			report.Completed++
		}
	}
	return report
}

// Daily drills into the tasks booked on one journal date. Details are limited
// to branch when it is set.
func Daily(tasks []Models.Task, journalDate time.Time, branch string) DailyReport {
	day := AbstractFunctions.FormatDate(journalDate)
	report := DailyReport{JournalDate: day, Branch: branch, Details: []DailyDetail{}}
	byBranch := map[string]int{}
	employees := map[string]struct{}{}

	for _, t := range tasks {
		d, ok := AbstractFunctions.ParseDate(t.JournalDate)
		if !ok || AbstractFunctions.FormatDate(d) != day {
			continue
		}
		report.TotalTransactions += t.TransactionCount
		byBranch[t.Branch] += t.TransactionCount
		employees[t.Employee] = struct{}{}
		if branch != "" && !strings.EqualFold(t.Branch, branch) {
			continue
		}
		report.Details = append(report.Details, DailyDetail{
			ID:       t.ID,
			Employee: t.Employee,
			TaskType: t.TaskType,
			Branch:   t.Branch,
			Status:   t.CompletionStatus,
			Duration: t.Duration,
		})
	}

	report.ActiveEmployees = len(employees)
	report.TransactionsByBranch = byKey(byBranch)
	return report
}

// JournalDates lists the distinct parseable journal dates, oldest first.
func JournalDates(tasks []Models.Task) []string {
	seen := map[time.Time]struct{}{}
	dates := []time.Time{}
	for _, t := range tasks {
		d, ok := AbstractFunctions.ParseDate(t.JournalDate)
		if !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = AbstractFunctions.FormatDate(d)
	}
	return out
}

// descending orders by value, largest first, then by key.
func descending(m map[string]int) []Count {
	out := toCounts(m)
	slices.SortFunc(out, func(a, b Count) int {
		if a.Value != b.Value {
			return b.Value - a.Value
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out
}

func byKey(m map[string]int) []Count {
	out := toCounts(m)
	slices.SortFunc(out, func(a, b Count) int { return strings.Compare(a.Key, b.Key) })
	return out
}

func toCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Value: v})
	}
	return out
}
