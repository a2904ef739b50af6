package Reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AuditDesk/Models"
)

func sample() []Models.Task {
	return []Models.Task{
		{ID: "1", Employee: "amira", TaskType: "Cash", Branch: "HQ", JournalDate: "26/Dec/2025",
			TransactionCount: 10, FindingCount: 2, CompletionStatus: Models.StatusCompleted, Duration: "1h 0m", Progress: 1},
		{ID: "2", Employee: "amira", TaskType: "Operation", Branch: "CAI", JournalDate: "26/Dec/2025",
			TransactionCount: 4, FindingCount: 0, CompletionStatus: Models.StatusInProgress},
		{ID: "3", Employee: "omar", TaskType: "Cash", Branch: "HQ", JournalDate: "27/Dec/2025",
			TransactionCount: 1, FindingCount: 5, CompletionStatus: Models.StatusInProgress},
		{ID: "4", Employee: "omar", TaskType: "C.S", Branch: "ALX", JournalDate: "12/26/2025",
			TransactionCount: 6, FindingCount: 1, CompletionStatus: Models.StatusCompleted, Duration: "0h 30m", Progress: 1},
		{ID: "5", Employee: "lina", TaskType: "Cash", Branch: "HQ", JournalDate: "someday",
			TransactionCount: 0, FindingCount: 0, CompletionStatus: Models.StatusInProgress},
	}
}

func TestSummary(t *testing.T) {
	r := Summary(sample())

	assert.Equal(t, 5, r.TotalAudits)
	assert.Equal(t, 8, r.TotalFindings)
	assert.Equal(t, 21, r.TotalTransactions)
	assert.Equal(t, 3, r.ActiveBranches)
	assert.Equal(t, []Count{{"HQ", 7}, {"ALX", 1}, {"CAI", 0}}, r.FindingsByBranch)
	assert.Equal(t, []Count{{"amira", 2}, {"omar", 2}, {"lina", 1}}, r.TasksByEmployee)
	assert.Equal(t, []Count{{"amira", 2}, {"omar", 2}, {"lina", 1}}, r.BranchCoverage)
	assert.Equal(t, []Count{{"Cash", 3}, {"C.S", 1}, {"Operation", 1}}, r.TaskTypes)
}

func TestSummaryEmpty(t *testing.T) {
	r := Summary(nil)
	assert.Zero(t, r.TotalAudits)
	assert.Empty(t, r.FindingsByBranch)
}

func TestProgress(t *testing.T) {
	r := Progress(sample(), "amira")
	assert.Equal(t, 2, r.Total)
	assert.Equal(t, 1, r.Completed)
	assert.Equal(t, 2, r.TotalFindings)
	assert.Equal(t, 14, r.TotalTransactions)
	assert.Equal(t, map[Models.Status]int{Models.StatusCompleted: 1, Models.StatusInProgress: 1}, r.StatusCounts)

	none := Progress(sample(), "ghost")
	assert.Zero(t, none.Total)
}

func TestDaily(t *testing.T) {
	day := time.Date(2025, time.December, 26, 0, 0, 0, 0, time.UTC)

	t.Run("Should count every branch on the day", func(t *testing.T) {
		r := Daily(sample(), day, "")
		assert.Equal(t, "26/Dec/2025", r.JournalDate)
		assert.Equal(t, 20, r.TotalTransactions)
		assert.Equal(t, 2, r.ActiveEmployees)
		assert.Equal(t, []Count{{"ALX", 6}, {"CAI", 4}, {"HQ", 10}}, r.TransactionsByBranch)
		assert.Len(t, r.Details, 3)
	})

	t.Run("Should limit details to the branch", func(t *testing.T) {
		r := Daily(sample(), day, "hq")
		assert.Equal(t, 20, r.TotalTransactions)
		require.Len(t, r.Details, 1)
		assert.Equal(t, DailyDetail{ID: "1", Employee: "amira", TaskType: "Cash", Branch: "HQ",
			Status: Models.StatusCompleted, Duration: "1h 0m"}, r.Details[0])
	})

	t.Run("Should return an empty report for a quiet day", func(t *testing.T) {
		r := Daily(sample(), day.AddDate(0, 1, 0), "")
		assert.Zero(t, r.TotalTransactions)
		assert.NotNil(t, r.Details)
		assert.Empty(t, r.Details)
	})
}

func TestJournalDates(t *testing.T) {
	assert.Equal(t, []string{"26/Dec/2025", "27/Dec/2025"}, JournalDates(sample()))
	assert.Empty(t, JournalDates(nil))
}

func TestFilterTasks(t *testing.T) {
	tasks := sample()

	assert.Len(t, FilterTasks(tasks, Filter{}), 5)

	active := FilterTasks(tasks, Filter{ActiveOnly: true})
	require.Len(t, active, 3)
	for _, task := range active {
		assert.False(t, task.Completed())
	}

	mine := FilterTasks(tasks, Filter{Employee: "omar", Branch: "hq"})
	require.Len(t, mine, 1)
	assert.Equal(t, "3", mine[0].ID)
}
