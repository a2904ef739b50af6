package Controllers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AuditDesk/middleware"
)

func writeLog(t *testing.T, entries ...middleware.LogData) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requests.log")
	var data []byte
	for _, e := range entries {
		line, err := json.Marshal(e)
		require.NoError(t, err)
		data = append(append(data, line...), '\n')
	}
	data = append(data, []byte("not json\n\n")...)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestReadLogsFromFile(t *testing.T) {
	day := time.Date(2025, time.December, 27, 0, 0, 0, 0, time.UTC)
	path := writeLog(t,
		middleware.LogData{Timestamp: day.Add(-time.Hour), Method: "GET", Path: "/api/tasks", Status: 200},
		middleware.LogData{Timestamp: day.Add(time.Hour), Method: "GET", Path: "/api/tasks", Status: 200},
		middleware.LogData{Timestamp: day.Add(2 * time.Hour), Method: "POST", Path: "/api/Login", Status: 401},
	)

	logs, err := readLogsFromFile(path, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	missing, err := readLogsFromFile(filepath.Join(t.TempDir(), "none.log"), day, day)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestFilterAndGroupLogs(t *testing.T) {
	logs := []middleware.LogData{
		{Method: "GET", Path: "/api/tasks", Status: 200, Latency: 2 * time.Millisecond},
		{Method: "GET", Path: "/api/tasks", Status: 503, Latency: 4 * time.Millisecond},
		{Method: "POST", Path: "/api/tasks", Status: 201, Latency: time.Millisecond},
		{Method: "POST", Path: "/api/Login", Status: 401, Latency: time.Millisecond},
	}

	assert.Len(t, filterLogs(logs, "TASKS", "", ""), 3)
	assert.Len(t, filterLogs(logs, "", "post", ""), 2)
	assert.Len(t, filterLogs(logs, "", "", "503"), 1)

	groups := groupLogsByPath(logs)
	require.Len(t, groups, 3)
	first := groups[0]
	assert.Equal(t, "GET", first.Method)
	assert.Equal(t, 2, first.Count)
	assert.InDelta(t, 3.0, first.AvgLatency, 0.001)
	assert.InDelta(t, 2.0, first.MinLatency, 0.001)
	assert.InDelta(t, 4.0, first.MaxLatency, 0.001)
	assert.InDelta(t, 0.5, first.SuccessRate, 0.001)

	assert.Empty(t, groupLogsByPath(nil))
}

func TestValidator(t *testing.T) {
	v, err := NewValidator([]string{"HQ"}, []string{"Cash"})
	require.NoError(t, err)

	assert.Nil(t, v.Struct(&startTaskInput{Branch: "HQ", TaskType: "Cash", JournalDate: "12/26/2025"}))

	fields := v.Struct(&startTaskInput{Branch: "hq", TaskType: "Audit"})
	assert.Equal(t, map[string]string{
		"branch":       "branch must be one of the configured branches",
		"task_type":    "task_type must be one of the configured task types",
		"journal_date": "journal_date is a required field",
	}, fields)

	neg := -1
	fields = v.Struct(&countsInput{TransactionCount: &neg})
	assert.Contains(t, fields, "transaction_count")
	assert.Equal(t, "finding_count is a required field", fields["finding_count"])
}
