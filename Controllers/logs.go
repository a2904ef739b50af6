package Controllers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"AuditDesk/Lifecycle"
	"AuditDesk/middleware"
)

// LogGroup represents a group of logs by method and path
type LogGroup struct {
	Path        string               `json:"path"`
	Method      string               `json:"method"`
	Count       int                  `json:"count"`
	AvgLatency  float64              `json:"avg_latency_ms"`
	MinLatency  float64              `json:"min_latency_ms"`
	MaxLatency  float64              `json:"max_latency_ms"`
	SuccessRate float64              `json:"success_rate"`
	Logs        []middleware.LogData `json:"logs"`
}

// LogsResponse represents the response structure for logs API
type LogsResponse struct {
	Groups      []LogGroup `json:"groups"`
	TotalLogs   int        `json:"total_logs"`
	TotalGroups int        `json:"total_groups"`
	Page        int        `json:"page"`
	PageSize    int        `json:"page_size"`
	TotalPages  int        `json:"total_pages"`
	DateFrom    time.Time  `json:"date_from"`
	DateTo      time.Time  `json:"date_to"`
}

// LogController reads the request log file back for administrators.
type LogController struct {
	Path  string
	Clock Lifecycle.Clock
	Log   *zap.Logger
}

func NewLogController(path string, clock Lifecycle.Clock, log *zap.Logger) *LogController {
	return &LogController{Path: path, Clock: clock, Log: log}
}

// GetLogs retrieves logs with pagination, date filtering and grouping.
func (c *LogController) GetLogs(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 50
	}

	dateFrom, dateTo, err := c.dateRange(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	logs, err := readLogsFromFile(c.Path, dateFrom, dateTo)
	if err != nil {
		c.Log.Error("read request log", zap.String("path", c.Path), zap.Error(err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read logs"})
	}

	filtered := filterLogs(logs, ctx.Query("path"), ctx.Query("method"), ctx.Query("status"))
	groups := groupLogsByPath(filtered)

	totalGroups := len(groups)
	start := min((page-1)*pageSize, totalGroups)
	end := min(start+pageSize, totalGroups)

	return ctx.JSON(LogsResponse{
		Groups:      groups[start:end],
		TotalLogs:   len(filtered),
		TotalGroups: totalGroups,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  (totalGroups + pageSize - 1) / pageSize,
		DateFrom:    dateFrom,
		DateTo:      dateTo,
	})
}

// GetLogStats returns request counts by method, status, status class and path.
func (c *LogController) GetLogStats(ctx *fiber.Ctx) error {
	dateFrom, dateTo, err := c.dateRange(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	logs, err := readLogsFromFile(c.Path, dateFrom, dateTo)
	if err != nil {
		c.Log.Error("read request log", zap.String("path", c.Path), zap.Error(err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read logs"})
	}

	var successful, failed int
	var totalLatency, minLatency, maxLatency time.Duration
	methodStats := make(map[string]int)
	statusStats := make(map[int]int)
	classStats := make(map[string]int)
	pathStats := make(map[string]int)

	for i, entry := range logs {
		if entry.Status >= 200 && entry.Status < 300 {
			successful++
		} else if entry.Status >= 400 {
			failed++
		}
		totalLatency += entry.Latency
		if i == 0 || entry.Latency < minLatency {
			minLatency = entry.Latency
		}
		if entry.Latency > maxLatency {
			maxLatency = entry.Latency
		}
		methodStats[entry.Method]++
		statusStats[entry.Status]++
		classStats[fmt.Sprintf("%dxx", entry.Status/100)]++
		pathStats[entry.Path]++
	}

	var avgLatency time.Duration
	successRate := 0.0
	if len(logs) > 0 {
		avgLatency = totalLatency / time.Duration(len(logs))
		successRate = float64(successful) / float64(len(logs)) * 100
	}

	type pathCount struct {
		Path  string `json:"path"`
		Count int    `json:"count"`
	}
	topPaths := make([]pathCount, 0, len(pathStats))
	for path, count := range pathStats {
		topPaths = append(topPaths, pathCount{Path: path, Count: count})
	}
	slices.SortFunc(topPaths, func(a, b pathCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Path, b.Path)
	})
	if len(topPaths) > 10 {
		topPaths = topPaths[:10]
	}

	return ctx.JSON(fiber.Map{
		"total_requests":      len(logs),
		"successful_requests": successful,
		"error_requests":      failed,
		"success_rate":        successRate,
		"avg_latency_ms":      millis(avgLatency),
		"min_latency_ms":      millis(minLatency),
		"max_latency_ms":      millis(maxLatency),
		"method_stats":        methodStats,
		"status_stats":        statusStats,
		"status_class_stats":  classStats,
		"top_paths":           topPaths,
		"date_from":           dateFrom,
		"date_to":             dateTo,
	})
}

// dateRange reads date_from and date_to (YYYY-MM-DD). Without either, the
// range is today.
func (c *LogController) dateRange(ctx *fiber.Ctx) (time.Time, time.Time, error) {
	now := c.Clock.Now()
	fromStr, toStr := ctx.Query("date_from"), ctx.Query("date_to")
	if fromStr == "" && toStr == "" {
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return from, from.Add(24*time.Hour - time.Nanosecond), nil
	}

	from := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	if fromStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", fromStr, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("Invalid date_from format. Use YYYY-MM-DD")
		}
		from = parsed
	}
	to := now
	if toStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", toStr, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("Invalid date_to format. Use YYYY-MM-DD")
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}

// readLogsFromFile reads the JSON lines in [from, to]. A missing file is an
// empty log.
func readLogsFromFile(path string, from, to time.Time) ([]middleware.LogData, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var logs []middleware.LogData
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry middleware.LogData
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.Timestamp.Before(from) || entry.Timestamp.After(to) {
			continue
		}
		logs = append(logs, entry)
	}
	return logs, scanner.Err()
}

// filterLogs filters logs by path substring, method and exact status.
func filterLogs(logs []middleware.LogData, path, method, status string) []middleware.LogData {
	code, statusErr := strconv.Atoi(status)
	var filtered []middleware.LogData
	for _, entry := range logs {
		if path != "" && !strings.Contains(strings.ToLower(entry.Path), strings.ToLower(path)) {
			continue
		}
		if method != "" && !strings.EqualFold(entry.Method, method) {
			continue
		}
		if status != "" && statusErr == nil && entry.Status != code {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

// groupLogsByPath groups logs by method and path, busiest first.
func groupLogsByPath(logs []middleware.LogData) []LogGroup {
	index := make(map[string]int)
	var groups []LogGroup

	for _, entry := range logs {
		key := entry.Method + " " + entry.Path
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, LogGroup{Path: entry.Path, Method: entry.Method, MinLatency: millis(entry.Latency)})
		}
		g := &groups[i]
		latency := millis(entry.Latency)
		success := 0.0
		if entry.Status >= 200 && entry.Status < 300 {
			success = 1
		}

		g.Count++
		g.Logs = append(g.Logs, entry)
		g.AvgLatency += (latency - g.AvgLatency) / float64(g.Count)
		g.SuccessRate += (success - g.SuccessRate) / float64(g.Count)
		g.MinLatency = min(g.MinLatency, latency)
		g.MaxLatency = max(g.MaxLatency, latency)
	}

	slices.SortStableFunc(groups, func(a, b LogGroup) int { return b.Count - a.Count })
	if groups == nil {
		groups = []LogGroup{}
	}
	return groups
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
