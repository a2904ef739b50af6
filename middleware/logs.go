package middleware

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LogConfig holds configuration for the request logging middleware
type LogConfig struct {
	// File receives one JSON line per request. Empty disables the file.
	File string
	// Skip logging for specific paths
	SkipPaths []string
}

// LogData is one line of the request log. The admin log endpoints read the
// same shape back.
type LogData struct {
	Timestamp     time.Time     `json:"timestamp"`
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	URL           string        `json:"url"`
	Status        int           `json:"status"`
	Latency       time.Duration `json:"latency"`
	IP            string        `json:"ip"`
	UserAgent     string        `json:"user_agent"`
	RequestID     string        `json:"request_id"`
	Error         string        `json:"error,omitempty"`
	Username      string        `json:"username"`
	ContentLength int64         `json:"content_length"`
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		File:      "logs/requests.log",
		SkipPaths: []string{"/health"},
	}
}

// RequestLogger logs every request to zap and appends it to the request log
// file.
func RequestLogger(cfg LogConfig, log *zap.Logger) fiber.Handler {
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			log.Warn("create request log directory", zap.String("path", cfg.File), zap.Error(err))
		}
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	var mu sync.Mutex

	return func(c *fiber.Ctx) error {
		if _, ok := skip[c.Path()]; ok {
			return c.Next()
		}
		start := time.Now()

		err := c.Next()

		data := LogData{
			Timestamp:     start,
			Method:        c.Method(),
			Path:          c.Path(),
			URL:           c.OriginalURL(),
			Status:        c.Response().StatusCode(),
			Latency:       time.Since(start),
			IP:            c.IP(),
			UserAgent:     c.Get(fiber.HeaderUserAgent),
			RequestID:     c.Get(fiber.HeaderXRequestID),
			ContentLength: int64(len(c.Response().Body())),
		}
		if user, ok := CurrentUser(c); ok {
			data.Username = user.Username
		}
		if err != nil {
			data.Error = err.Error()
			// The error handler has not run yet, so the recorded status is
			// the one it will pick.
			data.Status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				data.Status = fe.Code
			}
		}

		log.Info("request",
			zap.String("method", data.Method),
			zap.String("path", data.Path),
			zap.Int("status", data.Status),
			zap.Duration("latency", data.Latency),
			zap.String("ip", data.IP),
			zap.String("username", data.Username),
		)

		if cfg.File != "" {
			mu.Lock()
			if werr := appendLine(cfg.File, data); werr != nil {
				log.Warn("write request log", zap.Error(werr))
			}
			mu.Unlock()
		}
		return err
	}
}

func appendLine(path string, data LogData) error {
	line, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode log line: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.Write(append(line, '\n'))
	return err
}
