package Config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"AuditDesk/Models"
)

// Defaults carried over from the branch and task lists the dashboard has
// always offered.
var (
	DefaultBranches  = []string{"HQ", "SUZ", "HUR", "SSH", "LXR", "ASW", "ALX", "CAI", "GIZA", "MANS", "OTHERS"}
	DefaultTaskTypes = []string{"Cash", "Operation", "C.S"}
)

const defaultJWTSecret = "secret"

type Config struct {
	Addr      string
	JWTSecret string

	StorageDriver string
	WorkbookPath  string
	SQLitePath    string
	MySQLDSN      string

	Timezone string
	Location *time.Location

	Branches  []string
	TaskTypes []string

	// FreezeCompletedCounts rejects count edits on completed tasks.
	FreezeCompletedCounts bool

	BackupCron string
	BackupDir  string
	DigestCron string
	DigestTo   []string
	SMTP       Models.EmailConfig

	SlackToken   string
	SlackChannel string
	SlackAPIURL  string

	LogLevel       string
	RequestLogPath string

	BootstrapAdminUser     string
	BootstrapAdminPassword string
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Tests pass a map lookup.
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Addr:                   env("ADDR", ":3001"),
		JWTSecret:              env("JWT_SECRET", defaultJWTSecret),
		StorageDriver:          strings.ToLower(env("STORAGE_DRIVER", "xlsx")),
		WorkbookPath:           env("WORKBOOK_PATH", "data/audit.xlsx"),
		SQLitePath:             env("SQLITE_PATH", "data/audit.db"),
		MySQLDSN:               env("MYSQL_DSN", ""),
		Timezone:               env("TIMEZONE", "Africa/Cairo"),
		Branches:               splitList(env("BRANCHES", ""), DefaultBranches),
		TaskTypes:              splitList(env("TASK_TYPES", ""), DefaultTaskTypes),
		BackupCron:             env("BACKUP_CRON", "0 0 1 * * *"),
		BackupDir:              env("BACKUP_DIR", "backups"),
		DigestCron:             env("DIGEST_CRON", ""),
		DigestTo:               splitList(env("DIGEST_TO", ""), nil),
		LogLevel:               strings.ToLower(env("LOG_LEVEL", "info")),
		RequestLogPath:         env("REQUEST_LOG_PATH", "logs/requests.log"),
		BootstrapAdminUser:     env("BOOTSTRAP_ADMIN_USER", ""),
		BootstrapAdminPassword: env("BOOTSTRAP_ADMIN_PASSWORD", ""),
		SlackToken:             env("SLACK_BOT_TOKEN", ""),
		SlackChannel:           env("SLACK_CHANNEL", ""),
		SlackAPIURL:            env("SLACK_API_URL", ""),
		SMTP: Models.EmailConfig{
			SMTPServer: env("SMTP_SERVER", ""),
			Username:   env("SMTP_USERNAME", ""),
			Password:   env("SMTP_PASSWORD", ""),
			FromEmail:  env("SMTP_FROM", ""),
			FromName:   env("SMTP_FROM_NAME", "Audit Desk"),
		},
	}

	var err error
	if cfg.FreezeCompletedCounts, err = parseBool(env("FREEZE_COMPLETED_COUNTS", "false")); err != nil {
		return Config{}, fmt.Errorf("FREEZE_COMPLETED_COUNTS: %w", err)
	}
	if cfg.SMTP.TLSEnabled, err = parseBool(env("SMTP_TLS", "true")); err != nil {
		return Config{}, fmt.Errorf("SMTP_TLS: %w", err)
	}
	if cfg.SMTP.SMTPPort, err = strconv.Atoi(env("SMTP_PORT", "465")); err != nil {
		return Config{}, fmt.Errorf("SMTP_PORT: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings and resolves the reference timezone.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "xlsx", "sqlite", "memory":
	case "mysql":
		if c.MySQLDSN == "" {
			return errors.New("MYSQL_DSN is required for the mysql storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	c.Location = loc

	if len(c.Branches) == 0 {
		return errors.New("BRANCHES must not be empty")
	}
	if len(c.TaskTypes) == 0 {
		return errors.New("TASK_TYPES must not be empty")
	}
	if (c.SlackToken == "") != (c.SlackChannel == "") {
		return errors.New("SLACK_BOT_TOKEN and SLACK_CHANNEL must be set together")
	}
	if (c.BootstrapAdminUser == "") != (c.BootstrapAdminPassword == "") {
		return errors.New("BOOTSTRAP_ADMIN_USER and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	return nil
}

// UsesDefaultSecret reports whether JWT_SECRET was left unset.
func (c Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

// MailEnabled reports whether the digest job has somewhere to send mail.
func (c Config) MailEnabled() bool {
	return c.SMTP.SMTPServer != "" && c.SMTP.FromEmail != "" && len(c.DigestTo) > 0
}

// SlackEnabled reports whether the digest should refresh a Slack board.
func (c Config) SlackEnabled() bool {
	return c.SlackToken != "" && c.SlackChannel != ""
}

func splitList(raw string, fallback []string) []string {
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(raw string) (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(raw))
}
