package Models

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StorageOptions selects and locates the sheet backend.
type StorageOptions struct {
	Driver       string
	WorkbookPath string
	SQLitePath   string
	MySQLDSN     string
}

// Connect opens the sheet store named by opts.Driver.
func Connect(opts StorageOptions) (SheetStore, error) {
	switch opts.Driver {
	case "xlsx":
		return OpenWorkbook(opts.WorkbookPath)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(opts.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		return openSQL(sqlite.Open(opts.SQLitePath))
	case "mysql":
		return openSQL(mysql.Open(opts.MySQLDSN))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

func openSQL(dialector gorm.Dialector) (SheetStore, error) {
	connection, err := gorm.Open(dialector, &gorm.Config{
		Logger: sqlLogger(log.New(os.Stderr, "\r\n", log.LstdFlags)),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return NewSQLStore(connection)
}

// sqlLogger reports slow queries and errors. A sheet that was never written
// has no version row, which is not worth a log line.
func sqlLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// SeedAdmin creates an administrator when the Users sheet is empty, so a new
// deployment has someone who can log in. It reports whether a user was added.
func SeedAdmin(ctx context.Context, users *UserRepository, username, password string) (bool, error) {
	if username == "" {
		return false, nil
	}
	existing, _, err := users.List(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	if err := users.Create(ctx, User{Username: username, Password: hash, Role: RoleAdmin}); err != nil {
		return false, err
	}
	return true, nil
}
