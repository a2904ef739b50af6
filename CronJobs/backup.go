package CronJobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"AuditDesk/Lifecycle"
	"AuditDesk/Models"
)

// BackupJob snapshots the Tasks and Users sheets into a dated workbook.
type BackupJob struct {
	Store Models.SheetStore
	Dir   string
	Clock Lifecycle.Clock
	Log   *zap.Logger
}

func (j *BackupJob) Name() string { return "backup" }

func (j *BackupJob) Run(ctx context.Context) error {
	_, err := j.Snapshot(ctx)
	return err
}

// Snapshot writes the backup and returns its path. Sheets are copied as
// stored, without decoding, so the backup holds exactly what was on disk.
func (j *BackupJob) Snapshot(ctx context.Context) (string, error) {
	var sheets []Models.Sheet
	for _, name := range []string{Models.TasksSheet, Models.UsersSheet} {
		s, err := j.Store.Read(ctx, name)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		s.Name = name
		sheets = append(sheets, s)
	}

	f, err := Models.BuildWorkbook(sheets)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := os.MkdirAll(j.Dir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(j.Dir, fmt.Sprintf("audit_%s.xlsx", j.Clock.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save backup: %w", err)
	}

	j.Log.Info("backup written",
		zap.String("path", path),
		zap.Int("tasks", len(sheets[0].Rows)),
		zap.Int("users", len(sheets[1].Rows)),
	)
	return path, nil
}
