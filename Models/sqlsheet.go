package Models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SheetRow is one stored row. Cells keep the sheet's column order.
type SheetRow struct {
	ID       uint           `gorm:"primaryKey"`
	Sheet    string         `gorm:"size:64;not null;index:idx_sheet_position,priority:1"`
	Position int            `gorm:"not null;index:idx_sheet_position,priority:2"`
	Cells    datatypes.JSON `gorm:"not null"`
}

// SheetVersion carries the header and the optimistic lock of one sheet.
type SheetVersion struct {
	Sheet   string         `gorm:"primaryKey;size:64"`
	Header  datatypes.JSON `gorm:"not null"`
	Version int64          `gorm:"not null;default:0"`
}

// SQLStore emulates whole-sheet storage on a SQL database through gorm.
type SQLStore struct {
	DB *gorm.DB
}

// NewSQLStore migrates the sheet tables on db.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&SheetVersion{}, &SheetRow{}); err != nil {
		return nil, fmt.Errorf("migrate sheet tables: %w", err)
	}
	return &SQLStore{DB: db}, nil
}

func (s *SQLStore) Read(ctx context.Context, name string) (Sheet, error) {
	out := Sheet{Name: name}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v SheetVersion
		if err := tx.First(&v, "sheet = ?", name).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		out.Version = v.Version
		if err := json.Unmarshal(v.Header, &out.Header); err != nil {
			return fmt.Errorf("decode %s header: %w", name, err)
		}

		var rows []SheetRow
		if err := tx.Where("sheet = ?", name).Order("position").Find(&rows).Error; err != nil {
			return err
		}
		out.Rows = make([][]string, 0, len(rows))
		for _, r := range rows {
			var cells []string
			if err := json.Unmarshal(r.Cells, &cells); err != nil {
				return fmt.Errorf("decode %s row %d: %w", name, r.Position, err)
			}
			out.Rows = append(out.Rows, cells)
		}
		return nil
	})
	if err != nil {
		return Sheet{}, fmt.Errorf("read sheet %s: %w", name, err)
	}
	return out, nil
}

func (s *SQLStore) Write(ctx context.Context, name string, header []string, rows [][]string, expectedVersion int64) (int64, error) {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return 0, err
	}
	records := make([]SheetRow, 0, len(rows))
	for i, r := range rows {
		cells, err := json.Marshal(r)
		if err != nil {
			return 0, err
		}
		records = append(records, SheetRow{Sheet: name, Position: i, Cells: datatypes.JSON(cells)})
	}

	var current int64
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v := SheetVersion{Sheet: name, Header: datatypes.JSON("[]")}
		if err := tx.Where(SheetVersion{Sheet: name}).Attrs(v).FirstOrCreate(&v).Error; err != nil {
			return err
		}
		current = v.Version

		res := tx.Model(&SheetVersion{}).
			Where("sheet = ? AND version = ?", name, expectedVersion).
			Updates(map[string]interface{}{"version": expectedVersion + 1, "header": datatypes.JSON(headerJSON)})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}

		if err := tx.Where("sheet = ?", name).Delete(&SheetRow{}).Error; err != nil {
			return err
		}
		if len(records) > 0 {
			if err := tx.CreateInBatches(records, 100).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrVersionConflict) {
		return current, ErrVersionConflict
	}
	if err != nil {
		return 0, fmt.Errorf("write sheet %s: %w", name, err)
	}
	return expectedVersion + 1, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
