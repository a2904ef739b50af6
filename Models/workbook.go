package Models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"
)

// metaSheet holds one (sheet name, version) row per table. It is hidden in
// the workbook.
const metaSheet = "_meta"

// WorkbookStore keeps every sheet in one .xlsx file on disk. Each Write
// rebuilds the file and renames it into place, so readers never see a half
// written workbook.
type WorkbookStore struct {
	mu   sync.Mutex
	path string
}

// OpenWorkbook prepares a workbook store at path. The file is created on the
// first write.
func OpenWorkbook(path string) (*WorkbookStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create workbook directory: %w", err)
	}
	w := &WorkbookStore{path: path}
	if _, _, err := w.load(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *WorkbookStore) Read(ctx context.Context, name string) (Sheet, error) {
	if err := ctx.Err(); err != nil {
		return Sheet{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	book, versions, err := w.load()
	if err != nil {
		return Sheet{}, err
	}
	s := Sheet{Name: name, Version: versions[name]}
	if rows, ok := book.rows[name]; ok && len(rows) > 0 {
		s.Header = rows[0]
		s.Rows = rows[1:]
	}
	return s, nil
}

func (w *WorkbookStore) Write(ctx context.Context, name string, header []string, rows [][]string, expectedVersion int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if name == metaSheet {
		return 0, fmt.Errorf("sheet name %q is reserved", name)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	book, versions, err := w.load()
	if err != nil {
		return 0, err
	}
	if versions[name] != expectedVersion {
		return versions[name], ErrVersionConflict
	}

	next := expectedVersion + 1
	versions[name] = next
	book.set(name, append([][]string{header}, rows...))

	sheets := make([]Sheet, 0, len(book.order))
	for _, n := range book.order {
		data := book.rows[n]
		s := Sheet{Name: n}
		if len(data) > 0 {
			s.Header, s.Rows = data[0], data[1:]
		}
		sheets = append(sheets, s)
	}

	f, err := BuildWorkbook(sheets)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if err := writeMeta(f, versions); err != nil {
		return 0, err
	}

	if err := w.replace(f); err != nil {
		return 0, err
	}
	return next, nil
}

// replace writes f next to the workbook and renames it over the old file.
func (w *WorkbookStore) replace(f *excelize.File) error {
	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".audit-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp workbook: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replace workbook: %w", err)
	}
	return nil
}

func (w *WorkbookStore) Close() error { return nil }

type workbookData struct {
	order []string
	rows  map[string][][]string
}

func (b *workbookData) set(name string, rows [][]string) {
	if _, ok := b.rows[name]; !ok {
		b.order = append(b.order, name)
	}
	b.rows[name] = rows
}

// load reads every sheet of the workbook with raw cell values. A missing file
// is an empty workbook.
func (w *WorkbookStore) load() (*workbookData, map[string]int64, error) {
	book := &workbookData{rows: make(map[string][][]string)}
	versions := make(map[string]int64)

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return book, versions, nil
		}
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		if name == metaSheet {
			for _, r := range rows {
				if len(r) < 2 {
					continue
				}
				if v, err := strconv.ParseInt(r[1], 10, 64); err == nil {
					versions[r[0]] = v
				}
			}
			continue
		}
		book.set(name, dropBlankRows(rows))
	}
	return book, versions, nil
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, r := range rows {
		for _, cell := range r {
			if cell != "" {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// BuildWorkbook lays out sheets in a new workbook with a bold header row. The
// first sheet becomes the active one.
func BuildWorkbook(sheets []Sheet) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6FA"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if len(sheets) == 0 {
		return f, nil
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				f.Close()
				return nil, fmt.Errorf("name sheet %s: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", s.Name, err)
		}

		if len(s.Header) > 0 {
			if err := setRow(f, s.Name, 1, s.Header); err != nil {
				f.Close()
				return nil, err
			}
			f.SetRowStyle(s.Name, 1, 1, headerStyle)
		}
		for r, row := range s.Rows {
			if err := setRow(f, s.Name, r+2, row); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeMeta(f *excelize.File, versions map[string]int64) error {
	if _, err := f.NewSheet(metaSheet); err != nil {
		return fmt.Errorf("create meta sheet: %w", err)
	}
	r := 1
	for name, v := range versions {
		if err := setRow(f, metaSheet, r, []string{name, strconv.FormatInt(v, 10)}); err != nil {
			return err
		}
		r++
	}
	return f.SetSheetVisible(metaSheet, false)
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = cellValue(v)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// cellValue stores plain integers as numbers so counts stay numeric for
// anyone opening the workbook in a spreadsheet editor.
func cellValue(v string) interface{} {
	if n, err := strconv.Atoi(v); err == nil && strconv.Itoa(n) == v {
		return n
	}
	return v
}
