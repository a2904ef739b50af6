package Models

import (
	"context"
	"sync"
)

// Sheet names used by the dashboard.
const (
	TasksSheet = "Tasks"
	UsersSheet = "Users"
)

// Sheet is a whole table as stored: a header row, the data rows and the
// version the rows were read at.
type Sheet struct {
	Name    string
	Header  []string
	Rows    [][]string
	Version int64
}

// SheetStore reads and replaces whole sheets. There is no partial update.
//
// Write replaces the sheet only if its stored version still equals
// expectedVersion and returns the new version; otherwise it returns
// ErrVersionConflict and leaves the sheet alone. A sheet that was never
// written reads as empty with version 0.
type SheetStore interface {
	Read(ctx context.Context, name string) (Sheet, error)
	Write(ctx context.Context, name string, header []string, rows [][]string, expectedVersion int64) (int64, error)
	Close() error
}

// MemoryStore keeps sheets in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	sheets map[string]Sheet
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sheets: make(map[string]Sheet)}
}

func (m *MemoryStore) Read(ctx context.Context, name string) (Sheet, error) {
	if err := ctx.Err(); err != nil {
		return Sheet{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sheets[name]
	if !ok {
		return Sheet{Name: name}, nil
	}
	return Sheet{Name: name, Header: cloneRow(s.Header), Rows: cloneRows(s.Rows), Version: s.Version}, nil
}

func (m *MemoryStore) Write(ctx context.Context, name string, header []string, rows [][]string, expectedVersion int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.sheets[name].Version
	if current != expectedVersion {
		return current, ErrVersionConflict
	}
	next := current + 1
	m.sheets[name] = Sheet{Name: name, Header: cloneRow(header), Rows: cloneRows(rows), Version: next}
	return next, nil
}

func (m *MemoryStore) Close() error { return nil }

func cloneRow(row []string) []string {
	if row == nil {
		return nil
	}
	return append([]string(nil), row...)
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = cloneRow(r)
	}
	return out
}
