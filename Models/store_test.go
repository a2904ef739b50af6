package Models

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func storeBackends(t *testing.T) map[string]SheetStore {
	t.Helper()
	dir := t.TempDir()

	workbook, err := OpenWorkbook(filepath.Join(dir, "audit.xlsx"))
	require.NoError(t, err)

	sqlStore, err := Connect(StorageOptions{Driver: "sqlite", SQLitePath: filepath.Join(dir, "audit.db")})
	require.NoError(t, err)
	t.Cleanup(func() { sqlStore.Close() })

	return map[string]SheetStore{
		"memory":   NewMemoryStore(),
		"workbook": workbook,
		"sqlite":   sqlStore,
	}
}

func TestSheetStores(t *testing.T) {
	ctx := context.Background()
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("Should read a missing sheet as empty", func(t *testing.T) {
				s, err := store.Read(ctx, "Nothing")
				require.NoError(t, err)
				assert.Empty(t, s.Rows)
				assert.Equal(t, int64(0), s.Version)
			})

			t.Run("Should replace the whole sheet and bump the version", func(t *testing.T) {
				header := []string{"Username", "Password", "Role"}
				v1, err := store.Write(ctx, UsersSheet, header, [][]string{{"admin", "007", "Admin"}, {"amira", "42", "User"}}, 0)
				require.NoError(t, err)
				assert.Equal(t, int64(1), v1)

				v2, err := store.Write(ctx, UsersSheet, header, [][]string{{"amira", "42", "User"}}, v1)
				require.NoError(t, err)
				assert.Equal(t, int64(2), v2)

				s, err := store.Read(ctx, UsersSheet)
				require.NoError(t, err)
				assert.Equal(t, header, s.Header)
				assert.Equal(t, [][]string{{"amira", "42", "User"}}, s.Rows)
				assert.Equal(t, v2, s.Version)
			})

			t.Run("Should reject a stale version", func(t *testing.T) {
				s, err := store.Read(ctx, UsersSheet)
				require.NoError(t, err)

				_, err = store.Write(ctx, UsersSheet, s.Header, nil, s.Version-1)
				assert.ErrorIs(t, err, ErrVersionConflict)

				again, err := store.Read(ctx, UsersSheet)
				require.NoError(t, err)
				assert.Equal(t, s.Rows, again.Rows)
			})

			t.Run("Should keep sheets independent", func(t *testing.T) {
				_, err := store.Write(ctx, TasksSheet, TaskHeader, nil, 0)
				require.NoError(t, err)
				users, err := store.Read(ctx, UsersSheet)
				require.NoError(t, err)
				assert.Len(t, users.Rows, 1)
			})
		})
	}
}

func TestWorkbookKeepsLeadingZeros(t *testing.T) {
	ctx := context.Background()
	store, err := OpenWorkbook(filepath.Join(t.TempDir(), "nested", "audit.xlsx"))
	require.NoError(t, err)

	_, err = store.Write(ctx, UsersSheet, UserHeader, [][]string{{"007", "0042", "User"}, {"12", "34", "Admin"}}, 0)
	require.NoError(t, err)

	s, err := store.Read(ctx, UsersSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"007", "0042", "User"}, {"12", "34", "Admin"}}, s.Rows)
}

type capturedLog struct{ lines []string }

func (c *capturedLog) Printf(format string, args ...interface{}) {
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}

func TestSQLStoreReadsUnwrittenSheetQuietly(t *testing.T) {
	captured := &capturedLog{}
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{Logger: sqlLogger(captured)})
	require.NoError(t, err)
	store, err := NewSQLStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	captured.lines = nil

	s, err := store.Read(context.Background(), TasksSheet)
	require.NoError(t, err)
	assert.Empty(t, s.Rows)
	assert.Empty(t, captured.lines)
}
