package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/Nitish8696/flatgurugram/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add bills index", "add_bills_index"},
		{"Add-Bills-Index", "add_bills_index"},
		{"ADD_BILLS_INDEX", "add_bills_index"},
		{"add__bills__index", "add_bills_index"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create bills", "Bills table")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_bills.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_create_bills.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: create bills")
	assert.Contains(t, string(up), "-- Bills table")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "-- Rollback: create bills")

	second, err := CreateMigration(dir, "add payments index", "")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(dir, "init", "")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000010_later.up.sql":    {},
		"000010_later.down.sql":  {},
		"000002_second.up.sql":   {},
		"000002_second.down.sql": {},
		"README.md":              {},
		"notes.up.sql":           {},
		"000003_dir/x.sql":       {},
	}

	got, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000002_second", "000010_later"}, got)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	got, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListMigrations_Embedded(t *testing.T) {
	got, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "000001_create_billing_schema", got[0])
}
