package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add products table", "add_products_table"},
		{"Add-Products-Table", "add_products_table"},
		{"ADD__PRODUCTS__TABLE", "add_products_table"},
		{"Add Orders 123", "add_orders_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, slugify(tt.input))
		})
	}
}

func TestScaffold_NumbersAfterExisting(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000001_create_tenants.up.sql", "000001_create_tenants.down.sql", "000010_create_orders.up.sql", "000002_create_products.up.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}

	pair, err := Scaffold(dir, "Add order notes", "Free-text notes on orders")
	require.NoError(t, err)

	assert.Equal(t, "000011", pair.Version)
	assert.Equal(t, filepath.Join(dir, "000011_add_order_notes.up.sql"), pair.UpPath)
	assert.Equal(t, filepath.Join(dir, "000011_add_order_notes.down.sql"), pair.DownPath)

	up, err := os.ReadFile(pair.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: Add order notes")
	assert.Contains(t, string(up), "-- Free-text notes on orders")

	down, err := os.ReadFile(pair.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "-- Rollback: Add order notes")
}

func TestScaffold_EmptyDirStartsAtOne(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	pair, err := Scaffold(dir, "init", "")
	require.NoError(t, err)
	assert.Equal(t, "000001", pair.Version)

	up, err := os.ReadFile(pair.UpPath)
	require.NoError(t, err)
	assert.NotContains(t, string(up), "-- \n")
}

func TestScaffold_RejectsEmptyName(t *testing.T) {
	_, err := Scaffold(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000003_c.up.sql", "000001_a.up.sql", "000001_a.down.sql", "000002_b.up.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000004_dir.up.sql"), 0o755))

	got, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_a", "000002_b", "000003_c"}, got)
}

func TestList_MissingDir(t *testing.T) {
	got, err := List(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	got, err := List(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, got)

	for i, base := range got {
		assert.Equal(t, i+1, versionOf(base), "migrations must be numbered without gaps")
		_, err := os.Stat(filepath.Join("..", "..", "..", "migrations", base+".down.sql"))
		assert.NoError(t, err, "missing down migration for %s", base)
	}
}
