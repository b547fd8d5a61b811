package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateRefusesExistingPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exists.sqlite")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := Create(path)
	var exists *DestinationExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, path, exists.Path)
}

func TestOpenReadOnlyMissingPath(t *testing.T) {
	_, err := OpenReadOnly(filepath.Join(t.TempDir(), "nope.sqlite"))

	var missing *SourceMissingError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Path, "nope.sqlite")
}

func TestReplaceTableAndReaders(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	cols := []string{"CMDORNUM", "DTOFUPDT"}
	rows := [][]any{
		{"A", "2020-01-01"},
		{"B", nil},
	}
	require.NoError(t, s.ReplaceTable(ctx, "SAMPLE_data", cols, rows))

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"SAMPLE_data"}, tables)

	first, err := s.FirstColumn(ctx, "SAMPLE_data")
	require.NoError(t, err)
	assert.Equal(t, "CMDORNUM", first)

	var count int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM SAMPLE_data`).Scan(&count))
	assert.Equal(t, 2, count)

	var nulls int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM SAMPLE_data WHERE DTOFUPDT IS NULL`).Scan(&nulls))
	assert.Equal(t, 1, nulls)
}

func TestReplaceTableReplaces(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	cols := []string{"ID"}
	require.NoError(t, s.ReplaceTable(ctx, "T_data", cols, [][]any{{"1"}, {"2"}}))
	require.NoError(t, s.ReplaceTable(ctx, "T_data", cols, [][]any{{"3"}}))

	var count int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM T_data`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestReplaceTableManyRows(t *testing.T) {
	// Crosses the insert batch boundary.
	ctx := context.Background()
	s := setupTestStore(t)

	rows := make([][]any, 123)
	for i := range rows {
		rows[i] = []any{"x"}
	}
	require.NoError(t, s.ReplaceTable(ctx, "T_data", []string{"ID"}, rows))

	var count int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM T_data`).Scan(&count))
	assert.Equal(t, 123, count)
}

func TestCreateColumnIndexAllowsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	require.NoError(t, s.ReplaceTable(ctx, "T_data", []string{"ID"}, [][]any{{"A"}, {"A"}}))
	require.NoError(t, s.CreateColumnIndex(ctx, "T_data", "ID"))
	// Idempotent.
	require.NoError(t, s.CreateColumnIndex(ctx, "T_data", "ID"))
}

func TestAttachAliasSurvivesAcrossStatements(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src, err := Open(filepath.Join(dir, "src.sqlite"))
	require.NoError(t, err)
	require.NoError(t, src.ReplaceTable(ctx, "T_data", []string{"ID"}, [][]any{{"A"}}))
	require.NoError(t, src.Close())

	dst, err := Open(filepath.Join(dir, "dst.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dst.Close() })
	require.NoError(t, dst.Attach(ctx, src.Path(), "orig"))

	// ATTACH is session state: each of these statements must land on the
	// same connection the attach ran on.
	var count int
	for i := 0; i < 5; i++ {
		require.NoError(t, dst.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM orig.T_data`).Scan(&count))
		assert.Equal(t, 1, count)
	}
	require.NoError(t, dst.Detach(ctx, "orig"))
}

func TestFirstColumnMissingTable(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.FirstColumn(ctx, "nope")
	var access *AccessError
	require.ErrorAs(t, err, &access)
	assert.Equal(t, "nope", access.Table)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"plain"`, QuoteIdent("plain"))
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", Placeholders(0))
	assert.Equal(t, "?", Placeholders(1))
	assert.Equal(t, "?, ?, ?", Placeholders(3))
}
