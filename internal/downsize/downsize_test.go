package downsize

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncdatalab/ncdac/internal/store"
	"github.com/ncdatalab/ncdac/internal/testutil"
)

// buildSourceStore assembles a small extract store: an offender profile
// parent table, a dependent fact table, and a description table.
func buildSourceStore(t *testing.T, dir string) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(dir, "full.sqlite")

	s, err := store.Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.ReplaceTable(ctx, "OFNT3AA1_data",
		[]string{"CMDORNUM", "DTOFUPDT"},
		[][]any{
			{"A", "2020-01-01"},
			{"B", "2023-06-01"},
			{"B", "2023-07-01"}, // duplicate identifier, legal
		}))

	require.NoError(t, s.ReplaceTable(ctx, "INMT4AA1_data",
		[]string{"CMDORNUM", "SENTENCE"},
		[][]any{
			{"A", "sentence-a"},
			{"B", "sentence-b"},
			{"C", "sentence-c"},
		}))

	require.NoError(t, s.ReplaceTable(ctx, "INMT4AA1_desc",
		[]string{"Name", "Description", "Type", "Start", "Length"},
		[][]any{
			{"CMDORNUM", "DOC NUMBER", "CHAR", "1", "7"},
			{"SENTENCE", "SENTENCE TEXT", "CHAR", "8", "20"},
		}))

	return path
}

func TestBuildIndex(t *testing.T) {
	ctx := context.Background()
	srcPath := buildSourceStore(t, t.TempDir())

	src, err := store.OpenReadOnly(srcPath)
	require.NoError(t, err)
	defer src.Close()

	all, err := BuildIndex(ctx, src, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"OFNT3AA1_data": "CMDORNUM",
		"INMT4AA1_data": "CMDORNUM",
		"INMT4AA1_desc": "Name",
	}, all)

	factOnly, err := BuildIndex(ctx, src, true)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"OFNT3AA1_data": "CMDORNUM",
		"INMT4AA1_data": "CMDORNUM",
	}, factOnly)
}

func TestCloneFiltersFactTables(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	srcPath := buildSourceStore(t, dir)
	dstPath := filepath.Join(dir, "small.sqlite")

	err := Clone(ctx, Options{
		Source:        srcPath,
		Destination:   dstPath,
		MinUpdateDate: "2022-01-01",
		Logger:        testutil.NewTestLogger(t),
	})
	require.NoError(t, err)

	dst, err := store.OpenReadOnly(dstPath)
	require.NoError(t, err)
	defer dst.Close()

	// Only B was updated after the threshold.
	var ids []string
	rows, err := dst.DB().Query(`SELECT CMDORNUM FROM INMT4AA1_data ORDER BY CMDORNUM`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"B"}, ids)

	// The parent table is itself a fact table and gets filtered too,
	// keeping both rows for the duplicate identifier.
	var parentCount int
	require.NoError(t, dst.DB().QueryRow(`SELECT COUNT(*) FROM OFNT3AA1_data`).Scan(&parentCount))
	assert.Equal(t, 2, parentCount)

	// Description tables are copied verbatim.
	var descCount int
	require.NoError(t, dst.DB().QueryRow(`SELECT COUNT(*) FROM INMT4AA1_desc`).Scan(&descCount))
	assert.Equal(t, 2, descCount)
}

func TestCloneEmptyIdentifierSet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	srcPath := buildSourceStore(t, dir)
	dstPath := filepath.Join(dir, "empty.sqlite")

	err := Clone(ctx, Options{
		Source:        srcPath,
		Destination:   dstPath,
		MinUpdateDate: "2099-01-01",
	})
	require.NoError(t, err)

	dst, err := store.OpenReadOnly(dstPath)
	require.NoError(t, err)
	defer dst.Close()

	// Fact tables exist but hold no rows; the table shape is preserved.
	var count int
	require.NoError(t, dst.DB().QueryRow(`SELECT COUNT(*) FROM INMT4AA1_data`).Scan(&count))
	assert.Equal(t, 0, count)

	first, err := dst.FirstColumn(ctx, "INMT4AA1_data")
	require.NoError(t, err)
	assert.Equal(t, "CMDORNUM", first)
}

func TestCloneRefusesExistingDestination(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	srcPath := buildSourceStore(t, dir)
	dstPath := filepath.Join(dir, "taken.sqlite")
	require.NoError(t, os.WriteFile(dstPath, []byte("occupied"), 0o600))

	err := Clone(ctx, Options{
		Source:        srcPath,
		Destination:   dstPath,
		MinUpdateDate: "2022-01-01",
	})

	var exists *store.DestinationExistsError
	require.ErrorAs(t, err, &exists)

	// Nothing was written over the existing file.
	content, readErr := os.ReadFile(dstPath)
	require.NoError(t, readErr)
	assert.Equal(t, "occupied", string(content))
}

func TestCloneMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Clone(context.Background(), Options{
		Source:        filepath.Join(dir, "nope.sqlite"),
		Destination:   filepath.Join(dir, "out.sqlite"),
		MinUpdateDate: "2022-01-01",
	})

	var missing *store.SourceMissingError
	require.ErrorAs(t, err, &missing)

	// The destination was never created.
	_, statErr := os.Stat(filepath.Join(dir, "out.sqlite"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCloneSourceUnchanged(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	srcPath := buildSourceStore(t, dir)

	before, err := os.ReadFile(srcPath)
	require.NoError(t, err)

	require.NoError(t, Clone(ctx, Options{
		Source:        srcPath,
		Destination:   filepath.Join(dir, "copy.sqlite"),
		MinUpdateDate: "2022-01-01",
	}))

	after, err := os.ReadFile(srcPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
