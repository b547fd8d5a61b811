package commands

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "abc", formatValue("abc"))
	assert.Equal(t, "42", formatValue(int64(42)))
}

func TestEscapeCSV(t *testing.T) {
	assert.Equal(t, "plain", escapeCSV("plain"))
	assert.Equal(t, `"a,b"`, escapeCSV("a,b"))
	assert.Equal(t, `"say ""hi"""`, escapeCSV(`say "hi"`))
	assert.Equal(t, "\"two\nlines\"", escapeCSV("two\nlines"))
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3", "2026-01-02", "abc1234")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "ncdac 1.2.3")
	assert.Contains(t, out.String(), "build date: 2026-01-02")
	assert.Contains(t, out.String(), "commit:     abc1234")
}

func openRenderDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "render.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE people (id TEXT, name TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO people VALUES ('1', 'Ada'), ('2', NULL)`)
	require.NoError(t, err)
	return db
}

func TestRenderResultsTable(t *testing.T) {
	db := openRenderDB(t)
	rows, err := db.Query(`SELECT id, name FROM people ORDER BY id`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var out bytes.Buffer
	require.NoError(t, renderResults(&out, rows, "table"))

	assert.Contains(t, out.String(), "Ada")
	assert.Contains(t, out.String(), "NULL")
	assert.Contains(t, out.String(), "(2 rows)")
}

func TestRenderResultsJSON(t *testing.T) {
	db := openRenderDB(t)
	rows, err := db.Query(`SELECT id, name FROM people ORDER BY id`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var out bytes.Buffer
	require.NoError(t, renderResults(&out, rows, "json"))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Ada", decoded[0]["name"])
	assert.Nil(t, decoded[1]["name"])
}

func TestRenderResultsCSV(t *testing.T) {
	db := openRenderDB(t)
	rows, err := db.Query(`SELECT id, name FROM people ORDER BY id`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var out bytes.Buffer
	require.NoError(t, renderResults(&out, rows, "csv"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,name", lines[0])
	assert.Equal(t, "1,Ada", lines[1])
	assert.Equal(t, "2,NULL", lines[2])
}

func TestRenderResultsMarkdown(t *testing.T) {
	db := openRenderDB(t)
	rows, err := db.Query(`SELECT id, name FROM people WHERE id = '1'`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var out bytes.Buffer
	require.NoError(t, renderResults(&out, rows, "md"))

	assert.Contains(t, out.String(), "| id | name |")
	assert.Contains(t, out.String(), "| --- | --- |")
	assert.Contains(t, out.String(), "| 1 | Ada |")
}

func TestRenderResultsEmptyTable(t *testing.T) {
	db := openRenderDB(t)
	rows, err := db.Query(`SELECT id FROM people WHERE id = 'none'`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var out bytes.Buffer
	require.NoError(t, renderResults(&out, rows, "table"))
	assert.Equal(t, "(0 rows)\n", out.String())
}

func TestTableNames(t *testing.T) {
	db := openRenderDB(t)
	names := tableNames(context.Background(), db)
	assert.Equal(t, []string{"people"}, names)
}

func TestShowSchemaFromDB(t *testing.T) {
	db := openRenderDB(t)
	var out bytes.Buffer
	require.NoError(t, showSchemaFromDB(context.Background(), &out, db, "people", "csv"))

	assert.Contains(t, out.String(), "name,type,notnull,pk")
	assert.Contains(t, out.String(), "id,TEXT")
}

func TestOpenStoreReadOnlyMissingStore(t *testing.T) {
	_, err := openStoreReadOnly(filepath.Join(t.TempDir(), "nope.sqlite"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 'ncdac build' first")
}

func TestIsoDatePattern(t *testing.T) {
	assert.True(t, isoDatePattern.MatchString("2023-01-15"))
	assert.False(t, isoDatePattern.MatchString("01/15/2023"))
	assert.False(t, isoDatePattern.MatchString("2023-01-15T00:00:00"))
}
