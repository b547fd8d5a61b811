// Package fixedwidth decodes the paired data/description extract format
// published by the NC Department of Adult Correction: a .des document
// describes byte offsets and types, and a .dat document holds one
// fixed-width record per line.
package fixedwidth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// DefaultColumns are the column names of a standard description document.
var DefaultColumns = []string{"Name", "Description", "Type", "Start", "Length"}

// fieldRun matches the runs of 3+ whitespace that separate description columns.
var fieldRun = regexp.MustCompile(`\s{3,}`)

// FieldSpec describes one field of a fixed-width record. Start is the
// 1-based byte offset declared in the description document.
type FieldSpec struct {
	Name   string
	Type   string
	Start  int
	Length int
}

// Schema is the parsed form of a description document: an ordered table of
// rows under a fixed set of column names. It is immutable once built.
type Schema struct {
	Columns []string
	rows    [][]string
}

// ParseOptions control how a description document is split into rows.
type ParseOptions struct {
	// Pattern matches the whitespace run treated as a column boundary.
	// Defaults to a run of 3 or more whitespace characters.
	Pattern *regexp.Regexp
	// Separator is the single character substituted for each boundary
	// before splitting. Defaults to "|".
	Separator string
	// Columns are the expected column names, in order. A first row exactly
	// equal to them is treated as a header and dropped. Defaults to
	// DefaultColumns.
	Columns []string
}

func (o *ParseOptions) withDefaults() ParseOptions {
	out := ParseOptions{Pattern: fieldRun, Separator: "|", Columns: DefaultColumns}
	if o == nil {
		return out
	}
	if o.Pattern != nil {
		out.Pattern = o.Pattern
	}
	if o.Separator != "" {
		out.Separator = o.Separator
	}
	if len(o.Columns) > 0 {
		out.Columns = o.Columns
	}
	return out
}

// ParseSchema reads a description document and returns its Schema.
//
// Each line is trimmed, whitespace runs matching the pattern are collapsed
// to the separator, and the line is split on it. Blank lines are skipped.
// A row that does not yield exactly len(Columns) fields fails with
// *MalformedRowError. Header detection compares the first row to the column
// names with exact, case-sensitive equality.
func ParseSchema(r io.Reader, opts *ParseOptions) (*Schema, error) {
	o := opts.withDefaults()

	var rows [][]string
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		normalized := o.Pattern.ReplaceAllString(line, o.Separator)
		fields := strings.Split(normalized, o.Separator)
		if len(fields) != len(o.Columns) {
			return nil, &MalformedRowError{Line: lineNo, Fields: len(fields), Want: len(o.Columns)}
		}
		rows = append(rows, fields)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read description: %w", err)
	}

	if len(rows) > 0 && equalStrings(rows[0], o.Columns) {
		rows = rows[1:]
	}

	return &Schema{Columns: append([]string(nil), o.Columns...), rows: rows}, nil
}

// ParseSchemaFile parses the description document at path.
func ParseSchemaFile(path string, opts *ParseOptions) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MissingSourceError{Path: path, Err: err}
	}
	defer f.Close()
	return ParseSchema(f, opts)
}

// Len returns the number of field rows in the schema.
func (s *Schema) Len() int { return len(s.rows) }

// Rows returns the raw field rows, one per described field, in declaration
// order. The returned slices must not be modified.
func (s *Schema) Rows() [][]string { return s.rows }

// Column returns the values of the named column across all rows.
func (s *Schema) Column(name string) ([]string, error) {
	idx := s.columnIndex(name)
	if idx < 0 {
		return nil, &UnknownColumnError{Column: name}
	}
	out := make([]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = row[idx]
	}
	return out, nil
}

func (s *Schema) columnIndex(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Fields converts the schema rows into ordered FieldSpecs, coercing the
// Start and Length columns to integers.
func (s *Schema) Fields() ([]FieldSpec, error) {
	nameIdx := s.columnIndex("Name")
	typeIdx := s.columnIndex("Type")
	startIdx := s.columnIndex("Start")
	lengthIdx := s.columnIndex("Length")
	for col, idx := range map[string]int{"Name": nameIdx, "Type": typeIdx, "Start": startIdx, "Length": lengthIdx} {
		if idx < 0 {
			return nil, &UnknownColumnError{Column: col}
		}
	}

	out := make([]FieldSpec, 0, len(s.rows))
	for _, row := range s.rows {
		start, err := strconv.Atoi(strings.TrimSpace(row[startIdx]))
		if err != nil {
			return nil, fmt.Errorf("field %s: invalid start offset %q", row[nameIdx], row[startIdx])
		}
		length, err := strconv.Atoi(strings.TrimSpace(row[lengthIdx]))
		if err != nil {
			return nil, fmt.Errorf("field %s: invalid length %q", row[nameIdx], row[lengthIdx])
		}
		out = append(out, FieldSpec{
			Name:   row[nameIdx],
			Type:   row[typeIdx],
			Start:  start,
			Length: length,
		})
	}
	return out, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
