package fixedwidth

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Record is one decoded fixed-width line, keyed by field name. Values are
// strings, or time.Time for coerced date fields, or nil when a date field
// failed to parse.
type Record map[string]any

// DecodeOptions control fixed-width decoding.
type DecodeOptions struct {
	// CoerceDates converts fields classified as dates into time.Time
	// values; unparsable values become nil.
	CoerceDates bool
	// RowLimit caps the number of lines decoded when greater than zero.
	RowLimit int
}

// Decode slices each input line into a Record according to the field specs.
// Records come back in input order, one per line. Slices that fall outside
// a line yield empty or short values, never an error, and a date value that
// fails to parse degrades to nil rather than aborting the batch.
func Decode(lines []string, fields []FieldSpec, dateFields map[string]string, opts DecodeOptions) []Record {
	if opts.RowLimit > 0 && opts.RowLimit < len(lines) {
		lines = lines[:opts.RowLimit]
	}

	out := make([]Record, 0, len(lines))
	for _, line := range lines {
		runes := []rune(strings.TrimRight(line, "\r\n"))
		rec := make(Record, len(fields))
		for _, f := range fields {
			raw := slice(runes, f.Start, f.Length)
			if opts.CoerceDates {
				if _, ok := dateFields[f.Name]; ok {
					rec[f.Name] = coerceDate(raw)
					continue
				}
			}
			rec[f.Name] = raw
		}
		out = append(out, rec)
	}
	return out
}

// DecodeFile reads the data document at datPath and decodes it against the
// description document at desPath. The encoding name applies to the data
// document and is passed to ReadLinesFile.
func DecodeFile(datPath, desPath, encoding string, opts DecodeOptions) ([]Record, error) {
	schema, err := ParseSchemaFile(desPath, nil)
	if err != nil {
		return nil, err
	}
	fields, err := schema.Fields()
	if err != nil {
		return nil, err
	}
	dates, err := schema.DateFields(nil)
	if err != nil {
		return nil, err
	}
	lines, err := ReadLinesFile(datPath, encoding)
	if err != nil {
		return nil, err
	}
	return Decode(lines, fields, dates, opts), nil
}

// slice extracts the character range [start-1, start-1+length) from the
// line, clamped to its bounds. Start is 1-based. Slicing by rune keeps the
// declared offsets aligned for sources transcoded from single-byte
// encodings, where a non-ASCII character widens to several UTF-8 bytes.
func slice(runes []rune, start, length int) string {
	lo := start - 1
	if lo < 0 || lo >= len(runes) {
		return ""
	}
	hi := lo + length
	if hi > len(runes) {
		hi = len(runes)
	}
	return string(runes[lo:hi])
}

// coerceDate parses raw as a calendar date on a best-effort basis. Returns
// nil when no date can be recognized.
func coerceDate(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	t, err := dateparse.ParseAny(trimmed)
	if err != nil {
		return nil
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
