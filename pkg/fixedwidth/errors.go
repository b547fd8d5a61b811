package fixedwidth

import "fmt"

// MissingSourceError indicates a data or description file could not be read.
type MissingSourceError struct {
	Path string
	Err  error
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Path, e.Err)
}

func (e *MissingSourceError) Unwrap() error { return e.Err }

// MalformedRowError indicates a description row split into the wrong number
// of fields. Line is 1-based within the description document.
type MalformedRowError struct {
	Line   int
	Fields int
	Want   int
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("schema line %d: got %d fields, want %d", e.Line, e.Fields, e.Want)
}

// UnknownColumnError indicates a configured column name is not part of the
// parsed schema.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("schema has no column %q", e.Column)
}
