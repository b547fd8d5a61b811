package store

import "fmt"

// DestinationExistsError indicates a store path that must not pre-exist
// already denotes a file.
type DestinationExistsError struct {
	Path string
}

func (e *DestinationExistsError) Error() string {
	return fmt.Sprintf("destination store %s already exists", e.Path)
}

// SourceMissingError indicates a source store path does not exist.
type SourceMissingError struct {
	Path string
	Err  error
}

func (e *SourceMissingError) Error() string {
	return fmt.Sprintf("source store %s: %v", e.Path, e.Err)
}

func (e *SourceMissingError) Unwrap() error { return e.Err }

// AccessError wraps an underlying database failure with the operation and,
// when known, the table involved.
type AccessError struct {
	Op    string
	Table string
	Err   error
}

func (e *AccessError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }
