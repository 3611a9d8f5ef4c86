package etl

import "fmt"

// FetchError indicates the quote provider could not deliver a payload for
// a symbol.
type FetchError struct {
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SchemaError indicates a raw payload failed shape validation before any
// numeric parsing was attempted.
type SchemaError struct {
	Symbol string
	Field  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid payload for %s: missing or malformed %q", e.Symbol, e.Field)
}

// ParseError indicates a single time-series entry could not be converted
// to numeric form.
type ParseError struct {
	Symbol string
	Date   string
	Field  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %s field %q: %v", e.Symbol, e.Date, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError indicates a symbol has no archived snapshot to transform.
type NotFoundError struct {
	Symbol string
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no snapshot for %s: %v", e.Symbol, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// StorageError wraps failures from the snapshot archive or the database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
