package store

import "errors"

// ErrNotFound is returned when a memo, folder, or setting does not exist.
var ErrNotFound = errors.New("record not found")

// WriteError wraps a failed store write. The in-memory state that produced
// the write is retained by the caller, so a later write can carry it forward.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }

// ReadError wraps a failed store read.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *ReadError) Unwrap() error { return e.Err }

func writeErr(op string, err error) error {
	return &WriteError{Op: op, Err: err}
}

func readErr(op string, err error) error {
	return &ReadError{Op: op, Err: err}
}
