// Package storage provides the key-value backends that hold persisted
// datasets, and the ordered chain the dataset store reads and writes through.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

var errBackendDown = errors.New("storage: backend unavailable")

// Backend is a string-keyed blob store. Values are whole-dataset JSON
// documents; there is no sub-field patching.
type Backend interface {
	Name() string
	// Available reports whether the backend can currently serve requests.
	Available(ctx context.Context) bool
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
}

// ReadError wraps a failure to read or decode a value from one backend.
type ReadError struct {
	Backend string
	Key     string
	Err     error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("storage read %s from %s: %v", e.Key, e.Backend, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError wraps a failure to write a value to one backend.
type WriteError struct {
	Backend string
	Key     string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("storage write %s to %s: %v", e.Key, e.Backend, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
