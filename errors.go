package storysite

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a slug or id lookup misses. Handlers decide
// whether to surface it as a 404; repositories never treat it as a failure.
var ErrNotFound = errors.New("storysite: post not found")

// ErrStoreUnavailable is returned by every write when the backing store
// could not be opened at startup. Reads fall back to the sample dataset
// instead.
var ErrStoreUnavailable = errors.New("storysite: store unavailable")

// ValidationError collects human-readable messages for a rejected post
// submission. It is raised before any store call; a submission is never
// partially applied.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "storysite: invalid post: " + strings.Join(e.Messages, "; ")
}

// StoreError wraps a failure from the underlying database with the operation
// that caused it, preserving the original message for diagnostics.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("storysite: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
