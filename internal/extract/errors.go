package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dbsmedya/depextract/internal/convert"
)

var (
	// ErrNotRecord is returned when a navigation step lands on a non-record value.
	ErrNotRecord = errors.New("value is not a record")
	// ErrFieldNotFound is returned when a record lacks a requested field.
	ErrFieldNotFound = errors.New("field not found")
	// ErrIndexOutOfBounds is returned when a selector falls outside an array axis.
	ErrIndexOutOfBounds = errors.New("index out of bounds")
)

// NavigationError reports where a path walk stopped.
type NavigationError struct {
	Path []string // full requested path
	Step int      // index into Path of the failing segment
	Err  error
}

func (e *NavigationError) Error() string {
	reached := strings.Join(e.Path[:e.Step], ".")
	if reached == "" {
		reached = "<root>"
	}
	return fmt.Sprintf("cannot access %q below %s (step %d of %d): %v",
		e.Path[e.Step], reached, e.Step+1, len(e.Path), e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// Navigate follows path from root through nested records.
func Navigate(root any, path []string) (any, error) {
	cur := root
	for i, name := range path {
		if _, ok := convert.Fields(cur); !ok {
			return nil, &NavigationError{Path: path, Step: i, Err: fmt.Errorf("%w: %T", ErrNotRecord, cur)}
		}
		next, ok := convert.Field(cur, name)
		if !ok {
			return nil, &NavigationError{Path: path, Step: i, Err: ErrFieldNotFound}
		}
		cur = next
	}
	return cur, nil
}
