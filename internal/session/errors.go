package session

import (
	"errors"
	"fmt"
)

var (
	// ErrFatalIO marks failures reading or writing the working tree, the
	// marker or a snapshot. They halt the session.
	ErrFatalIO = errors.New("fatal I/O error")
	// ErrVersionOrdering is returned when the target does not come after the
	// current version.
	ErrVersionOrdering = errors.New("target version must be after the current version")
	// ErrDirtyWorkingTree is returned when the project has uncommitted changes.
	ErrDirtyWorkingTree = errors.New("working tree has uncommitted changes")
	// ErrNoMarker is returned when the project has no version marker.
	ErrNoMarker = errors.New("no version marker")
)

// FatalIOError is an I/O failure that halted the session.
type FatalIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *FatalIOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FatalIOError) Unwrap() error {
	return e.Err
}

func (e *FatalIOError) Is(target error) bool {
	return target == ErrFatalIO
}
