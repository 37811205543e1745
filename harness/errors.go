package harness

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyInstalled is returned when a second test table is installed.
	ErrAlreadyInstalled = errors.New("test table already installed")
	// ErrNoCurrentTest is returned when a fault arrives with no test to
	// attribute it to.
	ErrNoCurrentTest = errors.New("fault with no current test")
	// ErrResumeIndex is returned when a run is resumed anywhere but at the
	// current test.
	ErrResumeIndex = errors.New("resume index is not the current test")
	// ErrGroupSet is returned when the test group is set twice.
	ErrGroupSet = errors.New("test group already set")
)

// FatalError is a harness-internal failure. The bookkeeping can no longer be
// trusted, so the run stops without emitting a test record.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("harness: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
