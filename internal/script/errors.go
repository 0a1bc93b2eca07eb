package script

import (
	"errors"
	"fmt"
)

// Errors for script operations.
var (
	// ErrStateClosed is returned when evaluating with a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrEmptySource is returned when compiling an empty expression.
	ErrEmptySource = errors.New("empty predicate source")

	// ErrNotFunction is returned when a predicate chunk does not yield a function.
	ErrNotFunction = errors.New("predicate did not compile to a function")
)

// CompileError reports a predicate that failed to compile.
type CompileError struct {
	Source string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile predicate %q: %v", e.Source, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
