package dispatch

import (
	"context"
	"time"
)

// Handler mirrors event.Handler to avoid an import cycle.
type Handler interface {
	Handle(ctx context.Context, event any) error
}

// Result is the outcome of one handler execution.
type Result struct {
	// Success is true if the handler returned nil without panicking.
	Success bool

	// Error is the error returned by the handler, or the context error when
	// the handler was skipped.
	Error error

	// Panicked is true if the handler panicked.
	Panicked bool

	// PanicValue is the recovered value when Panicked is true.
	PanicValue any

	// PanicStack is the stack captured at the point of panic.
	PanicStack []byte

	// Duration is the time spent inside the handler.
	Duration time.Duration

	// Skipped is true when the handler never ran (context already done).
	Skipped bool
}

// IsSuccess reports whether the handler ran to completion without error.
func (r Result) IsSuccess() bool {
	return r.Success && !r.Panicked && r.Error == nil
}

// PanicHandler observes recovered panics.
type PanicHandler func(event any, panicValue any, stack []byte)
