package harness

import (
	"fmt"
	"runtime"
)

// Assert faults the running test if cond is false.
func Assert(cond bool, msg string) {
	if !cond {
		raise(1, msg)
	}
}

// Assertf is Assert with a formatted message.
func Assertf(cond bool, format string, args ...any) {
	if !cond {
		raise(1, fmt.Sprintf(format, args...))
	}
}

// Equal faults the running test if got != want.
func Equal[T comparable](got, want T) {
	if got != want {
		raise(1, fmt.Sprintf("got %v, want %v", got, want))
	}
}

// NoError faults the running test if err is non-nil.
func NoError(err error) {
	if err != nil {
		raise(1, err.Error())
	}
}

// Fail faults the running test unconditionally.
func Fail(msg string) {
	raise(1, msg)
}

// Failf is Fail with a formatted message.
func Failf(format string, args ...any) {
	raise(1, fmt.Sprintf(format, args...))
}

// raise panics with a Failure located skip frames above its caller.
func raise(skip int, msg string) {
	f := &Failure{Message: msg}
	if _, file, line, ok := runtime.Caller(skip + 1); ok {
		f.File, f.Line = file, line
	}
	panic(f)
}
