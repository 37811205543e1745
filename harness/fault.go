package harness

import (
	"fmt"
	"runtime"
	"strings"
)

// Fault describes a test body that did not return normally.
type Fault struct {
	// Index is the position of the faulting test in the table.
	Index int
	// Location is "file:line" of the fault, or "" if unknown.
	Location string
	// Message describes the fault.
	Message string
	// Value is the recovered panic value.
	Value any
	// Cycles elapsed between the test start and the fault.
	Cycles uint64
}

// Failure is the panic value raised by the assertion helpers. It carries the
// location of the failed assertion.
type Failure struct {
	Message string
	File    string
	Line    int
}

func (f *Failure) Error() string {
	return f.Message
}

// Location returns "file:line", or "" if the file is unknown.
func (f *Failure) Location() string {
	if f.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", f.File, f.Line)
}

// invoke runs the body of test index i. A panic is captured and returned as a
// Fault; nil means the body returned normally.
func invoke(i int, tc TestCase) (f *Fault) {
	defer func() {
		if v := recover(); v != nil {
			f = newFault(i, tc, v)
		}
	}()
	tc.Run()
	return nil
}

// newFault must be called from the deferred function that recovered v.
func newFault(i int, tc TestCase, v any) *Fault {
	f := &Fault{Index: i, Value: v}
	switch v := v.(type) {
	case *Failure:
		f.Message = v.Message
		f.Location = v.Location()
	case error:
		f.Message = v.Error()
	case string:
		f.Message = v
	case fmt.Stringer:
		f.Message = v.String()
	default:
		f.Message = fmt.Sprint(v)
	}
	if f.Location == "" {
		f.Location = panicSite()
	}
	if f.Location == "" {
		if l, ok := tc.(Locator); ok {
			f.Location = l.Location()
		}
	}
	return f
}

// panicSite returns the location of the first frame below runtime.gopanic
// that is not runtime code, i.e. the statement that panicked.
func panicSite() string {
	var pcs [64]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	panicking := false
	for {
		frame, more := frames.Next()
		switch {
		case frame.Function == "runtime.gopanic":
			panicking = true
		case panicking && !strings.HasPrefix(frame.Function, "runtime."):
			return fmt.Sprintf("%s:%d", frame.File, frame.Line)
		}
		if !more {
			return ""
		}
	}
}
