// Package harness runs compiled-in tests sequentially on a freestanding
// machine and reports each result on the architecture's debug channel.
//
// A test that faults (panics) does not end the run: the fault is captured at
// the test boundary, classified against the test's expectation, reported, and
// execution resumes with the next test. After the last test the machine is
// shut down through the architecture backend.
package harness

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Ignore says whether a test body is executed.
type Ignore int

const (
	// Run executes the test body.
	Run Ignore = iota
	// Skip reports the test as ignored without executing it.
	Skip
)

// ShouldFail says whether a test is expected to fault.
type ShouldFail int

const (
	// ExpectSuccess treats a fault as a failure.
	ExpectSuccess ShouldFail = iota
	// ExpectFault treats a fault as a pass.
	ExpectFault
)

// Outcome is the result of one test.
type Outcome int

const (
	// OutcomeSuccess is a body that returned normally, or faulted as expected.
	OutcomeSuccess Outcome = iota
	// OutcomeFault is an unexpected fault, or a missing expected one.
	OutcomeFault
	// OutcomeSkipped is a test whose body was not executed.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFault:
		return "fault"
	case OutcomeSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// TestCase is the contract every test satisfies.
type TestCase interface {
	// QualifiedName returns the module path and test name, e.g.
	// "example.com/kernel/mm.TestAlloc".
	QualifiedName() string
	// Run executes the test body. A failing test panics.
	Run()
	Ignore() Ignore
	ShouldFail() ShouldFail
}

// Locator is implemented by test cases that know where they were declared.
type Locator interface {
	Location() string
}

// Test is the standard TestCase. Exactly one of Func and FuncErr is set.
// Name and Module default to the function's symbol.
type Test struct {
	// Func is a test body that faults by panicking, typically through the
	// assertion helpers.
	Func func()
	// FuncErr is a test body whose non-nil error is a fault.
	FuncErr func() error

	Name   string
	Module string
	Mode   Ignore
	Expect ShouldFail

	// File and Line locate the registration; AddTest fills them in.
	File string
	Line int
}

func (t *Test) QualifiedName() string {
	module, name := t.Module, t.Name
	if module == "" || name == "" {
		m, n := SplitQualifiedName(t.symbol())
		if module == "" {
			module = m
		}
		if name == "" {
			name = n
		}
	}
	if module == "" {
		return name
	}
	return module + "." + name
}

func (t *Test) Run() {
	switch {
	case t.Func != nil:
		t.Func()
	case t.FuncErr != nil:
		if err := t.FuncErr(); err != nil {
			panic(&Failure{Message: err.Error(), File: t.File, Line: t.Line})
		}
	default:
		panic(&Failure{Message: "test has no body", File: t.File, Line: t.Line})
	}
}

func (t *Test) Ignore() Ignore {
	return t.Mode
}

func (t *Test) ShouldFail() ShouldFail {
	return t.Expect
}

// Location returns "file:line" of the registration, or "" if unknown.
func (t *Test) Location() string {
	if t.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", t.File, t.Line)
}

func (t *Test) symbol() string {
	var fn any
	switch {
	case t.Func != nil:
		fn = t.Func
	case t.FuncErr != nil:
		fn = t.FuncErr
	default:
		return ""
	}
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return ""
	}
	return f.Name()
}

// SplitQualifiedName splits a qualified name into its module path and test
// name. The separator is the last dot after the last slash.
func SplitQualifiedName(q string) (module, name string) {
	slash := strings.LastIndex(q, "/")
	dot := strings.LastIndex(q[slash+1:], ".")
	if dot < 0 {
		return "", q
	}
	dot += slash + 1
	return q[:dot], q[dot+1:]
}

// ModuleOf returns the module path of tc, or "" if it has none.
func ModuleOf(tc TestCase) string {
	m, _ := SplitQualifiedName(tc.QualifiedName())
	return m
}

// SplitModulePath splits a module path into its elements.
func SplitModulePath(module string) []string {
	if module == "" {
		return nil
	}
	return strings.Split(module, "/")
}
