package harness

import (
	"fmt"
	"runtime"
)

// Registry collects tests registered before the run starts. Tests returns
// the table and seals the registry; later registrations are errors.
type Registry struct {
	tests  []TestCase
	sealed bool
	errs   []error
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddTest registers t, recording the caller as its location.
func (r *Registry) AddTest(t *Test) {
	r.add(t, 2)
}

func (r *Registry) add(t *Test, skip int) {
	if t.File == "" {
		if _, file, line, ok := runtime.Caller(skip); ok {
			t.File, t.Line = file, line
		}
	}
	switch {
	case r.sealed:
		r.errs = append(r.errs, fmt.Errorf("%s: registered after the run started", t.QualifiedName()))
		return
	case t.Func == nil && t.FuncErr == nil:
		r.errs = append(r.errs, fmt.Errorf("%s: test has no body", t.Location()))
		return
	case t.Func != nil && t.FuncErr != nil:
		r.errs = append(r.errs, fmt.Errorf("%s: both Func and FuncErr are set", t.QualifiedName()))
		return
	}
	r.tests = append(r.tests, t)
}

// Tests seals the registry and returns the registered tests in
// registration order.
func (r *Registry) Tests() []TestCase {
	r.sealed = true
	return append([]TestCase(nil), r.tests...)
}

// Errors returns the registration errors seen so far.
func (r *Registry) Errors() []error {
	return r.errs
}

var globalRegistry *Registry // singleton, initialized on first use

// GlobalRegistry returns the registry filled by AddTest.
func GlobalRegistry() *Registry {
	if globalRegistry == nil {
		globalRegistry = NewRegistry()
	}
	return globalRegistry
}

// AddTest adds t to the global registry. Call it from init functions.
func AddTest(t *Test) {
	GlobalRegistry().add(t, 2)
}

// SetGlobalRegistryForTesting temporarily replaces the global registry. The
// caller must call restore afterwards.
func SetGlobalRegistryForTesting(reg *Registry) (restore func()) {
	orig := globalRegistry
	globalRegistry = reg
	return func() {
		globalRegistry = orig
	}
}
