package harness

import "sync"

// defaultGroup names the test group when none was set.
const defaultGroup = "default"

// RunState is the run's only mutable shared data: the installed table, the
// index of the test executing or about to execute, the module of the last
// test started, and the group name.
//
// Execution is single-threaded, so the lock is never contended. It exists so
// that no reader holds a reference across a write; every method releases it
// before returning.
type RunState struct {
	mu        sync.RWMutex
	tests     []TestCase
	installed bool
	index     int
	module    string
	group     string
	failures  int
}

// NewRunState returns an empty state.
func NewRunState() *RunState {
	return &RunState{}
}

// SetGroup sets the group name. It may be called once, before the run.
func (s *RunState) SetGroup(group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.group != "" {
		return ErrGroupSet
	}
	s.group = group
	return nil
}

// Group returns the group name.
func (s *RunState) Group() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.group == "" {
		return defaultGroup
	}
	return s.group
}

func (s *RunState) install(tests []TestCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.installed {
		return ErrAlreadyInstalled
	}
	s.tests = tests
	s.installed = true
	s.index = 0
	return nil
}

// Installed reports whether a table was installed.
func (s *RunState) Installed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.installed
}

// Index returns the current index. It equals Len once the run is complete.
func (s *RunState) Index() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Len returns the number of installed tests.
func (s *RunState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tests)
}

// Module returns the module of the last test started.
func (s *RunState) Module() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.module
}

// Failures returns the number of fail records written.
func (s *RunState) Failures() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures
}

func (s *RunState) test(i int) TestCase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tests[i]
}

// advance moves the index from base to base+1. It refuses once the table is
// exhausted or when base is not the current index, so a stale caller can
// never move the index twice.
func (s *RunState) advance(base int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.tests) || base != s.index {
		return false
	}
	s.index = base + 1
	return true
}

// enterModule records module as current and reports whether it changed.
func (s *RunState) enterModule(module string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.module == module {
		return false
	}
	s.module = module
	return true
}

func (s *RunState) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
}
