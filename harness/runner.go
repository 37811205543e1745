package harness

import (
	"fmt"

	"go.uber.org/zap"

	"ktest/arch"
	"ktest/output"
)

// msgNoFault is reported for a test that was expected to fault but returned.
const msgNoFault = "test did not fault as expected"

// Runner executes a test table on a backend. It owns the RunState; the fault
// bridge (HandleFault) only reads and advances it through the runner.
type Runner struct {
	state   *RunState
	backend arch.Backend
	out     *output.Writer
	strict  bool
	log     *zap.Logger
}

// NewRunner returns a Runner writing to b.
func NewRunner(b arch.Backend, cfg Config) *Runner {
	r := &Runner{
		state:   NewRunState(),
		backend: b,
		out:     output.NewWriter(b),
		strict:  cfg.StrictExit,
		log:     cfg.logger(),
	}
	if cfg.Group != "" {
		_ = r.state.SetGroup(cfg.Group)
	}
	return r
}

// State returns the runner's state.
func (r *Runner) State() *RunState {
	return r.state
}

// Run installs tests as the run's table, announces the group and executes
// every test in order. It ends by calling the backend's Exit and returns the
// status it passed, which only matters for backends whose Exit returns.
func (r *Runner) Run(tests []TestCase) arch.ExitCode {
	if err := r.state.install(tests); err != nil {
		return r.fatal(&FatalError{Op: "install", Err: err})
	}
	if err := r.out.WriteTestGroup(r.state.Group(), len(tests)); err != nil {
		return r.fatal(&FatalError{Op: "write group", Err: err})
	}
	r.log.Debug("Starting run", zap.String("group", r.state.Group()), zap.Int("tests", len(tests)))
	return r.RunFrom(0)
}

// RunFrom executes the installed table from start to the end and exits the
// machine. start must be the state's current index: tests before it already
// have a record and the index only moves forward. It alternates between the
// sequential loop and the fault bridge: each fault returns here, so the stack
// does not grow with the number of faulting tests.
func (r *Runner) RunFrom(start int) arch.ExitCode {
	if !r.state.Installed() {
		return r.fatal(&FatalError{Op: "run", Err: ErrNoCurrentTest})
	}
	if cur := r.state.Index(); start != cur {
		return r.fatal(&FatalError{Op: "run", Err: fmt.Errorf("%w: asked for %d, at %d", ErrResumeIndex, start, cur)})
	}
	next := start
	for {
		f, err := r.runUntilFault(next)
		if err != nil {
			return r.fatal(err)
		}
		if f == nil {
			break
		}
		var done bool
		next, done, err = r.HandleFault(*f)
		if err != nil {
			return r.fatal(err)
		}
		if done {
			break
		}
	}
	return r.finish()
}

// runUntilFault executes tests from start to the end of the table. It returns
// the first fault, leaving the index on the faulting test.
func (r *Runner) runUntilFault(start int) (*Fault, error) {
	n := r.state.Len()
	for i := start; i < n; i++ {
		tc := r.state.test(i)
		cycleStart := r.startTest(tc)

		switch tc.Ignore() {
		case Skip:
			if err := r.completeTest(tc, OutcomeSkipped, 0, nil); err != nil {
				return nil, err
			}
		default:
			if f := invoke(i, tc); f != nil {
				f.Cycles = r.backend.ReadCycle() - cycleStart
				return f, nil
			}
			var err error
			if tc.ShouldFail() == ExpectFault {
				err = r.completeTest(tc, OutcomeFault, 0, &Fault{Index: i, Location: location(tc), Message: msgNoFault})
			} else {
				err = r.completeTest(tc, OutcomeSuccess, r.backend.ReadCycle()-cycleStart, nil)
			}
			if err != nil {
				return nil, err
			}
		}

		if !r.state.advance(i) {
			break
		}
	}
	return nil, nil
}

// HandleFault is the fault bridge. It classifies f against the faulting
// test's expectation, writes the record, and advances past the test. It
// returns the index to resume from and whether the table is exhausted.
//
// A fault for a test that was already advanced past is ignored, so handling
// the same fault twice neither writes nor advances twice. A fault that cannot
// be attributed to the current test is a FatalError.
func (r *Runner) HandleFault(f Fault) (next int, done bool, err error) {
	if !r.state.Installed() {
		return 0, false, &FatalError{Op: "handle fault", Err: ErrNoCurrentTest}
	}
	cur, n := r.state.Index(), r.state.Len()
	switch {
	case f.Index < cur:
		return cur, cur >= n, nil
	case f.Index > cur || f.Index >= n:
		return 0, false, &FatalError{Op: "handle fault", Err: ErrNoCurrentTest}
	}

	tc := r.state.test(cur)
	outcome := OutcomeFault
	if tc.ShouldFail() == ExpectFault {
		outcome = OutcomeSuccess
	}
	if err := r.completeTest(tc, outcome, f.Cycles, &f); err != nil {
		return 0, false, err
	}

	r.state.advance(cur)
	next = r.state.Index()
	return next, next >= n, nil
}

// startTest records a module change and returns the start cycle.
func (r *Runner) startTest(tc TestCase) uint64 {
	module := ModuleOf(tc)
	if module == "" {
		module = "unknown_module"
	}
	if r.state.enterModule(module) {
		r.log.Debug("Entering module", zap.String("module", module))
	}
	return r.backend.ReadCycle()
}

// completeTest writes the record for tc's outcome. f locates and describes
// an OutcomeFault.
func (r *Runner) completeTest(tc TestCase, outcome Outcome, cycles uint64, f *Fault) error {
	name := tc.QualifiedName()
	var err error
	switch outcome {
	case OutcomeSuccess:
		err = r.out.WriteTestSuccess(name, cycles)
	case OutcomeSkipped:
		err = r.out.WriteTestIgnore(name)
	case OutcomeFault:
		err = r.out.WriteTestFailure(name, f.Location, f.Message)
		if err == nil {
			r.state.recordFailure()
		}
	}
	if err != nil {
		return &FatalError{Op: "write " + outcome.String(), Err: err}
	}
	r.log.Debug("Test complete", zap.String("test", name), zap.Stringer("outcome", outcome))
	return nil
}

// finish exits the machine once every test has a record.
func (r *Runner) finish() arch.ExitCode {
	code := arch.ExitSuccess
	if r.strict && r.state.Failures() > 0 {
		code = arch.ExitFailed
	}
	r.log.Debug("Run complete", zap.Int("failures", r.state.Failures()), zap.Stringer("status", code))
	r.backend.Exit(code)
	return code
}

// fatal stops the run on a harness-internal error.
func (r *Runner) fatal(err error) arch.ExitCode {
	r.log.Error("Harness failure, halting", zap.Error(err), zap.Int("index", r.state.Index()))
	r.backend.Exit(arch.ExitFailed)
	return arch.ExitFailed
}

func location(tc TestCase) string {
	if l, ok := tc.(Locator); ok {
		return l.Location()
	}
	return ""
}
