package harness

import (
	"go.uber.org/zap"

	"ktest/arch"
)

// Hooks run around the test table.
type Hooks struct {
	// BeforeTests runs once before the group record is written.
	BeforeTests func()
	// AfterTests runs after the run, which is only reached when the
	// backend's Exit returns.
	AfterTests func()
}

// Main runs tests as the image's whole program: it reads the configuration,
// selects the build's backend, runs the table and halts. It never returns.
// A non-empty group overrides the configured one.
func Main(group string, tests []TestCase, hooks Hooks) {
	cfg := LoadConfig()
	if group != "" {
		cfg.Group = group
	}
	Start(openBackend(cfg), cfg, tests, hooks)
	arch.Halt()
}

// MainRegistered is Main for the tests added with AddTest.
func MainRegistered(group string, hooks Hooks) {
	cfg := LoadConfig()
	if group != "" {
		cfg.Group = group
	}
	b := openBackend(cfg)
	reg := GlobalRegistry()
	tests := reg.Tests()
	if errs := reg.Errors(); len(errs) > 0 {
		log := cfg.logger()
		for _, err := range errs {
			log.Error("Invalid test registration", zap.Error(err))
		}
		b.Exit(arch.ExitFailed)
		arch.Halt()
	}
	Start(b, cfg, tests, hooks)
	arch.Halt()
}

// openBackend selects the backend for cfg. Falling back from the native
// backend to the host is logged; failing to open a backend named in the
// configuration stops the machine with ExitFailed.
func openBackend(cfg Config) arch.Backend {
	b, err := arch.Select(cfg.Arch)
	if err == nil {
		return b
	}
	log := cfg.logger()
	if cfg.Arch.Backend == "" {
		log.Warn("Native backend unavailable", zap.Error(err))
		return b
	}
	log.Error("Configured backend unavailable, halting",
		zap.String("backend", cfg.Arch.Backend), zap.Error(err))
	b.Exit(arch.ExitFailed)
	arch.Halt()
	return b
}

// Start runs tests on b with the hooks around them and returns the status
// passed to b.Exit.
func Start(b arch.Backend, cfg Config, tests []TestCase, hooks Hooks) arch.ExitCode {
	if hooks.BeforeTests != nil {
		hooks.BeforeTests()
	}
	code := NewRunner(b, cfg).Run(tests)
	if hooks.AfterTests != nil {
		hooks.AfterTests()
	}
	return code
}
