package harness

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ktest/arch"
)

func TestStart_Hooks(t *testing.T) {
	rec := arch.NewRecorder(1)
	var events []string
	hooks := Hooks{
		BeforeTests: func() {
			events = append(events, "before")
			if rec.Output() != "" {
				t.Errorf("expected no output before the run, got %q", rec.Output())
			}
		},
		AfterTests: func() {
			events = append(events, "after")
			if len(rec.Exits()) != 1 {
				t.Errorf("expected the run to have exited, got %v", rec.Exits())
			}
		},
	}
	tests := []TestCase{&Test{Module: "m", Name: "T", Func: func() { events = append(events, "test") }}}

	code := Start(rec, Config{Group: "boot"}, tests, hooks)

	if code != arch.ExitSuccess {
		t.Errorf("expected %v, got %v", arch.ExitSuccess, code)
	}
	if diff := cmp.Diff([]string{"before", "test", "after"}, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestStart_NoHooks(t *testing.T) {
	rec := arch.NewRecorder(1)
	if code := Start(rec, Config{}, nil, Hooks{}); code != arch.ExitSuccess {
		t.Errorf("expected %v, got %v", arch.ExitSuccess, code)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(EnvGroup, "mm")
	t.Setenv(EnvStrictExit, "true")
	t.Setenv(EnvBackend, arch.BackendHost)
	t.Setenv(EnvPortDevice, "/tmp/port")
	t.Setenv(EnvSerialDevice, "/tmp/serial")
	t.Setenv(EnvDebug, "")

	cfg := LoadConfig()

	want := Config{
		Group:      "mm",
		StrictExit: true,
		Arch:       arch.Options{Backend: arch.BackendHost, PortDevice: "/tmp/port", SerialDevice: "/tmp/serial"},
	}
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreFields(Config{}, "Logger")); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.Logger == nil {
		t.Fatal("expected a logger")
	}
	if !cfg.Logger.Core().Enabled(zapcore.WarnLevel) || cfg.Logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected a warn-level logger")
	}

	t.Setenv(EnvDebug, "1")
	if !LoadConfig().Logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected a debug logger with KTEST_DEBUG")
	}
}

func TestOpenBackend(t *testing.T) {
	var buf bytes.Buffer
	b := openBackend(Config{Arch: arch.Options{Backend: arch.BackendHost, Output: &buf}})
	if _, ok := b.(*arch.Host); !ok {
		t.Fatalf("expected a Host backend, got %T", b)
	}

	// A native backend that cannot be opened falls back with a warning.
	core, logs := observer.New(zap.WarnLevel)
	cfg := Config{
		Logger: zap.New(core),
		Arch: arch.Options{
			PortDevice:   filepath.Join(t.TempDir(), "missing"),
			SerialDevice: filepath.Join(t.TempDir(), "missing"),
			Output:       &buf,
		},
	}
	b = openBackend(cfg)
	if _, ok := b.(*arch.Host); !ok {
		t.Fatalf("expected a Host backend, got %T", b)
	}
	for _, entry := range logs.All() {
		if entry.Message != "Native backend unavailable" {
			t.Errorf("unexpected log %q", entry.Message)
		}
	}
}

func TestRunState_Group(t *testing.T) {
	s := NewRunState()
	if s.Group() != "default" {
		t.Errorf("expected default group, got %q", s.Group())
	}
	if err := s.SetGroup("sched"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetGroup("mm"); err != ErrGroupSet {
		t.Errorf("expected ErrGroupSet, got %v", err)
	}
	if s.Group() != "sched" {
		t.Errorf("expected sched, got %q", s.Group())
	}
}
