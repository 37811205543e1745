package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestConfig_GetImagePath(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{
			name: "default path",
			config: &Config{
				ProjectPath: ".",
				ImagePath:   ".",
				Flags:       Flags{},
			},
			expected: ".",
		},
		{
			name: "with image path flag",
			config: &Config{
				ProjectPath: "/project",
				ImagePath:   ".",
				Flags: Flags{
					ImagePath: "build/images",
				},
			},
			expected: "/project/build/images",
		},
		{
			name: "absolute image path",
			config: &Config{
				ProjectPath: "/project",
				ImagePath:   ".",
				Flags: Flags{
					ImagePath: "/absolute/path",
				},
			},
			expected: "/absolute/path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.config.GetImagePath()
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.ProjectPath != DefaultProjectPath {
		t.Errorf("expected ProjectPath %s, got %s", DefaultProjectPath, cfg.ProjectPath)
	}

	if cfg.Processors != DefaultProcessors {
		t.Errorf("expected Processors %d, got %d", DefaultProcessors, cfg.Processors)
	}

	if len(cfg.PathsToIgnore) != len(DefaultPathsToIgnore) {
		t.Errorf("expected %d paths to ignore, got %d", len(DefaultPathsToIgnore), len(cfg.PathsToIgnore))
	}

	if diff := cmp.Diff(DefaultEmulatorArgs, cfg.EmulatorArgs); diff != "" {
		t.Errorf("emulator args mismatch (-want +got):\n%s", diff)
	}

	cfg.EmulatorArgs[0] = "-changed"
	if DefaultEmulatorArgs[0] == "-changed" {
		t.Error("config must not share the default emulator args")
	}
}

func TestConfig_LoadEnv(t *testing.T) {
	dir := t.TempDir()
	env := "KTEST_EMULATOR=qemu-system-aarch64\nDB_DATABASE=from_file\nDB_HOST=db.local\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	// The process environment wins over .env.
	t.Setenv(EnvDBHost, "10.0.0.2")
	t.Setenv(EnvTimeout, "30")
	t.Setenv(EnvEmulatorArgs, `-machine virt -kernel {kernel} -append "console=ttyAMA0 {env}"`)
	t.Setenv(EnvKernel, "build/Image")
	// godotenv.Load sets process variables; clear them afterwards.
	t.Setenv(EnvEmulator, "")
	t.Setenv(EnvDBDatabase, "")
	os.Unsetenv(EnvEmulator)
	os.Unsetenv(EnvDBDatabase)

	cfg := New()
	cfg.ProjectPath = dir
	if err := cfg.LoadEnv(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Emulator != "qemu-system-aarch64" {
		t.Errorf("expected emulator from .env, got %s", cfg.Emulator)
	}
	if cfg.Database.Name != "from_file" {
		t.Errorf("expected database from .env, got %s", cfg.Database.Name)
	}
	if cfg.Database.Host != "10.0.0.2" {
		t.Errorf("expected host from the environment, got %s", cfg.Database.Host)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", cfg.Timeout)
	}
	if diff := cmp.Diff([]string{"-machine", "virt", "-kernel", "{kernel}", "-append", "console=ttyAMA0 {env}"}, cfg.EmulatorArgs); diff != "" {
		t.Errorf("emulator args mismatch (-want +got):\n%s", diff)
	}
	if cfg.GetKernelPath() != filepath.Join(dir, "build/Image") {
		t.Errorf("expected kernel under the project, got %s", cfg.GetKernelPath())
	}
}

func TestConfig_LoadEnv_InvalidEmulatorArgs(t *testing.T) {
	t.Setenv(EnvEmulatorArgs, `-append "unterminated`)
	cfg := New()
	cfg.ProjectPath = t.TempDir()
	if err := cfg.LoadEnv(); err == nil {
		t.Error("expected error for unbalanced quotes")
	}
}

func TestConfig_LoadEnv_MissingFile(t *testing.T) {
	cfg := New()
	cfg.ProjectPath = t.TempDir()
	if err := cfg.LoadEnv(); err != nil {
		t.Errorf("a missing .env must not be an error, got %v", err)
	}
}

func TestConfig_LoadEnv_InvalidTimeout(t *testing.T) {
	t.Setenv(EnvTimeout, "soon")
	cfg := New()
	cfg.ProjectPath = t.TempDir()
	if err := cfg.LoadEnv(); err == nil {
		t.Error("expected error for invalid timeout")
	}
}

func TestConfig_ApplyFlags(t *testing.T) {
	cfg := New()
	cfg.ApplyFlags(Flags{Processors: 8, Timeout: time.Second, Emulator: "qemu-system-aarch64"})
	if cfg.Processors != 8 || cfg.Timeout != time.Second || cfg.Emulator != "qemu-system-aarch64" {
		t.Errorf("flags not applied: %+v", cfg)
	}

	cfg.ApplyFlags(Flags{Host: true})
	if !cfg.HostMode() {
		t.Error("expected host mode")
	}
	if cfg.Processors != 8 {
		t.Errorf("zero flags must keep settings, got %d processors", cfg.Processors)
	}
}

func TestConfig_Paths(t *testing.T) {
	cfg := New()
	cfg.ProjectPath = "/project"

	if got := cfg.GetLogPath("/project/build/mm.ktest"); got != "/project/storage/logs/mm.log" {
		t.Errorf("expected /project/storage/logs/mm.log, got %s", got)
	}
	if got := cfg.GetInitrdPath("/project/build/mm.ktest"); got != "/project/storage/initrd/mm.cpio" {
		t.Errorf("expected /project/storage/initrd/mm.cpio, got %s", got)
	}
	if got := cfg.GetKernelPath(); got != "" {
		t.Errorf("expected no kernel, got %s", got)
	}
	cfg.Kernel = "/boot/vmlinuz"
	if got := cfg.GetKernelPath(); got != "/boot/vmlinuz" {
		t.Errorf("expected /boot/vmlinuz, got %s", got)
	}
	if got := cfg.GroupName("/project/build/mm.ktest"); got != "mm" {
		t.Errorf("expected group mm, got %s", got)
	}
	if got := cfg.GetOutputPath(); got != "/project/storage/test-results.json" {
		t.Errorf("expected /project/storage/test-results.json, got %s", got)
	}
}

func TestDatabase_DSN(t *testing.T) {
	db := Database{Host: "127.0.0.1", Port: "3306", Username: "root", Password: "secret", Name: "ktest_results"}

	withDB := db.DSN(true)
	if !strings.HasPrefix(withDB, "root:secret@tcp(127.0.0.1:3306)/ktest_results") {
		t.Errorf("unexpected DSN %s", withDB)
	}
	if !strings.Contains(withDB, "parseTime=true") {
		t.Errorf("expected parseTime in DSN %s", withDB)
	}

	server := db.DSN(false)
	if !strings.HasPrefix(server, "root:secret@tcp(127.0.0.1:3306)/?") {
		t.Errorf("unexpected server DSN %s", server)
	}
}
