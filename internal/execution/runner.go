package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"ktest/arch"
	"ktest/harness"
	"ktest/internal/config"
	"ktest/internal/domain"
)

// Argument placeholders replaced per run
const (
	imagePlaceholder  = "{image}"
	logPlaceholder    = "{log}"
	kernelPlaceholder = "{kernel}"
	initrdPlaceholder = "{initrd}"
	envPlaceholder    = "{env}"
)

// waitDelay bounds how long output is drained after the process is killed
const waitDelay = 2 * time.Second

// Runner boots a single test image, under the emulator or directly on the
// host, and captures its structured stream
type Runner struct {
	config *config.Config
	log    *zap.Logger
}

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config, log *zap.Logger) *Runner {
	return &Runner{config: cfg, log: log}
}

// Run boots one image and waits for it to exit or time out
func (r *Runner) Run(ctx context.Context, imagePath string, workerID int) domain.ImageResult {
	start := time.Now()
	result := domain.ImageResult{ImagePath: imagePath}

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	logPath := r.config.GetLogPath(imagePath)
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		result.Error = fmt.Errorf("create log dir: %w", err)
		return result
	}
	// The emulator appends to the debug console file; start from empty.
	if err := os.WriteFile(logPath, nil, 0644); err != nil {
		result.Error = fmt.Errorf("create log file: %w", err)
		return result
	}

	cmd, streamFromLog, err := r.command(ctx, imagePath, logPath)
	if err != nil {
		result.Error = err
		return result
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	r.log.Debug("Booting image",
		zap.String("image", imagePath),
		zap.Int("worker", workerID),
		zap.Strings("args", cmd.Args))

	err = cmd.Run()
	result.Duration = time.Since(start)

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		result.ExitStatus = -1
	case errors.As(err, &exitErr):
		result.ExitStatus = exitErr.ExitCode()
	case err != nil:
		result.Error = fmt.Errorf("boot %s: %w", imagePath, err)
	}
	result.CleanExit = !result.TimedOut && result.Error == nil && r.cleanExit(result.ExitStatus)

	if streamFromLog {
		data, err := os.ReadFile(logPath)
		if err != nil && result.Error == nil {
			result.Error = fmt.Errorf("read debug console: %w", err)
		}
		result.Output = string(data)
	} else {
		result.Output = stdout.String()
		if err := os.WriteFile(logPath, stdout.Bytes(), 0644); err != nil {
			r.log.Warn("Failed to save stream", zap.String("path", logPath), zap.Error(err))
		}
	}

	if stderr.Len() > 0 {
		r.log.Debug("Image diagnostics", zap.String("image", imagePath), zap.String("stderr", lastLines(&stderr, 20)))
	}
	r.log.Debug("Image finished",
		zap.String("image", imagePath),
		zap.Int("status", result.ExitStatus),
		zap.Bool("timed_out", result.TimedOut),
		zap.Duration("duration", result.Duration))

	return result
}

// command builds the process for one image. It reports whether the stream
// is written to the log file (debug console) rather than to stdout.
func (r *Runner) command(ctx context.Context, imagePath, logPath string) (*exec.Cmd, bool, error) {
	if r.config.HostMode() {
		cmd := exec.CommandContext(ctx, imagePath)
		cmd.Env = append(os.Environ(), harness.EnvBackend+"="+arch.BackendHost)
		cmd.Env = append(cmd.Env, r.imageEnv(imagePath)...)
		return cmd, false, nil
	}

	vars := map[string]string{
		imagePlaceholder: imagePath,
		logPlaceholder:   logPath,
		envPlaceholder:   strings.Join(r.imageEnv(imagePath), " "),
	}
	if usesPlaceholder(r.config.EmulatorArgs, kernelPlaceholder) {
		kernel := r.config.GetKernelPath()
		if kernel == "" {
			return nil, false, fmt.Errorf("no kernel configured, set %s or --kernel", config.EnvKernel)
		}
		vars[kernelPlaceholder] = kernel
	}
	if usesPlaceholder(r.config.EmulatorArgs, initrdPlaceholder) {
		initrd := r.config.GetInitrdPath(imagePath)
		if err := BuildInitramfs(initrd, imagePath); err != nil {
			return nil, false, err
		}
		vars[initrdPlaceholder] = initrd
	}

	args := ExpandArgs(r.config.EmulatorArgs, vars)
	cmd := exec.CommandContext(ctx, r.config.Emulator, args...)
	cmd.Dir = r.config.ProjectPath
	return cmd, usesPlaceholder(r.config.EmulatorArgs, logPlaceholder), nil
}

// imageEnv returns the harness settings for image as KEY=VALUE pairs
func (r *Runner) imageEnv(imagePath string) []string {
	env := []string{harness.EnvGroup + "=" + r.config.GroupName(imagePath)}
	if r.config.Flags.StrictExit {
		env = append(env, harness.EnvStrictExit+"=1")
	}
	return env
}

func usesPlaceholder(args []string, placeholder string) bool {
	for _, a := range args {
		if strings.Contains(a, placeholder) {
			return true
		}
	}
	return false
}

// cleanExit reports whether status says the harness completed its run
func (r *Runner) cleanExit(status int) bool {
	if r.config.HostMode() {
		return status == 0
	}
	// QEMU reports isa-debug-exit writes as (code<<1)|1. A power-off
	// (aarch64) carries no code and exits 0.
	return status == arch.ExitSuccess.QEMUStatus() || status == 0
}

// ExpandArgs replaces the placeholders in args with their values in vars.
// Placeholders without a value are left as they are.
func ExpandArgs(args []string, vars map[string]string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		for placeholder, value := range vars {
			a = strings.ReplaceAll(a, placeholder, value)
		}
		out[i] = a
	}
	return out
}

// lastLines returns at most n trailing lines of r
func lastLines(r io.Reader, n int) string {
	data, _ := io.ReadAll(r)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
