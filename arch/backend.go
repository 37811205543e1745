// Package arch provides the per-architecture primitives the harness is built
// on: a cycle counter, a raw diagnostic byte channel and machine shutdown.
//
// A backend is selected by Select: by name, or the build's native one. None of the operations
// report errors; a failure of the underlying hardware is unrecoverable and may
// hang or reset the machine.
package arch

import (
	"fmt"
	"io"
	"time"
)

// ExitCode is the status written to the emulator's exit device.
type ExitCode uint32

const (
	// ExitSuccess signals that the run completed.
	ExitSuccess ExitCode = 0x10
	// ExitFailed signals a failed run.
	ExitFailed ExitCode = 0x11
)

func (c ExitCode) String() string {
	switch c {
	case ExitSuccess:
		return "success"
	case ExitFailed:
		return "failed"
	default:
		return fmt.Sprintf("exit(%#x)", uint32(c))
	}
}

// QEMUStatus returns the process status QEMU reports for c when the guest
// writes it to an isa-debug-exit device.
func (c ExitCode) QEMUStatus() int {
	return int(c)<<1 | 1
}

// Backend is implemented once per supported architecture.
type Backend interface {
	// Exit terminates the machine with the given status. Hardware backends
	// never return from Exit.
	Exit(code ExitCode)
	// ReadCycle returns a monotonically non-decreasing cycle counter, only
	// meaningful for relative measurements.
	ReadCycle() uint64
	// DebugWrite writes raw bytes to the diagnostic channel, blocking until
	// every byte is accepted.
	DebugWrite(b []byte)
}

// Backend names accepted by Select.
const (
	BackendHost    = "host"
	BackendX86_64  = "x86_64"
	BackendAArch64 = "aarch64"
)

// Options holds the backend choice and device locations for the hardware
// backends.
type Options struct {
	// Backend names the backend. Empty selects the build's native one.
	Backend string
	// PortDevice is the I/O port device used on x86_64.
	PortDevice string
	// SerialDevice is the PL011 serial device used on aarch64.
	SerialDevice string
	// Output receives the debug stream of the host backend.
	Output io.Writer
}

// Select returns the backend named by opts.Backend, or the native backend of
// the build when no name is given. It always returns a usable backend: when
// the chosen one cannot be opened it returns a Host backend together with an
// error saying why.
func Select(opts Options) (Backend, error) {
	name := opts.Backend
	if name == "" {
		name = nativeBackend
	}
	switch name {
	case BackendHost:
		return NewHost(opts.Output), nil
	case BackendX86_64, BackendAArch64:
	default:
		return NewHost(opts.Output), fmt.Errorf("unknown backend %q", name)
	}
	b, err := openHardware(name, opts)
	if err != nil {
		return NewHost(opts.Output), fmt.Errorf("backend %s unavailable, using host: %w", name, err)
	}
	return b, nil
}

// Halt parks the calling goroutine forever. It is the fallback after an Exit
// that did not take effect.
func Halt() {
	// A pending timer keeps the runtime from reporting a deadlock.
	for {
		time.Sleep(time.Hour)
	}
}
