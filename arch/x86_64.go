//go:build linux && amd64

package arch

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	// DefaultPortDevice gives byte-granular access to the I/O port space.
	DefaultPortDevice = "/dev/port"

	debugconPort = 0xe9 // QEMU debugcon
	exitPort     = 0xf4 // QEMU isa-debug-exit
)

// X86_64 drives QEMU's debugcon and isa-debug-exit devices through the port
// device. The process needs CAP_SYS_RAWIO, which PID 1 of a test guest has.
type X86_64 struct {
	fd int
}

// NewX86_64 opens the port device.
func NewX86_64(device string) (*X86_64, error) {
	if device == "" {
		device = DefaultPortDevice
	}
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	return &X86_64{fd: fd}, nil
}

// Exit writes code to the exit port. The device stops the machine on the
// first byte, so Exit only returns to Halt if no such device is attached.
func (b *X86_64) Exit(code ExitCode) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(code))
	b.pwrite(buf[:], exitPort)
	Halt()
}

func (b *X86_64) ReadCycle() uint64 {
	return rdtsc()
}

func (b *X86_64) DebugWrite(p []byte) {
	for i := range p {
		b.pwrite(p[i:i+1], debugconPort)
	}
}

func (b *X86_64) pwrite(p []byte, port int64) {
	for {
		_, err := unix.Pwrite(b.fd, p, port)
		if err != unix.EINTR {
			return
		}
	}
}
