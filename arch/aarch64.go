//go:build linux && arm64

package arch

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// DefaultSerialDevice is the first PL011 UART of QEMU's virt machine.
const DefaultSerialDevice = "/dev/ttyAMA0"

// AArch64 writes the debug stream to the PL011 serial port and shuts the
// machine down through the kernel's power-off path, which issues PSCI
// SYSTEM_OFF. The exit code is not transmitted on this architecture.
type AArch64 struct {
	f *os.File
}

// NewAArch64 opens the serial device for blocking writes.
func NewAArch64(device string) (*AArch64, error) {
	if device == "" {
		device = DefaultSerialDevice
	}
	f, err := os.OpenFile(device, os.O_WRONLY|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	return &AArch64{f: f}, nil
}

func (b *AArch64) Exit(code ExitCode) {
	_ = code
	unix.Sync()
	_ = unix.Reboot(unix.LINUX_REBOOT_CMD_POWER_OFF)
	Halt()
}

func (b *AArch64) ReadCycle() uint64 {
	return cntvct()
}

func (b *AArch64) DebugWrite(p []byte) {
	_, _ = b.f.Write(p)
}
