//go:build linux && (amd64 || arm64) && !ktest_host

package arch

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mountDevices mounts devtmpfs on /dev when the image runs as the machine's
// init process from an initramfs, where the kernel leaves /dev empty.
func mountDevices() error {
	if os.Getpid() != 1 {
		return nil
	}
	if err := os.MkdirAll("/dev", 0755); err != nil {
		return fmt.Errorf("create /dev: %w", err)
	}
	if err := unix.Mount("devtmpfs", "/dev", "devtmpfs", 0, ""); err != nil && err != unix.EBUSY {
		return fmt.Errorf("mount devtmpfs: %w", err)
	}
	return nil
}
