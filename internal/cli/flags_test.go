package cli

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ktest/internal/config"
)

func TestFlags_ToConfigFlags(t *testing.T) {
	flags := Flags{
		Processors: 8,
		Timeout:    30 * time.Second,
		Emulator:   "qemu-system-aarch64",
		Kernel:     "build/Image",
		ImagePath:  "build",
		NameFilter: "*mm*",
		TestCases:  true,
		FailFast:   true,
		OnlyFailed: true,
		OpenFaills: true,
		MySQL:      true,
		Host:       true,
		StrictExit: true,
		Fresh:      true,
		Verbose:    true,
	}

	want := config.Flags{
		Processors: 8,
		Timeout:    30 * time.Second,
		Emulator:   "qemu-system-aarch64",
		Kernel:     "build/Image",
		ImagePath:  "build",
		NameFilter: "*mm*",
		TestCases:  true,
		FailFast:   true,
		OnlyFailed: true,
		OpenFaills: true,
		MySQL:      true,
		Host:       true,
		StrictExit: true,
		Fresh:      true,
		Verbose:    true,
	}

	if diff := cmp.Diff(want, flags.ToConfigFlags()); diff != "" {
		t.Errorf("ToConfigFlags() mismatch (-want +got):\n%s", diff)
	}
}
