// Command ktest-example is a sample test image. It runs as the init process
// of a minimal Linux guest: ktest packs the image into an initramfs as /init
// next to an empty /dev, boots the configured kernel with it and passes the
// harness settings (KTEST_BACKEND, KTEST_GROUP) on the kernel command line,
// which the kernel hands to /init as its environment. The image mounts
// devtmpfs, writes its stream to the debugcon port and exits through
// isa-debug-exit.
//
// Build it statically for the guest architecture and run it with a kernel
// that has CONFIG_DEVTMPFS and CONFIG_BLK_DEV_INITRD:
//
//	CGO_ENABLED=0 GOOS=linux GOARCH=amd64 go build -o build/example.ktest ./cmd/ktest-example
//	KTEST_KERNEL=/boot/vmlinuz ktest run -t build
//
// Group names reach the guest through the kernel command line, so image
// names must not contain spaces. Build with -tags ktest_host, or run
// ktest run --host, to run the same tests on the development host.
package main

import (
	"errors"
	"sort"

	"ktest/harness"
)

func init() {
	harness.AddTest(&harness.Test{Func: TestSortInts})
	harness.AddTest(&harness.Test{Func: TestBitmapAlloc})
	harness.AddTest(&harness.Test{FuncErr: TestBitmapExhausted})
	harness.AddTest(&harness.Test{Func: TestDivideByZero, Expect: harness.ExpectFault})
	harness.AddTest(&harness.Test{Func: TestSlowBoot, Mode: harness.Skip})
}

func main() {
	harness.MainRegistered("example", harness.Hooks{})
}

func TestSortInts() {
	s := []int{5, 2, 9, 1}
	sort.Ints(s)
	harness.Assert(sort.IntsAreSorted(s), "slice not sorted")
	harness.Equal(s[0], 1)
}

// bitmap is a toy frame allocator.
type bitmap struct {
	used []bool
}

var errNoFrames = errors.New("no free frames")

func (b *bitmap) alloc() (int, error) {
	for i, u := range b.used {
		if !u {
			b.used[i] = true
			return i, nil
		}
	}
	return 0, errNoFrames
}

func TestBitmapAlloc() {
	b := &bitmap{used: make([]bool, 4)}
	for want := 0; want < 4; want++ {
		got, err := b.alloc()
		harness.NoError(err)
		harness.Equal(got, want)
	}
}

func TestBitmapExhausted() error {
	b := &bitmap{used: make([]bool, 1)}
	if _, err := b.alloc(); err != nil {
		return err
	}
	if _, err := b.alloc(); !errors.Is(err, errNoFrames) {
		return errors.New("allocation past the end succeeded")
	}
	return nil
}

func TestDivideByZero() {
	zero := 0
	_ = 1 / zero
}

func TestSlowBoot() {
	harness.Fail("not run")
}
