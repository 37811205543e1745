package config

import "time"

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultImagePath is the default directory scanned for test images
	DefaultImagePath = "."
	// DefaultImageSuffix marks a file as a test image
	DefaultImageSuffix = ".ktest"
	// DefaultOutputJSONFile is the default output JSON file name
	DefaultOutputJSONFile = "test-results.json"
	// DefaultOutputJSONDir is the default output directory
	DefaultOutputJSONDir = "storage"
	// DefaultLogDir holds the captured stream of every image, under the output directory
	DefaultLogDir = "logs"
	// DefaultInitrdDir holds the initramfs built around every image, under the output directory
	DefaultInitrdDir = "initrd"
	// DefaultProcessors is the default number of emulators run at once
	DefaultProcessors = 4
	// DefaultTimeout bounds a single image run
	DefaultTimeout = 2 * time.Minute
	// DefaultEmulator boots x86_64 images
	DefaultEmulator = "qemu-system-x86_64"
	// DefaultDatabaseName is the results database
	DefaultDatabaseName = "ktest_results"
)

// DefaultEmulatorArgs boot the configured Linux kernel with an initramfs
// whose /init is the image, the debug console captured to a file and the
// isa-debug-exit device wired to port 0xf4. {kernel}, {initrd}, {log} and
// {env} are replaced per run; {image} names the image itself. The kernel
// hands the KEY=VALUE words of {env} to /init as its environment.
var DefaultEmulatorArgs = []string{
	"-nographic",
	"-no-reboot",
	"-m", "256M",
	"-device", "isa-debug-exit,iobase=0xf4,iosize=0x04",
	"-debugcon", "file:{log}",
	"-kernel", "{kernel}",
	"-initrd", "{initrd}",
	"-append", "console=ttyS0 rdinit=/init panic=-1 quiet KTEST_BACKEND=x86_64 {env}",
}

// DefaultPathsToIgnore are the default directories to ignore when scanning for images
var DefaultPathsToIgnore = []string{
	"vendor",
	"node_modules",
	"storage",
	"testdata",
}
