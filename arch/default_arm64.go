//go:build linux && arm64 && !ktest_host

package arch

import "fmt"

const nativeBackend = BackendAArch64

func openHardware(name string, opts Options) (Backend, error) {
	if name != BackendAArch64 {
		return nil, fmt.Errorf("backend %s is not available on arm64", name)
	}
	if err := mountDevices(); err != nil {
		return nil, err
	}
	return NewAArch64(opts.SerialDevice)
}
