//go:build linux && amd64 && !ktest_host

package arch

import "fmt"

const nativeBackend = BackendX86_64

func openHardware(name string, opts Options) (Backend, error) {
	if name != BackendX86_64 {
		return nil, fmt.Errorf("backend %s is not available on amd64", name)
	}
	if err := mountDevices(); err != nil {
		return nil, err
	}
	return NewX86_64(opts.PortDevice)
}
