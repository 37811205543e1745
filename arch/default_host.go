//go:build ktest_host || !linux || !(amd64 || arm64)

package arch

import "fmt"

const nativeBackend = BackendHost

func openHardware(name string, opts Options) (Backend, error) {
	return nil, fmt.Errorf("backend %s is not built in, rebuild without the ktest_host tag", name)
}
