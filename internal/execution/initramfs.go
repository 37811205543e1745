package execution

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cavaliergopher/cpio"
)

// cpio mode bits of the initramfs entries
const (
	modeDir  = 0o040755
	modeInit = 0o100755
)

// BuildInitramfs writes a newc archive to dst holding image as /init and an
// empty /dev, where the image mounts devtmpfs when it starts.
func BuildInitramfs(dst, image string) error {
	data, err := os.ReadFile(image)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create initrd dir: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create initrd: %w", err)
	}
	defer f.Close()

	w := cpio.NewWriter(f)
	if err := w.WriteHeader(&cpio.Header{Name: "dev", Mode: modeDir}); err != nil {
		return fmt.Errorf("write initrd: %w", err)
	}
	if err := w.WriteHeader(&cpio.Header{Name: "init", Mode: modeInit, Size: int64(len(data))}); err != nil {
		return fmt.Errorf("write initrd: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write initrd: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write initrd: %w", err)
	}
	return f.Close()
}
