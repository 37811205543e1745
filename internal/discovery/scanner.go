package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scanner scans for test images in a directory
type Scanner struct {
	skipDirs map[string]bool
	suffix   string
}

// NewScanner creates a new Scanner for images ending in suffix, with the
// given directories to skip
func NewScanner(skipDirs []string, suffix string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{skipDirs: skipMap, suffix: suffix}
}

// Scan finds all test images in the given root directory, in lexical order
func (s *Scanner) Scan(root string) ([]string, error) {
	var images []string

	// Clean and validate the root path
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("image path does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("image path is not a directory: %s", root)
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			name := d.Name()
			// Skip hidden directories (starting with .)
			if strings.HasPrefix(name, ".") && name != "." && name != ".." {
				return filepath.SkipDir
			}

			if s.skipDirs[name] {
				return filepath.SkipDir
			}

			return nil
		}

		if strings.HasSuffix(d.Name(), s.suffix) && d.Type().IsRegular() {
			images = append(images, path)
		}

		return nil
	})

	return images, err
}
