// Package filex prepares the directories the client keeps its cache in.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and parents) with owner-only permissions and returns
// its absolute path. A relative dir is resolved against the working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// CachePath returns the path of file name inside dir, creating dir first.
func CachePath(dir, name string) (string, error) {
	d, err := EnsureDir(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(d, name), nil
}
