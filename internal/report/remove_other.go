//go:build !windows

package report

import (
	"errors"
	"os"
)

// removeFile removes path if possible.
func removeFile(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
