//go:build !unix

package publish

import (
	"errors"
	"fmt"
	"os"
)

func makeFifo(path string, _ os.FileMode) error {
	return fmt.Errorf("mkfifo %s: %w", path, errors.ErrUnsupported)
}

func tryOpenWriter(path string) (*os.File, bool, error) {
	return nil, false, fmt.Errorf("open %s: %w", path, errors.ErrUnsupported)
}
