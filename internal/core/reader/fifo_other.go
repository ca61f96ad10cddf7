//go:build !unix

package reader

import (
	"errors"
	"fmt"
	"os"
)

func openReader(path string) (*os.File, error) {
	return nil, fmt.Errorf("open %s: %w", path, errors.ErrUnsupported)
}

// processAlive is conservative where liveness cannot be checked.
func processAlive(int) bool { return true }
