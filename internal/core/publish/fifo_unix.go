//go:build unix

package publish

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// makeFifo creates the pipe, replacing a stale file left at path.
func makeFifo(path string, mode os.FileMode) error {
	err := unix.Mkfifo(path, uint32(mode.Perm()))
	if errors.Is(err, unix.EEXIST) {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return fmt.Errorf("remove stale pipe %s: %w", path, rmErr)
		}
		err = unix.Mkfifo(path, uint32(mode.Perm()))
	}
	return mkfifoError(path, err)
}

// mkfifoError maps a mkfifo failure onto the loop's error classes. Permission
// errors are fatal, everything else is retried.
func mkfifoError(path string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return fmt.Errorf("mkfifo %s: %w: %w", path, ErrPermission, err)
	default:
		return &os.PathError{Op: "mkfifo", Path: path, Err: err}
	}
}

// tryOpenWriter opens the write end without blocking. ok is false while no
// reader has the pipe open.
func tryOpenWriter(path string) (f *os.File, ok bool, err error) {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	switch {
	case err == nil:
		// fd stays non-blocking so os.File registers it with the poller and
		// write deadlines work
		return os.NewFile(uintptr(fd), path), true, nil
	case errors.Is(err, unix.ENXIO), errors.Is(err, unix.EINTR):
		return nil, false, nil
	default:
		return nil, false, &os.PathError{Op: "open", Path: path, Err: err}
	}
}
