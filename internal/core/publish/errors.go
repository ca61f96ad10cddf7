package publish

import (
	"context"
	"errors"
)

var (
	// ErrDirUnavailable means the pipe directory is missing or not a directory.
	ErrDirUnavailable = errors.New("pipe directory unavailable")
	// ErrPermission means the pipe could not be created for lack of permission.
	ErrPermission = errors.New("permission denied creating pipe")
	// ErrOpenTimeout means no reader opened the pipe within Config.OpenTimeout.
	ErrOpenTimeout = errors.New("no reader before open timeout")

	ErrInvalidConfig  = errors.New("invalid publisher configuration")
	ErrAlreadyRunning = errors.New("publisher is already running")
	ErrNotRunning     = errors.New("publisher is not running")
)

// Class tells the loop whether to keep going after an error.
type Class int

const (
	// ClassTransient errors are logged and the next cycle is attempted after a backoff.
	ClassTransient Class = iota
	// ClassFatal errors end publishing for the life of the process.
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Classify sorts a cycle error into transient or fatal.
func Classify(err error) Class {
	if IsFatal(err) {
		return ClassFatal
	}
	return ClassTransient
}

// IsFatal reports errors after which publishing stops.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrDirUnavailable) ||
		errors.Is(err, ErrPermission) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, errors.ErrUnsupported)
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
