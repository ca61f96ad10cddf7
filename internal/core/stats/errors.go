package stats

import (
	"errors"
	"fmt"
)

var (
	ErrCapacityExceeded = errors.New("registry capacity exceeded")
	ErrKindMismatch     = errors.New("counter kind mismatch")
	ErrInvalidKind      = errors.New("invalid counter kind")
	ErrMalformedLine    = errors.New("malformed snapshot line")
)

// KindError reports a mutation whose value kind does not match the counter.
type KindError struct {
	Name string
	Want Kind
	Got  Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("counter %q is %s, got %s value", e.Name, e.Want, e.Got)
}

// Is lets errors.Is(err, ErrKindMismatch) match a *KindError.
func (e *KindError) Is(target error) bool {
	return target == ErrKindMismatch
}
