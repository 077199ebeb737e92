package primary

import (
	"errors"
	"fmt"
)

// ErrNotPermitted marks an operation rejected by a workflow guard.
var ErrNotPermitted = errors.New("not permitted")

// Denied wraps a guard failure so drivers can detect it with errors.Is.
func Denied(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrNotPermitted, err)
}
