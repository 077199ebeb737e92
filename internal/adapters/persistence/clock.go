package persistence

import (
	"time"

	"github.com/nursix/gims/internal/ports/secondary"
)

// SystemClock returns the wall clock time in UTC.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

var _ secondary.Clock = SystemClock{}
