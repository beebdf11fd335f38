// Package clock abstracts "now" so aging analytics and rate-limit windows
// are testable against a controlled reference time.
package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies the current UTC time.
type Clock interface {
	Now() time.Time
}

// Module provides the system clock.
var Module = fx.Provide(NewSystemClock)

type systemClock struct{}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
