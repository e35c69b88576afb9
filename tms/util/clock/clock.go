// Package clock provides a mock for time package.
package clock

import (
	"time"
)

type C interface {
	Now() time.Time
}

type Real struct{}

func (c *Real) Now() time.Time {
	return time.Now()
}

// Mock is a clock stopped at a fixed instant.
type Mock struct {
	now time.Time
}

func NewMock(now time.Time) *Mock {
	return &Mock{now: now}
}

func (c *Mock) Now() time.Time {
	return c.now
}
