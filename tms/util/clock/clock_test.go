package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var c C = NewMock(start)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, c.Now(), c.Now(), "a mock clock does not move")
}

func TestReal(t *testing.T) {
	var c C = &Real{}
	assert.WithinDuration(t, time.Now(), c.Now(), time.Second)
}
