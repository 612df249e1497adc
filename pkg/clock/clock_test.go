package clock_test

import (
	"testing"
	"time"

	"linkcycle/pkg/clock"

	"github.com/stretchr/testify/assert"
)

func TestReal_TracksSystemTime(t *testing.T) {
	before := time.Now().UTC()
	now := clock.Real{}.Now()
	after := time.Now().UTC()

	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}

func TestMock_AdvanceAndSet(t *testing.T) {
	start := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMock(start)

	assert.Equal(t, start, clk.Now())
	assert.Equal(t, start, clk.Now(), "stable between calls")

	clk.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), clk.Now())

	later := time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)
	clk.Set(later)
	assert.Equal(t, later, clk.Now())
}
