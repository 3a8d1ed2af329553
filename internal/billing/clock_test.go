package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateOf(t *testing.T) {
	now := time.Now()
	assert.Equal(t, ClockNotStarted, StateOf(nil, nil))
	assert.Equal(t, ClockRunning, StateOf(&now, nil))
	assert.Equal(t, ClockPaused, StateOf(&now, &now))
}

func TestClockStateString(t *testing.T) {
	assert.Equal(t, "NOT_STARTED", ClockNotStarted.String())
	assert.Equal(t, "RUNNING", ClockRunning.String())
	assert.Equal(t, "PAUSED", ClockPaused.String())
}
