package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	for _, st := range AllStates {
		t.Run(string(st), func(t *testing.T) {
			parsed, err := ParseState(string(st))
			require.NoError(t, err)
			assert.Equal(t, st, parsed)
		})
	}

	t.Run("unknown state", func(t *testing.T) {
		_, err := ParseState("sleeping")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownState)
	})

	t.Run("empty state", func(t *testing.T) {
		_, err := ParseState("")
		require.Error(t, err)
	})
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    State
		to      State
		allowed bool
	}{
		{StatePending, StateProcessing, true},
		{StateProcessing, StateCompleted, true},
		{StateProcessing, StateFailed, true},
		{StateProcessing, StateDead, true},
		{StateFailed, StateProcessing, true},
		{StateDead, StatePending, true},

		{StatePending, StateCompleted, false},
		{StatePending, StateFailed, false},
		{StatePending, StateDead, false},
		{StateProcessing, StatePending, false},
		{StateCompleted, StateProcessing, false},
		{StateCompleted, StatePending, false},
		{StateFailed, StateDead, false},
		{StateFailed, StatePending, false},
		{StateDead, StateProcessing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+" to "+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))

			err := ValidateTransition(tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateDead.Terminal())
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateProcessing.Terminal())
	assert.False(t, StateFailed.Terminal())
}

func TestJobRunnableAt(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name     string
		job      Job
		runnable bool
	}{
		{
			name:     "pending is always runnable",
			job:      Job{State: StatePending, NextRunAt: now.Add(time.Hour)},
			runnable: true,
		},
		{
			name:     "failed with elapsed backoff",
			job:      Job{State: StateFailed, NextRunAt: now.Add(-time.Second)},
			runnable: true,
		},
		{
			name:     "failed with pending backoff",
			job:      Job{State: StateFailed, NextRunAt: now.Add(time.Minute)},
			runnable: false,
		},
		{
			name:     "processing is never runnable",
			job:      Job{State: StateProcessing},
			runnable: false,
		},
		{
			name:     "dead is never runnable",
			job:      Job{State: StateDead, NextRunAt: now.Add(-time.Hour)},
			runnable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.runnable, tt.job.RunnableAt(now))
		})
	}
}

func TestTruncateError(t *testing.T) {
	assert.Equal(t, "short", TruncateError("short"))

	long := strings.Repeat("x", MaxLastErrorLen+100)
	assert.Len(t, TruncateError(long), MaxLastErrorLen)
}
