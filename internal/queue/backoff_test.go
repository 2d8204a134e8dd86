package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		name     string
		base     float64
		attempts int
		want     time.Duration
	}{
		{name: "base 2 first failure", base: 2, attempts: 1, want: 2 * time.Second},
		{name: "base 2 second failure", base: 2, attempts: 2, want: 4 * time.Second},
		{name: "base 2 third failure", base: 2, attempts: 3, want: 8 * time.Second},
		{name: "base 3 second failure", base: 3, attempts: 2, want: 9 * time.Second},
		{name: "zero attempts", base: 2, attempts: 0, want: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RetryDelay(tt.base, tt.attempts))
		})
	}
}

func TestRetryDelay_StrictlyIncreasing(t *testing.T) {
	for _, base := range []float64{1.5, 2, 4, 10} {
		prev := RetryDelay(base, 0)
		for attempts := 1; attempts <= 8; attempts++ {
			cur := RetryDelay(base, attempts)
			assert.Greater(t, cur, prev, "base %v attempts %d", base, attempts)
			prev = cur
		}
	}
}

func TestNextRunAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := NextRunAt(now, 2, 1)
	second := NextRunAt(now, 2, 2)

	assert.Equal(t, now.Add(2*time.Second), first)
	assert.Equal(t, now.Add(4*time.Second), second)
	assert.True(t, second.After(first))
}
