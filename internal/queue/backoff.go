package queue

import (
	"math"
	"time"
)

// RetryDelay computes the exponential backoff delay for a job that has now
// failed `attempts` times: base^attempts seconds. For base > 1 the delay is
// strictly increasing in the attempt count, so retry spacing always grows.
func RetryDelay(base float64, attempts int) time.Duration {
	seconds := math.Pow(base, float64(attempts))
	return time.Duration(seconds * float64(time.Second))
}

// NextRunAt returns the instant a freshly failed job becomes claimable
// again. The base is whatever the settings store held at scheduling time;
// already-scheduled jobs keep their next_run_at when the base changes.
func NextRunAt(now time.Time, base float64, attempts int) time.Time {
	return now.Add(RetryDelay(base, attempts))
}
