package schedule

import (
	"math/rand"
	"time"
)

// NextActionDelay computes the randomized wait before an account's next
// scheduled action: baseMinutes converted to seconds plus a uniform random
// integer in [scale1, scale2] seconds. Swapped bounds are tolerated rather
// than rejected, and the delay is floored at one second so the resulting
// timestamp is always strictly in the future.
func NextActionDelay(baseMinutes, scale1, scale2 int, r *rand.Rand) time.Duration {
	if scale1 > scale2 {
		scale1, scale2 = scale2, scale1
	}
	if scale1 < 0 {
		scale1 = 0
	}
	if scale2 < scale1 {
		scale2 = scale1
	}
	if baseMinutes < 0 {
		baseMinutes = 0
	}

	jitter := 0
	if span := scale2 - scale1 + 1; span > 0 {
		jitter = scale1 + r.Intn(span)
	}

	seconds := baseMinutes*60 + jitter
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds) * time.Second
}

// NextAction returns the timestamp of the next scheduled action relative
// to now
func NextAction(now time.Time, baseMinutes, scale1, scale2 int, r *rand.Rand) time.Time {
	return now.Add(NextActionDelay(baseMinutes, scale1, scale2, r))
}
