package sender

import (
	"math/rand"
	"time"
)

// backoffShiftCap truncates the exponential growth of the contention
// window, as in classical truncated binary exponential backoff.
const backoffShiftCap = 10

// backoffSlots draws the number of slot durations to wait after a failed
// attempt: uniform over [0, 2^min(attempt, 10) - 1].
func backoffSlots(rng *rand.Rand, attempt int) int {
	shift := attempt
	if shift > backoffShiftCap {
		shift = backoffShiftCap
	}
	return rng.Intn(1 << shift)
}

// backoffDelay converts the drawn slot count into a wait duration.
func backoffDelay(rng *rand.Rand, attempt int, slot time.Duration) time.Duration {
	return time.Duration(backoffSlots(rng, attempt)) * slot
}
