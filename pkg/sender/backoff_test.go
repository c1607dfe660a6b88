package sender

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffSlotsStayInContentionWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for attempt := 1; attempt <= 20; attempt++ {
		bound := 1 << attempt
		if attempt > backoffShiftCap {
			bound = 1 << backoffShiftCap
		}
		for i := 0; i < 200; i++ {
			s := backoffSlots(rng, attempt)
			require.GreaterOrEqual(t, s, 0, "attempt %d", attempt)
			require.Less(t, s, bound, "attempt %d", attempt)
		}
	}
}

func TestBackoffIsDeterministicUnderFixedSeed(t *testing.T) {
	a := rand.New(rand.NewSource(1234))
	b := rand.New(rand.NewSource(1234))
	for attempt := 1; attempt <= 12; attempt++ {
		require.Equal(t, backoffSlots(a, attempt), backoffSlots(b, attempt))
	}
}

func TestBackoffDelayScalesWithSlot(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	slot := 50 * time.Millisecond
	for attempt := 1; attempt <= 12; attempt++ {
		d := backoffDelay(rng, attempt, slot)
		require.Zero(t, d%slot)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, time.Duration(1<<backoffShiftCap-1)*slot)
	}
}
