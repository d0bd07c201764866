package sleeper

import (
	"math/rand/v2"
	"time"

	"github.com/Barabama/WoWsBot/internal/pkg/stopflag"
)

// Granularity is the longest uninterrupted wait; a stop request is observed within it.
const Granularity = 50 * time.Millisecond

// Sleep waits for d, waking every Granularity to poll the flag.
func Sleep(flag *stopflag.Flag, d time.Duration) error {
	deadline := time.Now().Add(d)
	for {
		if err := flag.Check(); err != nil {
			return err
		}
		left := time.Until(deadline)
		if left <= 0 {
			return nil
		}
		time.Sleep(min(left, Granularity))
	}
}

// SleepRandom waits for a uniformly random duration in [lo, hi].
func SleepRandom(flag *stopflag.Flag, rng *rand.Rand, lo, hi time.Duration) error {
	return Sleep(flag, Between(rng, lo, hi))
}

func Between(rng *rand.Rand, lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rng.Int64N(int64(hi-lo)+1))
}
