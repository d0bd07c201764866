package utils

import (
	"context"
	"time"
)

// NewTicker calls f every interval until it returns true (result true) or ctx
// ends (result false). With immediate set f is also called once up front.
func NewTicker(ctx context.Context, interval time.Duration, f func() bool, immediate bool) bool {
	if immediate && f() {
		return true
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if f() {
				return true
			}
		}
	}
}
