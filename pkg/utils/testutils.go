package utils

import (
	"time"
)

// WaitForCondition polls condition every interval until it returns true or
// timeout elapses. A non-positive timeout checks the condition exactly once.
// Returns whether the condition was eventually met.
func WaitForCondition(timeout, interval time.Duration, condition func() bool) bool {
	if timeout <= 0 {
		return condition()
	}

	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}

	// Final check after timeout
	return condition()
}
