package testutil

import (
	"testing"
	"time"
)

// WaitFor polls cond every 5ms until it holds or timeout elapses.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %v waiting for %s", timeout, msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Epoch is the fixed start time used by fake clocks in tests.
var Epoch = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
