package app

import "time"

// Clock returns the current time in milliseconds since epoch.
type Clock func() int64

// SystemClock reads the wall clock.
func SystemClock() int64 {
	return time.Now().UnixMilli()
}

// FixedClock always returns ms. Useful for deterministic timestamps in tests.
func FixedClock(ms int64) Clock {
	return func() int64 { return ms }
}
