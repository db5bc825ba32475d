package timex

import "time"

// Clock returns the current instant. Services take one so expiry can be
// tested at exact boundaries.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}
