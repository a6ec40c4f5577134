package task

import "time"

// NextTimestampID derives an id from the clock in milliseconds.
// When that value is already taken (same millisecond, or a clock step back)
// the id is bumped past the largest existing id so ids stay unique and increasing.
func NextTimestampID(now time.Time, maxExisting int64) int64 {
	id := now.UnixMilli()
	if id <= maxExisting {
		id = maxExisting + 1
	}
	return id
}
