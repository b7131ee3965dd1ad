// ABOUTME: Injectable clock so cycle timestamps are controllable in tests
// ABOUTME: SystemClock is the wall-clock default used outside tests

package cycle

import "time"

// Clock supplies record timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall-clock default.
var SystemClock Clock = systemClock{}
