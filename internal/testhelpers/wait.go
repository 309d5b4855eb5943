package testhelpers

import "time"

// Polling bounds for assert.EventuallyWithT against eventually consistent
// backends.
const (
	EventuallyWait = 2 * time.Second
	EventuallyTick = 50 * time.Millisecond
)
