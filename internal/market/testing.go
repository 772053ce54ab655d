package market

import "time"

// SetTestClock overrides the clock used to date demo comparables.
// This should only be used in tests.
func SetTestClock(c *Client, now func() time.Time) {
	c.now = now
}
