package crdt

// Clock is a Lamport logical clock owned by a single editing session.
// It is deliberately a plain value threaded through callers rather than
// process-global state, so independent sessions and tests stay isolated.
// Not safe for concurrent use; the owning session serializes access.
type Clock struct {
	counter int64
}

// NewClock creates a clock starting at zero.
func NewClock() *Clock {
	return &Clock{}
}

// Next increments the clock and returns the new timestamp.
// Called once per locally created operation.
func (c *Clock) Next() int64 {
	c.counter++

	return c.counter
}

// Observe absorbs a timestamp seen on a remote operation:
// the counter becomes max(counter, t) + 1. Returns the new counter.
func (c *Clock) Observe(t int64) int64 {
	if t > c.counter {
		c.counter = t
	}

	c.counter++

	return c.counter
}

// Current returns the counter without advancing it.
func (c *Clock) Current() int64 {
	return c.counter
}

// Set seeds the counter, e.g. from a persisted snapshot on load.
func (c *Clock) Set(v int64) {
	c.counter = v
}
