package tick

import "time"

// Timer is the time source the Engine consumes. All values are seconds.
type Timer interface {
	Now() float64
	Elapsed() float64
	LastTimestamp() float64
}

// Clock reports monotonic seconds since its creation and remembers the
// timestamp of the last Elapsed query.
type Clock struct {
	origin   time.Time
	previous float64
}

func NewClock() *Clock {
	c := &Clock{origin: time.Now()}
	c.previous = c.Now()
	return c
}

// Now reads the monotonic component of time.Now, so wall clock changes
// never move it backwards.
func (c *Clock) Now() float64 {
	return time.Since(c.origin).Seconds()
}

// Elapsed returns the time since the previous call and moves the stored
// timestamp forward. Call it once per tick.
func (c *Clock) Elapsed() float64 {
	now := c.Now()
	elapsed := now - c.previous
	c.previous = now
	return elapsed
}

func (c *Clock) LastTimestamp() float64 {
	return c.previous
}
