package store

import "time"

// clock issues strictly increasing timestamps so that repeated mutations in
// the same instant still produce a monotonic updated_at sequence.
type clock struct {
	now  func() time.Time
	last time.Time
}

func (c *clock) next() time.Time {
	t := c.now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}

func (c *clock) stamp() string {
	return c.next().Format(time.RFC3339Nano)
}
