package dashboard

import (
	"sort"
	"sync"
	"time"
)

// fakeClock fires timers only when the test advances it
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

// Advance moves time forward, running due timers in order. Callbacks run
// on the caller's goroutine without the clock lock held.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*fakeTimer
		var rest []*fakeTimer
		for _, t := range c.timers {
			switch {
			case t.stopped:
			case !t.at.After(target):
				due = append(due, t)
			default:
				rest = append(rest, t)
			}
		}
		if len(due) == 0 {
			c.timers = rest
			c.now = target
			c.mu.Unlock()
			return
		}

		sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
		next := due[0]
		next.stopped = true
		c.now = next.at
		c.timers = append(rest, due[1:]...)
		c.mu.Unlock()

		next.f()
	}
}

// pending counts timers that have not fired or been stopped
func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}
