package query

import (
	"sync"
	"time"
)

// closer runs fire once after delay. Scheduling again before it fires
// restarts the delay, so a burst of statements ends in a single close.
type closer struct {
	delay time.Duration
	fire  func()

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func newCloser(delay time.Duration, fire func()) *closer {
	return &closer{delay: delay, fire: fire}
}

func (c *closer) schedule() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.delay, func() { c.run(gen) })
}

// cancel drops a pending close, if any. A close already firing completes
// before cancel returns.
func (c *closer) cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *closer) pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

// run fires while holding mu, so a cancel racing with it returns only once
// the close is done. fire must not call back into the closer.
func (c *closer) run(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// superseded by a later schedule or cancel
		return
	}
	c.timer = nil
	c.fire()
}
