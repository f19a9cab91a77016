package coordinator

import (
	"sync"
	"time"

	"go.trai.ch/stencil/internal/core/domain"
)

// Collector coalesces events arriving within a quiescence window into one batch.
// Every event restarts the window. While paused, events are queued without arming
// the window; resuming dispatches everything queued as a single batch. At most one
// batch is dispatched at a time; events arriving meanwhile wait for the next one.
type Collector struct {
	mu       sync.Mutex
	idle     *sync.Cond
	pending  []domain.Event
	timer    *time.Timer
	armed    uint64
	window   time.Duration
	paused   bool
	running  bool
	callback func(events []domain.Event)
}

// NewCollector creates a collector dispatching batches to callback.
func NewCollector(window time.Duration, callback func(events []domain.Event)) *Collector {
	c := &Collector{
		window:   window,
		callback: callback,
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// Add queues an event and restarts the window. IndexingEvents toggle the pause
// instead of being queued.
func (c *Collector) Add(ev domain.Event) {
	if ie, ok := ev.(domain.IndexingEvent); ok {
		if ie.Paused {
			c.Pause()
		} else {
			c.Resume()
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = append(c.pending, ev)
	if c.paused || c.running {
		return
	}
	c.arm()
}

// Pause stops dispatching. Queued and new events are kept.
func (c *Collector) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.paused = true
	c.disarm()
}

// Resume re-enables dispatching and immediately dispatches everything queued
// while paused as one batch.
func (c *Collector) Resume() {
	c.mu.Lock()
	if !c.paused {
		c.mu.Unlock()
		return
	}
	c.paused = false
	if c.running || len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	events := c.take()
	c.running = true
	c.mu.Unlock()

	go c.dispatch(c.callback, events)
}

// Paused reports whether dispatching is paused.
func (c *Collector) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Pending reports whether events are waiting for a batch.
func (c *Collector) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}

// SetWindow changes the quiescence window for subsequent events.
func (c *Collector) SetWindow(window time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = window
}

// Flush waits for a running batch, then dispatches everything pending
// synchronously, ignoring the pause. It is used on shutdown and in tests.
func (c *Collector) Flush() {
	c.FlushWith(c.callback, false)
}

// FlushWith is Flush with a different callback. When force is set fn runs even
// with nothing pending.
func (c *Collector) FlushWith(fn func(events []domain.Event), force bool) {
	c.mu.Lock()
	for c.running {
		c.idle.Wait()
	}
	c.disarm()
	if len(c.pending) == 0 && !force {
		c.mu.Unlock()
		return
	}
	events := c.take()
	c.running = true
	c.mu.Unlock()

	c.dispatch(fn, events)
}

// Stop cancels the window. Pending events are dropped.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disarm()
	c.pending = nil
}

func (c *Collector) arm() {
	c.disarm()
	c.armed++
	armed := c.armed
	c.timer = time.AfterFunc(c.window, func() { c.fire(armed) })
}

func (c *Collector) disarm() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.armed++
}

// fire is called when the window expires. Timers superseded by a later arm are ignored.
func (c *Collector) fire(armed uint64) {
	c.mu.Lock()
	if armed != c.armed {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	if c.paused || c.running || len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	events := c.take()
	c.running = true
	c.mu.Unlock()

	c.dispatch(c.callback, events)
}

// dispatch runs one batch and re-arms the window for events that arrived meanwhile.
func (c *Collector) dispatch(fn func(events []domain.Event), events []domain.Event) {
	if fn != nil {
		fn(events)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.idle.Broadcast()
	if len(c.pending) > 0 && !c.paused {
		c.arm()
	}
}

func (c *Collector) take() []domain.Event {
	events := c.pending
	c.pending = nil
	return events
}
