package core

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// CoarseResolution is how often the default coarse clock refreshes.
	CoarseResolution = 500 * time.Microsecond
	// CoarseIdleTimeout stops the refresh goroutine after this long
	// without a reader. The next read restarts it.
	CoarseIdleTimeout = time.Second
)

// CoarseClock caches time.Now, refreshed by a background goroutine, so
// hot paths can read the time with a single atomic load. The goroutine
// starts on first use and exits when the clock is idle or stopped.
type CoarseClock struct {
	resolution time.Duration
	idleTicks  int

	running atomic.Bool
	read    atomic.Bool
	now     atomic.Pointer[time.Time]

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewCoarseClock returns a stopped clock refreshing every resolution.
func NewCoarseClock(resolution, idleTimeout time.Duration) *CoarseClock {
	ticks := int(idleTimeout / resolution)
	if ticks < 1 {
		ticks = 1
	}
	return &CoarseClock{resolution: resolution, idleTicks: ticks}
}

// Start launches the refresh goroutine if it is not running.
func (c *CoarseClock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return
	}
	t := time.Now()
	c.now.Store(&t)
	c.read.Store(true)
	c.stop, c.done = make(chan struct{}), make(chan struct{})
	c.running.Store(true)
	go c.run(c.stop, c.done)
}

// Stop ends the refresh goroutine and waits for it to exit.
func (c *CoarseClock) Stop() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.running.Store(false)
	c.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running reports whether the refresh goroutine is active.
func (c *CoarseClock) Running() bool {
	return c.running.Load()
}

// Now returns the cached time. On a stopped clock it starts the
// goroutine and returns time.Now.
func (c *CoarseClock) Now() time.Time {
	if !c.running.Load() {
		c.Start()
		return time.Now()
	}
	if !c.read.Load() {
		c.read.Store(true)
	}
	return *c.now.Load()
}

func (c *CoarseClock) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.resolution)
	defer ticker.Stop()

	idle := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		t := time.Now()
		c.now.Store(&t)
		if c.read.Swap(false) {
			idle = 0
			continue
		}
		if idle++; idle < c.idleTicks {
			continue
		}
		c.mu.Lock()
		if c.stop == stop {
			c.stop, c.done = nil, nil
			c.running.Store(false)
		}
		c.mu.Unlock()
		return
	}
}

var defaultCoarse = NewCoarseClock(CoarseResolution, CoarseIdleTimeout)

// StartCoarseClock warms up the process-wide coarse clock.
func StartCoarseClock() {
	defaultCoarse.Start()
}

// StopCoarseClock stops the process-wide coarse clock. Later reads
// restart it.
func StopCoarseClock() {
	defaultCoarse.Stop()
}

// CoarseNow reads the process-wide coarse clock.
func CoarseNow() time.Time {
	return defaultCoarse.Now()
}
