package handler

import (
	"sync"
	"time"

	"github.com/philipp01105/krait/core"
)

// queueItem is either a log entry or a flush marker.
type queueItem struct {
	entry *core.Entry
	flush chan error
}

// entryQueue is a FIFO shared by any number of producers and a single
// consumer. A capacity of zero means unbounded. Flush markers never
// count against the capacity and are never evicted.
type entryQueue struct {
	mu       sync.Mutex
	items    []queueItem
	head     int
	entries  int // entry items currently queued
	capacity int
	closed   bool

	ready chan struct{} // holds a token while items may be available
	space chan struct{} // holds a token while room may be available
	done  chan struct{} // closed by close()
}

func newEntryQueue(capacity int) *entryQueue {
	return &entryQueue{
		capacity: capacity,
		ready:    make(chan struct{}, 1),
		space:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// hasRoomLocked reports whether another entry fits. Caller holds mu.
func (q *entryQueue) hasRoomLocked() bool {
	return q.capacity <= 0 || q.entries < q.capacity
}

func (q *entryQueue) appendLocked(it queueItem) {
	q.items = append(q.items, it)
	if it.entry != nil {
		q.entries++
	}
	notify(q.ready)
}

// evictOldestLocked removes the oldest entry item. Caller holds mu.
func (q *entryQueue) evictOldestLocked() *core.Entry {
	for i := q.head; i < len(q.items); i++ {
		if e := q.items[i].entry; e != nil {
			copy(q.items[i:], q.items[i+1:])
			q.items[len(q.items)-1] = queueItem{}
			q.items = q.items[:len(q.items)-1]
			q.entries--
			return e
		}
	}
	return nil
}

// push enqueues e according to policy. dropped is the entry discarded
// to make room (DropOldest) or e itself (DropNewest); waited reports
// whether a Block push had to wait for space.
func (q *entryQueue) push(e *core.Entry, policy OverflowPolicy, timeout time.Duration) (dropped *core.Entry, waited bool, err error) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, waited, ErrHandlerClosed
		}
		if q.hasRoomLocked() {
			q.appendLocked(queueItem{entry: e})
			if q.hasRoomLocked() {
				// Pass the wake-up on to the next waiting producer.
				notify(q.space)
			}
			q.mu.Unlock()
			return nil, waited, nil
		}

		switch policy {
		case DropNewest:
			q.mu.Unlock()
			return e, false, nil
		case DropOldest:
			old := q.evictOldestLocked()
			q.appendLocked(queueItem{entry: e})
			q.mu.Unlock()
			return old, false, nil
		}
		q.mu.Unlock()

		if timeout == 0 {
			return nil, waited, ErrQueueFull
		}
		waited = true

		var expired <-chan time.Time
		if timeout > 0 {
			if timer == nil {
				timer = time.NewTimer(timeout)
			}
			expired = timer.C
		}
		select {
		case <-q.space:
		case <-expired:
			return nil, waited, ErrQueueFull
		case <-q.done:
			return nil, waited, ErrHandlerClosed
		}
	}
}

// pushFlush enqueues a flush marker regardless of capacity.
func (q *entryQueue) pushFlush(ch chan error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrHandlerClosed
	}
	q.appendLocked(queueItem{flush: ch})
	return nil
}

// pop removes the oldest item without blocking.
func (q *entryQueue) pop() (queueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head == len(q.items) {
		return queueItem{}, false
	}
	it := q.items[q.head]
	q.items[q.head] = queueItem{}
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head > 1024 && q.head*2 > len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	if it.entry != nil {
		q.entries--
		notify(q.space)
	}
	return it, true
}

// size returns the number of queued entries, excluding flush markers.
func (q *entryQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entries
}

// close rejects further pushes and wakes blocked producers.
func (q *entryQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}
