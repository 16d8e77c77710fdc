package handler

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/philipp01105/krait/core"
)

// OverflowPolicy selects what Handle does when a bounded queue is full.
type OverflowPolicy int

const (
	// Block waits up to BlockTimeout for room, then fails with ErrQueueFull.
	Block OverflowPolicy = iota
	// DropNewest discards the entry being handled.
	DropNewest
	// DropOldest evicts the head of the queue to make room.
	DropOldest
)

var policyNames = [...]string{"block", "drop_newest", "drop_oldest"}

func (p OverflowPolicy) String() string {
	if p < 0 || int(p) >= len(policyNames) {
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
	return policyNames[p]
}

// ParseOverflowPolicy accepts the names printed by String. Dashes and
// case are ignored; the empty string means Block.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	norm := strings.ToLower(strings.ReplaceAll(s, "-", "_"))
	if norm == "" {
		return Block, nil
	}
	for i, name := range policyNames {
		if norm == name || norm == strings.ReplaceAll(name, "_", "") {
			return OverflowPolicy(i), nil
		}
	}
	return Block, fmt.Errorf("unknown backpressure policy %q", s)
}

// LossyLevelPolicy drops trace and debug entries when the queue is full
// and blocks for everything more severe.
func LossyLevelPolicy() map[core.Level]OverflowPolicy {
	return map[core.Level]OverflowPolicy{
		core.TraceLevel: DropNewest,
		core.DebugLevel: DropNewest,
	}
}

// Stats counts what a handler did with its entries. The zero value is
// ready to use and safe for concurrent updates.
type Stats struct {
	dropped   [core.LevelCount]atomic.Uint64
	blocked   atomic.Uint64
	processed atomic.Uint64
	failed    atomic.Uint64
}

func levelSlot(level core.Level) int {
	if idx := level.Index(); idx >= 0 {
		return idx
	}
	return core.PanicLevel.Index()
}

// RecordDrop counts a discarded entry. Unknown levels count as PanicLevel.
func (s *Stats) RecordDrop(level core.Level) { s.dropped[levelSlot(level)].Add(1) }

// RecordBlock counts a producer that had to wait for queue space.
func (s *Stats) RecordBlock() { s.blocked.Add(1) }

// RecordWrite counts an entry handed to the sink successfully.
func (s *Stats) RecordWrite() { s.processed.Add(1) }

// RecordFailure counts an entry whose write failed.
func (s *Stats) RecordFailure() { s.failed.Add(1) }

// Reset zeroes every counter.
func (s *Stats) Reset() {
	for i := range s.dropped {
		s.dropped[i].Store(0)
	}
	s.blocked.Store(0)
	s.processed.Store(0)
	s.failed.Store(0)
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Dropped   map[core.Level]uint64
	Blocked   uint64
	Processed uint64
	Failed    uint64
}

// TotalDropped sums Dropped over all levels.
func (s Snapshot) TotalDropped() uint64 {
	var total uint64
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

// Snapshot copies the counters. Levels that never dropped are omitted
// from Dropped.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Dropped:   make(map[core.Level]uint64),
		Blocked:   s.blocked.Load(),
		Processed: s.processed.Load(),
		Failed:    s.failed.Load(),
	}
	for i := range s.dropped {
		if n := s.dropped[i].Load(); n > 0 {
			snap.Dropped[core.TraceLevel+core.Level(i)] = n
		}
	}
	return snap
}
