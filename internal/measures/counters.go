package measures

import "sync/atomic"

type Snapshot struct {
	GetAttempts int64
	Misses      int64
	Evictions   int64
}

// Hits counts get attempts that did not trigger a fetch
func (s Snapshot) Hits() int64 {
	return s.GetAttempts - s.Misses
}

// Counters is an in-memory Collector
type Counters struct {
	getAttempts atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
}

var _ Collector = (*Counters)(nil)

func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) IncGetAttempts() {
	c.getAttempts.Add(1)
}

func (c *Counters) IncMisses() {
	c.misses.Add(1)
}

func (c *Counters) IncEvictions() {
	c.evictions.Add(1)
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		GetAttempts: c.getAttempts.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
	}
}

func (c *Counters) Reset() {
	c.getAttempts.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}
