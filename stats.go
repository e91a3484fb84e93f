package onebrc

import (
	"time"
	"unsafe"

	"github.com/dolthub/swiss"
	"github.com/zeebo/xxh3"
)

// KeyStats is the running aggregate for one key, either partition-local or
// global. Mean is derived at format time from Sum and Count and never
// stored, so merge order cannot compound its rounding error.
type KeyStats struct {
	Sum   float64
	Count uint64
	Min   float64
	Max   float64
}

func (s *KeyStats) add(v float64) {
	s.Sum += v
	s.Count++
	if v < s.Min {
		s.Min = v
	}
	if v > s.Max {
		s.Max = v
	}
}

func (s *KeyStats) merge(o KeyStats) {
	s.Sum += o.Sum
	s.Count += o.Count
	if o.Min < s.Min {
		s.Min = o.Min
	}
	if o.Max > s.Max {
		s.Max = o.Max
	}
}

// Mean is the arithmetic mean of every value folded into s.
func (s KeyStats) Mean() float64 { return s.Sum / float64(s.Count) }

// entry chains keys whose 64-bit hashes collide.
type entry struct {
	key   string
	stats KeyStats
	next  *entry
}

// Aggregate maps keys to running stats. Each task owns one exclusively
// during the parse phase; no locking anywhere. Keys are hashed to uint64
// so the hot path compares integers, and the key bytes are copied into a
// string exactly once per distinct key.
type Aggregate struct {
	m *swiss.Map[uint64, *entry]
}

func NewAggregate() *Aggregate {
	return &Aggregate{m: swiss.NewMap[uint64, *entry](1024)}
}

func bytesToString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Update folds one observation in. key may point into a transient read
// buffer; it is only copied on first sight.
func (a *Aggregate) Update(key []byte, v float64) {
	h := xxh3.Hash(key)
	head, ok := a.m.Get(h)
	if !ok {
		a.m.Put(h, &entry{
			key:   string(key),
			stats: KeyStats{Sum: v, Count: 1, Min: v, Max: v},
		})
		return
	}
	k := bytesToString(key)
	for e := head; ; e = e.next {
		if e.key == k {
			e.stats.add(v)
			return
		}
		if e.next == nil {
			e.next = &entry{
				key:   string(key),
				stats: KeyStats{Sum: v, Count: 1, Min: v, Max: v},
			}
			return
		}
	}
}

// Merge folds other into a, field-wise per key. The operator is associative
// and commutative, so partition results may arrive in any order.
func (a *Aggregate) Merge(other *Aggregate) {
	other.m.Iter(func(h uint64, oe *entry) bool {
		for e := oe; e != nil; e = e.next {
			a.mergeOne(h, e.key, e.stats)
		}
		return false
	})
}

func (a *Aggregate) mergeOne(h uint64, key string, s KeyStats) {
	head, ok := a.m.Get(h)
	if !ok {
		a.m.Put(h, &entry{key: key, stats: s})
		return
	}
	for e := head; ; e = e.next {
		if e.key == key {
			e.stats.merge(s)
			return
		}
		if e.next == nil {
			e.next = &entry{key: key, stats: s}
			return
		}
	}
}

// Len is the number of occupied hash slots, a lower bound on distinct keys
// used only as a sizing hint.
func (a *Aggregate) Len() int { return a.m.Count() }

func (a *Aggregate) iter(f func(key string, s KeyStats)) {
	a.m.Iter(func(_ uint64, e *entry) bool {
		for ; e != nil; e = e.next {
			f(e.key, e.stats)
		}
		return false
	})
}

// PartitionResult is what one task hands back to the orchestrator. It is
// owned by that task until the join, then read-only.
type PartitionResult struct {
	Rows    uint64
	Elapsed time.Duration
	Agg     *Aggregate
}
