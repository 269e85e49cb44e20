package pvec

import "sync/atomic"

// Operation counters shared by every vector in the process. They feed
// benchmarking and regression checks; collection can be switched off
// for latency-critical callers.
var (
	statNodeAllocs   counter
	statPathCopies   counter
	statInPlace      counter
	statTailPushes   counter
	statReleases     counter
	statPoolRecycles counter

	statsEnabled atomic.Bool
)

func init() {
	statsEnabled.Store(true)
}

// counter is an atomic counter gated by the package-wide enable flag.
type counter struct {
	v atomic.Uint64
}

func (c *counter) add(d uint64) {
	if statsEnabled.Load() {
		c.v.Add(d)
	}
}

// Stats is a point-in-time view of the operation counters.
type Stats struct {
	// NodeAllocs counts node constructions, pooled or fresh.
	NodeAllocs uint64

	// PathCopies counts nodes copied because they were shared or
	// unowned at the time of a mutation.
	PathCopies uint64

	// InPlaceWrites counts transient mutations that hit the in-place
	// fast path without copying.
	InPlaceWrites uint64

	// TailPushes counts full tails folded into the tree.
	TailPushes uint64

	// Releases counts nodes whose refcount reached zero.
	Releases uint64

	// PoolRecycles counts dead nodes handed to the pool for reuse.
	PoolRecycles uint64
}

// ReadStats returns a snapshot of the operation counters.
func ReadStats() Stats {
	return Stats{
		NodeAllocs:    statNodeAllocs.v.Load(),
		PathCopies:    statPathCopies.v.Load(),
		InPlaceWrites: statInPlace.v.Load(),
		TailPushes:    statTailPushes.v.Load(),
		Releases:      statReleases.v.Load(),
		PoolRecycles:  statPoolRecycles.v.Load(),
	}
}

// ResetStats zeroes the operation counters.
func ResetStats() {
	statNodeAllocs.v.Store(0)
	statPathCopies.v.Store(0)
	statInPlace.v.Store(0)
	statTailPushes.v.Store(0)
	statReleases.v.Store(0)
	statPoolRecycles.v.Store(0)
}

// SetStatsEnabled switches counter collection on or off. Counting is
// on by default.
func SetStatsEnabled(on bool) {
	statsEnabled.Store(on)
}

// Sub returns the counter deltas from an earlier snapshot.
func (s Stats) Sub(earlier Stats) Stats {
	return Stats{
		NodeAllocs:    s.NodeAllocs - earlier.NodeAllocs,
		PathCopies:    s.PathCopies - earlier.PathCopies,
		InPlaceWrites: s.InPlaceWrites - earlier.InPlaceWrites,
		TailPushes:    s.TailPushes - earlier.TailPushes,
		Releases:      s.Releases - earlier.Releases,
		PoolRecycles:  s.PoolRecycles - earlier.PoolRecycles,
	}
}
