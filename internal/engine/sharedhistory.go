package engine

import "sync/atomic"

// SharedHistory is a butterfly-style history table shared across all Lazy
// SMP workers, so a bonus found by one worker's search immediately biases
// move ordering in every other worker searching the same tree. Entries are
// plain atomics rather than the per-worker saturating history tables:
// concurrent writers make an exact saturating update race-prone, and the
// shared table only needs to be a coarse, cheap-to-read cross-worker signal
// on top of each worker's own precise history.
type SharedHistory struct {
	scores [64 * 64]atomic.Int32
}

// NewSharedHistory creates a new shared history table for Lazy SMP.
func NewSharedHistory() *SharedHistory {
	return &SharedHistory{}
}

// Get returns the shared history score for a from/to move.
func (sh *SharedHistory) Get(from, to int) int {
	return int(sh.scores[from*64+to].Load())
}

// Update adds bonus to the shared score for a from/to move, clamped to
// keep the table from drifting unbounded over a long search.
func (sh *SharedHistory) Update(from, to, bonus int) {
	const limit = 1 << 20
	v := &sh.scores[from*64+to]
	newVal := v.Add(int32(bonus))
	if newVal > limit {
		v.Store(limit)
	} else if newVal < -limit {
		v.Store(-limit)
	}
}

// Clear resets the shared history table (called between games).
func (sh *SharedHistory) Clear() {
	for i := range sh.scores {
		sh.scores[i].Store(0)
	}
}
