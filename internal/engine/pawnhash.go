package engine

import "github.com/dgraph-io/ristretto/v2"

// PawnScore holds a cached middlegame/endgame pawn structure evaluation.
type PawnScore struct {
	Mg int16
	Eg int16
}

// PawnTable caches pawn structure evaluations behind a concurrent,
// cost-bounded LRU (ristretto), rather than a fixed-size direct-mapped
// array: pawn structures recur far less uniformly across a search tree
// than position hashes do, so admission-based eviction wastes less of the
// budget on one-shot entries than always overwriting on index collision.
type PawnTable struct {
	cache *ristretto.Cache[uint64, PawnScore]
}

// NewPawnTable creates a new pawn hash table sized in MB.
func NewPawnTable(sizeMB int) *PawnTable {
	maxCost := int64(sizeMB) * 1024 * 1024
	cache, _ := ristretto.NewCache(&ristretto.Config[uint64, PawnScore]{
		NumCounters: maxCost / 12 * 10, // ~10x expected entry count, per ristretto sizing guidance
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	return &PawnTable{cache: cache}
}

// Probe looks up a pawn structure evaluation in the hash table.
// Returns the middlegame and endgame scores if found.
func (pt *PawnTable) Probe(key uint64) (mg, eg int, found bool) {
	v, ok := pt.cache.Get(key)
	if !ok {
		return 0, 0, false
	}
	return int(v.Mg), int(v.Eg), true
}

// Store saves a pawn structure evaluation in the hash table.
func (pt *PawnTable) Store(key uint64, mg, eg int) {
	pt.cache.Set(key, PawnScore{Mg: int16(mg), Eg: int16(eg)}, 1)
	// Set is buffered; wait so the entry is visible to the next Probe.
	pt.cache.Wait()
}

// Clear empties the pawn hash table.
func (pt *PawnTable) Clear() {
	pt.cache.Clear()
}
