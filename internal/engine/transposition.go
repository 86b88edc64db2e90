package engine

import (
	"math/bits"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/cavefish/chesscore/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// genBound8 packs a 3-bit bound+pv field and a generation counter into the
// low and high bits of one byte, mirroring the original's bit layout.
const (
	ttGenerationBits  = 3
	ttGenerationDelta = 1 << ttGenerationBits          // 8: increment applied per new_search
	ttGenerationCycle = 255 + ttGenerationDelta        // 263
	ttGenerationMask  = (0xFF << ttGenerationBits) & 0xFF // 0xF8
)

// ttDepthOffset lets depth8 == 0 double as "unoccupied" while still storing
// the negative depths quiescence search produces.
const ttDepthOffset = -7

// ttClusterSize is the number of entries sharing one probe/replace group.
const ttClusterSize = 3

// ttClusterBytes is the logical size of one cluster in the original layout
// (3 entries * (2-byte key + 8-byte packed payload), plus 2 bytes of
// padding); table sizing follows
// this figure so the UCI "Hash" option means the same number of megabytes
// it would in the source engine, even though ttSlot's actual Go footprint
// is larger (see ttSlot doc).
const ttClusterBytes = 32

// ttSlot is one atomically-addressed transposition entry. Both fields are
// loaded and stored with relaxed atomics and no locking: probes and writes
// from concurrent search workers may race, exactly as in the original's
// AtomicRelaxed<T> — a torn or stale read is an accepted cost of not
// stalling search threads for synchronization. Go has no 16-bit atomic
// type, so the verification key rides in a full Uint32 instead of the
// original's uint16_t; only the low 16 bits are ever meaningful.
type ttSlot struct {
	key  atomic.Uint32
	data atomic.Uint64
}

// ttCluster groups the entries that share a probe index; on a hit or a
// replacement decision every slot in the cluster is examined.
type ttCluster struct {
	slots [ttClusterSize]ttSlot
}

// TTData is the client-visible, already-decoded copy of an entry returned
// by Probe. It is a snapshot: because the underlying slot may be written
// concurrently, its fields can be mutually inconsistent if a race landed
// mid-probe. Callers must treat every field as "probably right", never as
// a proof.
type TTData struct {
	Move  board.Move
	Value int
	Eval  int
	Depth int
	Bound TTFlag
	IsPV  bool
}

// TTWriter is a handle to the exact slot a Probe located (or chose as the
// least valuable in its cluster), obtained at probe time and reused for
// the eventual Write. Separating the racy local TTData copy from the live
// writer keeps read and write concerns distinct, per the original's
// probe/TTWriter split.
type TTWriter struct {
	slot *ttSlot
}

// packTTData8 packs the 8-byte payload (depth8 | genBound8 | move16 |
// value16 | eval16) into one uint64 for atomic storage.
func packTTData8(depth8, genBound8 uint8, move16 uint16, value16, eval16 int16) uint64 {
	return uint64(depth8) |
		uint64(genBound8)<<8 |
		uint64(move16)<<16 |
		uint64(uint16(value16))<<32 |
		uint64(uint16(eval16))<<48
}

func unpackTTData8(packed uint64) (depth8, genBound8 uint8, move16 uint16, value16, eval16 int16) {
	depth8 = uint8(packed)
	genBound8 = uint8(packed >> 8)
	move16 = uint16(packed >> 16)
	value16 = int16(uint16(packed >> 32))
	eval16 = int16(uint16(packed >> 48))
	return
}

// ttRelativeAge returns the entry's age relative to the current
// generation, as a multiple of ttGenerationDelta, correctly wrapping when
// generation8 has cycled past 256.
func ttRelativeAge(genBound8, generation8 uint8) uint8 {
	return uint8((ttGenerationCycle + int(generation8) - int(genBound8)) & ttGenerationMask)
}

// ttReplaceValue ranks how worth keeping an occupied slot is: deeper and
// more recent entries score higher. The cluster's least valuable slot is
// the replacement candidate on a miss.
func ttReplaceValue(depth8, genBound8, generation8 uint8) int {
	return int(depth8) - int(ttRelativeAge(genBound8, generation8))
}

// Write populates the slot with a new node's data, possibly overwriting an
// older position, following the source engine's exact replacement rule:
// the stored move is preserved unless a new one is given or the
// verification key no longer matches, and the rest of the payload is only
// overwritten when the new data is strictly more valuable (an exact bound,
// a key mismatch, a deeper-or-equal-priority search, or a stale
// generation).
func (w TTWriter) Write(key uint64, value int, pv bool, bound TTFlag, depth int, move board.Move, eval int, generation8 uint8) {
	key16 := uint16(key)
	currentKey := uint16(w.slot.key.Load())
	currentPacked := w.slot.data.Load()
	depth8, genBound8, move16, _, _ := unpackTTData8(currentPacked)

	update := false
	if move != board.NoMove || key16 != currentKey {
		update = true
		move16 = uint16(move)
	}

	pvBit := uint8(0)
	if pv {
		pvBit = 1
	}

	if bound == TTExact || key16 != currentKey ||
		depth-ttDepthOffset+2*int(pvBit) > int(depth8)-4 ||
		ttRelativeAge(genBound8, generation8) != 0 {

		newDepth8 := uint8(depth - ttDepthOffset)
		newGenBound8 := generation8 | pvBit<<2 | uint8(bound)
		packed := packTTData8(newDepth8, newGenBound8, move16, int16(value), int16(eval))

		w.slot.key.Store(uint32(key16))
		w.slot.data.Store(packed)
		return
	}

	if update {
		// Only move16 changed; value/eval/depth/genBound8 stay as they were.
		_, _, _, value16, eval16 := unpackTTData8(currentPacked)
		packed := packTTData8(depth8, genBound8, move16, value16, eval16)
		w.slot.data.Store(packed)
	}
}

// TranspositionTable is the single, shared, lock-free hash table used by
// every search worker (Lazy SMP). There is no per-entry synchronization:
// see ttSlot's doc for the concurrency model this implies.
type TranspositionTable struct {
	clusters     []ttCluster
	clusterCount uint64
	generation8  atomic.Uint32 // low 8 bits meaningful, wraps like a uint8

	hits   atomic.Uint64
	probes atomic.Uint64
}

// mulHi64 returns the high 64 bits of the 128-bit product of a and b, used
// to map a 64-bit key onto a table of arbitrary (non-power-of-2) cluster
// count without a division per probe.
func mulHi64(a, b uint64) uint64 {
	hi, _ := bits.Mul64(a, b)
	return hi
}

// NewTranspositionTable creates a transposition table sized in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	clusterCount := uint64(sizeMB) * 1024 * 1024 / ttClusterBytes
	if clusterCount == 0 {
		clusterCount = 1
	}

	return &TranspositionTable{
		clusters:     make([]ttCluster, clusterCount),
		clusterCount: clusterCount,
	}
}

// Probe looks up key in the table. It returns whether the position was
// already present, a racy snapshot of its data, and a writer handle to the
// slot that should receive this node's result — either the slot that
// matched, or (on a miss) the least valuable slot in its cluster.
func (tt *TranspositionTable) Probe(key uint64) (bool, TTData, TTWriter) {
	tt.probes.Add(1)

	cluster := &tt.clusters[mulHi64(key, tt.clusterCount)]
	key16 := uint16(key)
	generation8 := uint8(tt.generation8.Load())

	for i := range cluster.slots {
		slot := &cluster.slots[i]
		if uint16(slot.key.Load()) == key16 {
			packed := slot.data.Load()
			depth8, genBound8, move16, value16, eval16 := unpackTTData8(packed)
			occupied := depth8 != 0
			if occupied {
				tt.hits.Add(1)
			}

			data := TTData{
				Move:  board.Move(move16),
				Value: int(value16),
				Eval:  int(eval16),
				Depth: int(depth8) + ttDepthOffset,
				Bound: TTFlag(genBound8 & 0x3),
				IsPV:  genBound8&0x4 != 0,
			}
			return occupied, data, TTWriter{slot: slot}
		}
	}

	replaceIdx := 0
	replaceVal := ttSlotReplaceValueOf(&cluster.slots[0], generation8)
	for i := 1; i < ttClusterSize; i++ {
		v := ttSlotReplaceValueOf(&cluster.slots[i], generation8)
		if v < replaceVal {
			replaceVal = v
			replaceIdx = i
		}
	}

	return false,
		TTData{Move: board.NoMove, Depth: ttDepthOffset, Bound: TTExact, IsPV: false},
		TTWriter{slot: &cluster.slots[replaceIdx]}
}

func ttSlotReplaceValueOf(slot *ttSlot, generation8 uint8) int {
	depth8, genBound8, _, _, _ := unpackTTData8(slot.data.Load())
	return ttReplaceValue(depth8, genBound8, generation8)
}

// NewSearch advances the generation counter, marking every previously
// written entry one generation staler. Must be called once per root search.
func (tt *TranspositionTable) NewSearch() {
	tt.generation8.Add(ttGenerationDelta)
}

// Generation returns the current generation byte used when writing.
func (tt *TranspositionTable) Generation() uint8 {
	return uint8(tt.generation8.Load())
}

// Clear zeroes every cluster, fanning the work out across the host's
// available processors and joining before returning — a large table
// otherwise makes clearing a visible pause between games/positions.
func (tt *TranspositionTable) Clear() {
	tt.generation8.Store(0)
	tt.hits.Store(0)
	tt.probes.Store(0)

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if uint64(workers) > tt.clusterCount {
		workers = int(tt.clusterCount)
	}

	stride := tt.clusterCount / uint64(workers)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		start := stride * uint64(i)
		end := start + stride
		if i == workers-1 {
			end = tt.clusterCount
		}
		g.Go(func() error {
			for j := start; j < end; j++ {
				for k := range tt.clusters[j].slots {
					tt.clusters[j].slots[k].key.Store(0)
					tt.clusters[j].slots[k].data.Store(0)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}

// HashFull returns the permille of the table occupied by entries from the
// current generation, sampling the first 1000 clusters as the UCI protocol
// expects.
func (tt *TranspositionTable) HashFull() int {
	sampleSize := uint64(1000)
	if sampleSize > tt.clusterCount {
		sampleSize = tt.clusterCount
	}

	generation8 := uint8(tt.generation8.Load())
	count := 0
	for i := uint64(0); i < sampleSize; i++ {
		for k := range tt.clusters[i].slots {
			depth8, genBound8, _, _, _ := unpackTTData8(tt.clusters[i].slots[k].data.Load())
			if depth8 != 0 && ttRelativeAge(genBound8, generation8) == 0 {
				count++
			}
		}
	}

	return int(uint64(count) * 1000 / (sampleSize * ttClusterSize))
}

// HitRate returns the probe hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Size returns the number of clusters in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.clusterCount
}

// SizeBytes returns the table's logical footprint in bytes, for reporting.
func (tt *TranspositionTable) SizeBytes() uint64 {
	return tt.clusterCount * ttClusterBytes
}

// AdjustScoreFromTT adjusts a stored score back into ply-relative terms.
// Mate scores are stored relative to the position, not the root, so the
// distance from the current ply must be added back in.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT adjusts a ply-relative score for storage in the table.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
