package engine

import (
	"github.com/cavefish/chesscore/internal/board"
)

// CorrectionHistorySize is the number of pawn-structure buckets per color.
const CorrectionHistorySize = 16384 // 2^14
const CorrectionHistoryMask = CorrectionHistorySize - 1

// correctionHistoryLimit is the saturation constant D for correction
// history entries: no entry can grow past this magnitude, and every
// update keeps that bound regardless of how large the raw error was.
const correctionHistoryLimit = 1024

// CorrectionHistory adjusts static evaluation based on search results,
// keyed by pawn structure rather than the full position hash: pawn shape
// is what actually predicts a systematic static-eval bias (a bad passed
// pawn heuristic, say), and it recurs across far more positions than an
// exact hash does.
type CorrectionHistory struct {
	// [color][pawnKey & mask], 16-bit saturating entries (64KB total).
	entries [2][CorrectionHistorySize]int16
}

// NewCorrectionHistory creates a new correction history table.
func NewCorrectionHistory() *CorrectionHistory {
	return &CorrectionHistory{}
}

func pawnStructureIndex(pawnKey uint64) int {
	return int(pawnKey & CorrectionHistoryMask)
}

// Get returns the correction value for a position, in centipawns, to be
// added to the static evaluation.
func (ch *CorrectionHistory) Get(pos *board.Position) int {
	idx := pawnStructureIndex(pos.PawnKey)
	return int(ch.entries[pos.SideToMove][idx]) / correctionHistoryScale
}

// correctionHistoryScale converts a stored entry back to centipawns; entries
// are stored at higher resolution than the applied correction so that small
// per-update bonuses aren't rounded away.
const correctionHistoryScale = 256

// Update records a correction based on the difference between the search
// result and the static evaluation, at the given depth. Uses the same
// saturating gravity formula as the rest of the history tables, so no
// entry can ever exceed the D=correctionHistoryLimit bound.
func (ch *CorrectionHistory) Update(pos *board.Position, searchScore, staticEval, depth int) {
	if depth < 1 {
		return
	}

	diff := (searchScore - staticEval) * correctionHistoryScale
	bonus := diff * depth / 8
	if bonus > correctionHistoryLimit {
		bonus = correctionHistoryLimit
	} else if bonus < -correctionHistoryLimit {
		bonus = -correctionHistoryLimit
	}

	idx := pawnStructureIndex(pos.PawnKey)
	saturate(&ch.entries[pos.SideToMove][idx], bonus, correctionHistoryLimit)
}

// Clear resets all correction values.
func (ch *CorrectionHistory) Clear() {
	for c := range ch.entries {
		for i := range ch.entries[c] {
			ch.entries[c][i] = 0
		}
	}
}
