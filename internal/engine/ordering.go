package engine

import (
	"github.com/cavefish/chesscore/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore     = 10000000 // TT move gets highest priority
	GoodCaptureBase = 1000000  // Base score for good captures
	KillerScore1    = 900000   // First killer move
	KillerScore2    = 800000   // Second killer move
	BadCaptureBase  = -100000  // Losing captures
)

// Saturation limits (D) for each history table: the maximum magnitude an
// entry can reach, and the bound every update keeps it within. Sizes and
// limits come from the source engine's history tables.
const (
	butterflyD       = 7183
	capturePieceToD  = 10692
	pieceToD         = 29952 // shared by PieceToHistory and ContinuationHistory
	pawnHistoryD     = 8192
	pawnHistorySize  = 512 // power of 2
	pawnHistoryMask  = pawnHistorySize - 1
)

// statBonus is the history/stats update bonus for a successful quiet or
// capture move, scaled by the depth it was found at.
func statBonus(depth int) int {
	b := 253*depth - 356
	if b > 1117 {
		return 1117
	}
	return b
}

// statMalus is the penalty applied to moves that were tried and failed to
// be the best move, scaled by depth.
func statMalus(depth int) int {
	m := 517*depth - 308
	if m > 1206 {
		return 1206
	}
	return m
}

// saturate applies the gravity update e += bonus - e*|bonus|/d, which
// keeps |e| <= d for any sequence of updates with |bonus| <= d.
func saturate(e *int16, bonus, d int) {
	if bonus > d {
		bonus = d
	} else if bonus < -d {
		bonus = -d
	}
	abs := bonus
	if abs < 0 {
		abs = -abs
	}
	v := int(*e) + bonus - int(*e)*abs/d
	*e = int16(v)
}

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
// Each victim row is 10 above the previous one; within a row a cheaper
// attacker scores higher (knight and bishop score the same)
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11}, // Pawn victim
	/* N */ {25, 24, 24, 23, 22, 21}, // Knight victim
	/* B */ {35, 34, 34, 33, 32, 31}, // Bishop victim
	/* R */ {45, 44, 44, 43, 42, 41}, // Rook victim
	/* Q */ {55, 54, 54, 53, 52, 51}, // Queen victim
	/* K */ {0, 0, 0, 0, 0, 0},       // King can't be captured
}

// pieceToHistory is addressed by a move's [piece][to], shared by the
// plain piece-to table and every continuation-history slot.
type pieceToHistory [12][64]int16

// Get returns the table's score for the given piece/destination.
func (t *pieceToHistory) Get(piece board.Piece, to board.Square) int {
	return int(t[piece][to])
}

// Update applies the saturating stats update for the given piece/destination.
func (t *pieceToHistory) Update(piece board.Piece, to board.Square, bonus int) {
	saturate(&t[piece][to], bonus, pieceToD)
}

// MoveOrderer handles move ordering and the history tables that feed it.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused beta cutoffs)
	killers [MaxPly][2]board.Move

	// Butterfly history: [color][from*64+to], the main quiet-move success
	// signal used for move ordering and LMR reduction.
	mainHistory [2][64 * 64]int16

	// Counter move heuristic (indexed by [piece][to])
	counterMoves [12][64]board.Move

	// CapturePieceToHistory: [attackerPiece][toSquare][capturedPieceType]
	captureHistory [12][64][6]int16

	// ContinuationHistory: a PieceToHistory table per (inCheck, capture,
	// piece, to) of the move that led into a ply. Continuation updates
	// reach back through whichever of these tables was selected when
	// entering each of the last few plies.
	continuationHistory [2][2][12][64]pieceToHistory

	// PawnHistory: [pawn structure index][piece][to]
	pawnHistory [pawnHistorySize][12][64]int16
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets the move orderer for a new search. Per-game history tables
// are aged (halved) rather than zeroed outright, matching the source
// engine's "age between searches, reset between games" split is out of
// scope here — this module only runs one search at a time, so aging on
// every Clear is the simplest correct policy.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}

	for c := range mo.mainHistory {
		for i := range mo.mainHistory[c] {
			mo.mainHistory[c][i] /= 2
		}
	}

	for i := range mo.counterMoves {
		for j := range mo.counterMoves[i] {
			mo.counterMoves[i][j] = board.NoMove
		}
	}

	for i := range mo.captureHistory {
		for j := range mo.captureHistory[i] {
			for k := range mo.captureHistory[i][j] {
				mo.captureHistory[i][j][k] /= 2
			}
		}
	}

	for a := range mo.continuationHistory {
		for b := range mo.continuationHistory[a] {
			for p := range mo.continuationHistory[a][b] {
				for sq := range mo.continuationHistory[a][b][p] {
					tbl := &mo.continuationHistory[a][b][p][sq]
					for i := range tbl {
						for j := range tbl[i] {
							tbl[i][j] /= 2
						}
					}
				}
			}
		}
	}

	for i := range mo.pawnHistory {
		for j := range mo.pawnHistory[i] {
			for k := range mo.pawnHistory[i][j] {
				mo.pawnHistory[i][j][k] /= 2
			}
		}
	}
}

// ScoreMoves assigns scores to moves for ordering.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove board.Move) []int {
	scores := make([]int, moves.Len())

	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		scores[i] = mo.scoreMove(pos, move, ply, ttMove)
	}

	return scores
}

// ScoreMovesWithCounter assigns scores including counter-move and pawn-history bonus.
func (mo *MoveOrderer) ScoreMovesWithCounter(pos *board.Position, moves *board.MoveList, ply int, ttMove, prevMove board.Move) []int {
	scores := make([]int, moves.Len())
	counterMove := mo.GetCounterMove(prevMove, pos)

	var prevPiece board.Piece = board.NoPiece
	if prevMove != board.NoMove {
		prevPiece = pos.PieceAt(prevMove.To())
	}
	_ = prevPiece

	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		scores[i] = mo.scoreMove(pos, move, ply, ttMove)

		// Counter-move bonus (after killers, before history)
		if move == counterMove && scores[i] < KillerScore2 {
			scores[i] = KillerScore2 - 10000 // Just below second killer
		}

		// Add a pawn-history bonus for quiet moves, on top of butterfly history
		if !move.IsCapture(pos) && !move.IsPromotion() && move != ttMove {
			movePiece := pos.PieceAt(move.From())
			pIndex := PawnHistoryIndex(pos.PawnKey)
			scores[i] += mo.GetPawnHistoryScore(pIndex, movePiece, move.To()) / 4
		}
	}

	return scores
}

// scoreMove returns the ordering score for a single move.
func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move) int {
	// TT move gets highest priority
	if m == ttMove {
		return TTMoveScore
	}

	from := m.From()
	to := m.To()

	// Captures: MVV-LVA
	if m.IsCapture(pos) {
		attackerPiece := pos.PieceAt(from)
		if attackerPiece == board.NoPiece {
			return GoodCaptureBase // Safety check
		}
		attacker := attackerPiece.Type()

		var victim board.PieceType
		if m.IsEnPassant() {
			victim = board.Pawn
		} else {
			capturedPiece := pos.PieceAt(to)
			if capturedPiece == board.NoPiece {
				// Safety check - shouldn't happen but prevents panic
				return GoodCaptureBase
			}
			victim = capturedPiece.Type()
		}

		// Bounds check for safety (victim should be < King for captures)
		if victim >= board.King || attacker > board.King {
			return GoodCaptureBase
		}

		// Check if it's a winning capture using MVV-LVA
		score := GoodCaptureBase + mvvLva[victim][attacker]*1000

		// Add capture history bonus
		captureHistScore := mo.GetCaptureHistoryScore(attackerPiece, to, victim)
		score += captureHistScore / 4 // Scale appropriately

		// Bonus for capturing with a less valuable piece
		if pieceValues[attacker] < pieceValues[victim] {
			score += 10000 // Clearly winning capture
		}

		return score
	}

	// Promotions (non-capture)
	if m.IsPromotion() {
		return GoodCaptureBase - 1000 + int(m.Promotion())*100
	}

	// Killer moves
	if m == mo.killers[ply][0] {
		return KillerScore1
	}
	if m == mo.killers[ply][1] {
		return KillerScore2
	}

	// History heuristic for quiet moves
	return mo.GetHistoryScore(pos.SideToMove, m)
}

// SortMoves sorts moves by their scores (descending).
func SortMoves(moves *board.MoveList, scores []int) {
	// Simple selection sort (sufficient for ~40 moves)
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			// Swap moves
			moves.Swap(i, best)
			// Swap scores
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// PickMove selects the best remaining move and moves it to position index.
// This allows lazy move sorting (only sort as much as needed).
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers adds a killer move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	// Ignore plies beyond the killer table
	if ply >= MaxPly {
		return
	}

	// Don't store if it's already the first killer
	if mo.killers[ply][0] == m {
		return
	}

	// Shift killers
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory applies a saturating butterfly-history update for a quiet
// move, for the side to move. bonus may be negative (a malus).
func (mo *MoveOrderer) UpdateHistory(stm board.Color, m board.Move, bonus int) {
	idx := int(m.From())*64 + int(m.To())
	saturate(&mo.mainHistory[stm][idx], bonus, butterflyD)
}

// GetHistoryScore returns the butterfly history score for a move.
func (mo *MoveOrderer) GetHistoryScore(stm board.Color, m board.Move) int {
	idx := int(m.From())*64 + int(m.To())
	return int(mo.mainHistory[stm][idx])
}

// UpdateCounterMove updates the counter move table.
func (mo *MoveOrderer) UpdateCounterMove(prevMove, counterMove board.Move, pos *board.Position) {
	if prevMove == board.NoMove {
		return
	}

	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return
	}

	mo.counterMoves[piece][prevMove.To()] = counterMove
}

// GetCounterMove returns the counter move for a previous move.
func (mo *MoveOrderer) GetCounterMove(prevMove board.Move, pos *board.Position) board.Move {
	if prevMove == board.NoMove {
		return board.NoMove
	}

	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return board.NoMove
	}

	return mo.counterMoves[piece][prevMove.To()]
}

// UpdateCaptureHistory applies a saturating capture-history update.
func (mo *MoveOrderer) UpdateCaptureHistory(attackerPiece board.Piece, toSq board.Square, capturedType board.PieceType, bonus int) {
	if attackerPiece == board.NoPiece || capturedType >= board.King {
		return
	}
	saturate(&mo.captureHistory[attackerPiece][toSq][capturedType], bonus, capturePieceToD)
}

// GetCaptureHistoryScore returns the capture history score for a capture move.
func (mo *MoveOrderer) GetCaptureHistoryScore(attackerPiece board.Piece, toSq board.Square, capturedType board.PieceType) int {
	if attackerPiece == board.NoPiece || capturedType >= board.King {
		return 0
	}
	return int(mo.captureHistory[attackerPiece][toSq][capturedType])
}

// ContinuationTable returns the PieceToHistory table selected for a move
// made under the given check/capture status, piece and destination — the
// table a ply's stack frame "belongs to" once that move is played.
func (mo *MoveOrderer) ContinuationTable(inCheck, capture bool, piece board.Piece, to board.Square) *pieceToHistory {
	return &mo.continuationHistory[b2i(inCheck)][b2i(capture)][piece][to]
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// PawnHistoryIndex maps a pawn structure key onto the pawn-history table.
func PawnHistoryIndex(pawnKey uint64) int {
	return int(pawnKey & pawnHistoryMask)
}

// GetPawnHistoryScore returns the pawn-history score for a quiet move.
func (mo *MoveOrderer) GetPawnHistoryScore(pIndex int, piece board.Piece, to board.Square) int {
	return int(mo.pawnHistory[pIndex][piece][to])
}

// UpdatePawnHistory applies a saturating pawn-history update.
func (mo *MoveOrderer) UpdatePawnHistory(pIndex int, piece board.Piece, to board.Square, bonus int) {
	saturate(&mo.pawnHistory[pIndex][piece][to], bonus, pawnHistoryD)
}
