package board

import (
	"fmt"
	"log"
)

// DebugMoveValidation enables extra King/board consistency logging in
// move generation and make/unmake. Toggled at runtime by the UCI "debug"
// command.
var DebugMoveValidation = false

// GenerateLegalMoves generates all legal moves for the position.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return p.filterLegalMoves(ml)
}

// GeneratePseudoLegalMoves generates all pseudo-legal moves (may leave king in check).
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return ml
}

// GenerateCaptures generates all capture moves.
func (p *Position) GenerateCaptures() *MoveList {
	ml := NewMoveList()
	p.generateCaptures(ml)
	return p.filterLegalMoves(ml)
}

// GenerateLegalMoves is a free function wrapper so callers that only
// hold a *Position in a generic context (e.g. Position.IsDraw) can
// generate legal moves without repeating the method call syntax.
func GenerateLegalMoves(p *Position) *MoveList {
	return p.GenerateLegalMoves()
}

// generateAllMoves generates all pseudo-legal moves.
func (p *Position) generateAllMoves(ml *MoveList) {
	us := p.SideToMove
	them := us.Other()
	occupied := p.AllOccupied
	enemies := p.Occupied[them]

	// Validate King position consistency
	if DebugMoveValidation {
		kingBB := p.Pieces[us][King]
		if kingBB == 0 {
			log.Printf("MOVEGEN FATAL: %v King bitboard empty! KingSquare=%v AllOcc=%x Hash=%x",
				us, p.KingSquare[us], uint64(p.AllOccupied), p.Hash)
		} else if p.KingSquare[us] != kingBB.LSB() {
			log.Printf("MOVEGEN FATAL: %v KingSquare=%v but King bitboard says %v! Hash=%x",
				us, p.KingSquare[us], kingBB.LSB(), p.Hash)
		}
	}

	// Pawn moves
	p.generatePawnMoves(ml, us, enemies, occupied)

	// Knight moves
	knights := p.Pieces[us][Knight]
	for knights != 0 {
		from := knights.PopLSB()
		attacks := KnightAttacks(from) & ^p.Occupied[us]
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to))
		}
	}

	// Bishop moves
	bishops := p.Pieces[us][Bishop]
	for bishops != 0 {
		from := bishops.PopLSB()
		attacks := BishopAttacks(from, occupied) & ^p.Occupied[us]
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to))
		}
	}

	// Rook moves
	rooks := p.Pieces[us][Rook]
	for rooks != 0 {
		from := rooks.PopLSB()
		attacks := RookAttacks(from, occupied) & ^p.Occupied[us]
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to))
		}
	}

	// Queen moves
	queens := p.Pieces[us][Queen]
	for queens != 0 {
		from := queens.PopLSB()
		attacks := QueenAttacks(from, occupied) & ^p.Occupied[us]
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to))
		}
	}

	// King moves
	p.generateKingMoves(ml, us)

	// Castling
	p.generateCastlingMoves(ml, us)
}

// generatePawnMoves generates all pawn moves.
func (p *Position) generatePawnMoves(ml *MoveList, us Color, enemies, occupied Bitboard) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied

	var push1, push2, attackL, attackR Bitboard
	var promotionRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	// Single pushes (non-promotion)
	nonPromo := push1 & ^promotionRank
	for nonPromo != 0 {
		to := nonPromo.PopLSB()
		from := Square(int(to) - pushDir)
		ml.Add(NewMove(from, to))
	}

	// Double pushes
	for push2 != 0 {
		to := push2.PopLSB()
		from := Square(int(to) - 2*pushDir)
		ml.Add(NewMove(from, to))
	}

	// Captures (non-promotion)
	nonPromoL := attackL & ^promotionRank
	for nonPromoL != 0 {
		to := nonPromoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		ml.Add(NewMove(from, to))
	}

	nonPromoR := attackR & ^promotionRank
	for nonPromoR != 0 {
		to := nonPromoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		ml.Add(NewMove(from, to))
	}

	// Promotions
	promoPush := push1 & promotionRank
	for promoPush != 0 {
		to := promoPush.PopLSB()
		from := Square(int(to) - pushDir)
		addPromotions(ml, from, to)
	}

	promoL := attackL & promotionRank
	for promoL != 0 {
		to := promoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		addPromotions(ml, from, to)
	}

	promoR := attackR & promotionRank
	for promoR != 0 {
		to := promoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		addPromotions(ml, from, to)
	}

	// En passant
	if p.EnPassant != NoSquare {
		epBB := SquareBB(p.EnPassant)
		var epAttackers Bitboard
		if us == White {
			epAttackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
		} else {
			epAttackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
		}
		for epAttackers != 0 {
			from := epAttackers.PopLSB()
			ml.Add(NewEnPassant(from, p.EnPassant))
		}
	}
}

// addPromotions adds all four promotion moves.
func addPromotions(ml *MoveList, from, to Square) {
	ml.Add(NewPromotion(from, to, Queen))
	ml.Add(NewPromotion(from, to, Rook))
	ml.Add(NewPromotion(from, to, Bishop))
	ml.Add(NewPromotion(from, to, Knight))
}

// generateKingMoves generates king moves (non-castling).
func (p *Position) generateKingMoves(ml *MoveList, us Color) {
	// Use actual King bitboard to find King position (defensive against desync)
	kingBB := p.Pieces[us][King]
	if kingBB == 0 {
		// No King on board - skip (this is a corrupted position)
		return
	}
	from := kingBB.LSB()
	attacks := KingAttacks(from) & ^p.Occupied[us]

	for attacks != 0 {
		to := attacks.PopLSB()
		ml.Add(NewMove(from, to))
	}
}

// generateCastlingMoves generates castling moves using the per-side
// CastlingRookSquare/CastlingPath metadata (see Position.setCastlingRight),
// so Chess960 rook starting files work the same way as standard chess.
func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	if p.Checkers != 0 {
		return
	}
	them := us.Other()
	ksq := p.KingSquare[us]

	for _, kingSide := range [2]bool{true, false} {
		rsq, ok := p.CastlingRookSquareForSide(us, kingSide)
		if !ok {
			continue
		}

		idx := castlingRightIndex(castlingRight(us, kingSide))
		if p.CastlingPath[idx]&p.AllOccupied != 0 {
			continue
		}

		m := NewCastling(ksq, rsq)
		kto := m.KingDestination()

		path := Between(ksq, kto) | SquareBB(kto) | SquareBB(ksq)
		attacked := false
		for bb := path; bb != 0; {
			sq := bb.PopLSB()
			if p.IsSquareAttacked(sq, them) {
				attacked = true
				break
			}
		}
		if !attacked {
			ml.Add(m)
		}
	}
}

// generateCaptures generates capture moves only.
func (p *Position) generateCaptures(ml *MoveList) {
	us := p.SideToMove
	them := us.Other()
	enemies := p.Occupied[them]
	occupied := p.AllOccupied

	// Pawn captures
	pawns := p.Pieces[us][Pawn]
	var attackL, attackR Bitboard
	var promotionRank Bitboard
	var pushDir int

	if us == White {
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	// Non-promotion captures
	nonPromoL := attackL & ^promotionRank
	for nonPromoL != 0 {
		to := nonPromoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		ml.Add(NewMove(from, to))
	}

	nonPromoR := attackR & ^promotionRank
	for nonPromoR != 0 {
		to := nonPromoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		ml.Add(NewMove(from, to))
	}

	// Promotion captures
	promoL := attackL & promotionRank
	for promoL != 0 {
		to := promoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		addPromotions(ml, from, to)
	}

	promoR := attackR & promotionRank
	for promoR != 0 {
		to := promoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		addPromotions(ml, from, to)
	}

	// Pawn push promotions (technically not captures but important for quiescence)
	empty := ^occupied
	var push1 Bitboard
	if us == White {
		push1 = pawns.North() & empty & Rank8
	} else {
		push1 = pawns.South() & empty & Rank1
	}
	for push1 != 0 {
		to := push1.PopLSB()
		from := Square(int(to) - pushDir)
		addPromotions(ml, from, to)
	}

	// En passant
	if p.EnPassant != NoSquare {
		epBB := SquareBB(p.EnPassant)
		var epAttackers Bitboard
		if us == White {
			epAttackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
		} else {
			epAttackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
		}
		for epAttackers != 0 {
			from := epAttackers.PopLSB()
			ml.Add(NewEnPassant(from, p.EnPassant))
		}
	}

	// Knight captures
	knights := p.Pieces[us][Knight]
	for knights != 0 {
		from := knights.PopLSB()
		attacks := KnightAttacks(from) & enemies
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to))
		}
	}

	// Bishop captures
	bishops := p.Pieces[us][Bishop]
	for bishops != 0 {
		from := bishops.PopLSB()
		attacks := BishopAttacks(from, occupied) & enemies
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to))
		}
	}

	// Rook captures
	rooks := p.Pieces[us][Rook]
	for rooks != 0 {
		from := rooks.PopLSB()
		attacks := RookAttacks(from, occupied) & enemies
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to))
		}
	}

	// Queen captures
	queens := p.Pieces[us][Queen]
	for queens != 0 {
		from := queens.PopLSB()
		attacks := QueenAttacks(from, occupied) & enemies
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to))
		}
	}

	// King captures
	from := p.KingSquare[us]
	attacks := KingAttacks(from) & enemies
	for attacks != 0 {
		to := attacks.PopLSB()
		ml.Add(NewMove(from, to))
	}
}

// DebugLegalMoveVerification enables dual-path verification in filterLegalMoves.
// Set to true during development to catch any fast path bugs.
var DebugLegalMoveVerification = false

// filterLegalMoves filters out illegal moves using Stockfish's optimization.
// Non-pinned, non-king, non-en-passant moves are automatically legal (when not in check).
func (p *Position) filterLegalMoves(ml *MoveList) *MoveList {
	result := NewMoveList()
	pinned := p.ComputePinned() // Compute once for all moves
	ksq := p.KingSquare[p.SideToMove]
	inCheck := p.Checkers != 0

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		from := m.From()

		// When in check, only king moves can use the fast path
		// (other pieces must block or capture, which requires validation)
		if inCheck {
			if p.IsLegalFast(m, pinned) {
				result.Add(m)
			}
			continue
		}

		// Fast path: non-pinned, non-king, non-EP moves are automatically legal
		if from != ksq && !m.IsEnPassant() && pinned&SquareBB(from) == 0 {
			if DebugLegalMoveVerification {
				// Verify fast path against slow path
				slowResult := p.IsLegal(m)
				if !slowResult {
					fmt.Printf("DEBUG MISMATCH: Fast path accepted move %v but slow path rejected it\n", m)
					fmt.Printf("DEBUG: pinned=%v from=%v ksq=%v\n", pinned, from, ksq)
					continue // Trust slow path in debug mode
				}
			}
			result.Add(m)
			continue
		}

		// Slow path: pinned pieces, king moves, or en passant
		if p.IsLegalFast(m, pinned) {
			if DebugLegalMoveVerification {
				// Verify against original slow path
				slowResult := p.IsLegal(m)
				if !slowResult {
					fmt.Printf("DEBUG MISMATCH: IsLegalFast accepted move %v but IsLegal rejected it\n", m)
					continue
				}
			}
			result.Add(m)
		} else if DebugLegalMoveVerification {
			// Check if slow path would have accepted it
			if p.IsLegal(m) {
				fmt.Printf("DEBUG MISMATCH: IsLegalFast rejected move %v but IsLegal accepted it\n", m)
				result.Add(m)
			}
		}
	}

	return result
}

// IsLegalFast returns true if the move is legal using Stockfish's optimization.
// Key insight: non-pinned, non-king, non-en-passant moves are automatically legal.
// This avoids expensive make/unmake for ~90% of moves.
func (p *Position) IsLegalFast(m Move, pinned Bitboard) bool {
	from := m.From()
	to := m.To()
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	checkers := p.Checkers

	// King moves: check destination not attacked (with king removed from occupancy)
	if from == ksq {
		if m.IsCastling() {
			// Castling is not allowed when in check (and was validated during generation)
			return checkers == 0
		}
		occ := p.AllOccupied &^ SquareBB(from)
		return p.AttackersByColor(to, them, occ) == 0
	}

	// When in check, non-king moves must block or capture the checker
	if checkers != 0 {
		// Double check: only king can move
		if checkers.PopCount() > 1 {
			return false
		}

		// Single check: must capture checker or block
		checker := checkers.LSB()
		// Valid targets: the checker square OR squares between checker and king
		validTargets := SquareBB(checker) | Between(checker, ksq)

		// En passant special case: the captured pawn might be the checker
		if m.IsEnPassant() {
			var capturedSq Square
			if us == White {
				capturedSq = to - 8
			} else {
				capturedSq = to + 8
			}
			// If en passant captures the checker, it's potentially valid
			// (still need to verify horizontal pin, use slow path)
			if capturedSq == checker {
				return p.isLegalEnPassant(m)
			}
			// Otherwise can't block with en passant
			return false
		}

		// Move must go to a valid target (block or capture)
		if validTargets&SquareBB(to) == 0 {
			return false
		}

		// Also check pin constraint
		if pinned&SquareBB(from) != 0 && !Aligned(from, to, ksq) {
			return false
		}

		return true
	}

	// Not in check - use normal logic

	// En passant: use slow path (horizontal pin edge case where two pawns are removed)
	if m.IsEnPassant() {
		return p.isLegalEnPassant(m)
	}

	// Non-pinned pieces: automatically legal (cannot expose king)
	if pinned&SquareBB(from) == 0 {
		return true
	}

	// Pinned pieces: legal only if moving along the pin ray
	return Aligned(from, to, ksq)
}

// isLegalEnPassant validates en passant moves using make/unmake. En
// passant is special because it removes two pawns, which can expose
// horizontal attacks on the king that aren't detected by the normal pin
// logic. MakeMove already performs this check and auto-unmakes on
// failure, so this is a thin wrapper.
func (p *Position) isLegalEnPassant(m Move) bool {
	if !p.MakeMove(m) {
		return false
	}
	p.UnmakeMove(m)
	return true
}

// IsLegal returns true if the move is legal (doesn't leave king in check).
// Uses make/unmake for guaranteed correctness. Kept for debugging/validation.
func (p *Position) IsLegal(m Move) bool {
	us := p.SideToMove
	them := us.Other()
	from := m.From()
	ksq := p.KingSquare[us]

	if m.IsCastling() {
		return true // Already validated in generation
	}

	// For king moves, check if destination is attacked
	if from == ksq {
		occ := p.AllOccupied &^ SquareBB(from)
		return p.AttackersByColor(m.To(), them, occ) == 0
	}

	// For all other moves: actually make the move and check
	if !p.MakeMove(m) {
		return false
	}
	p.UnmakeMove(m)
	return true
}

// GenerateChecks generates non-capture moves that give check.
// Used in quiescence search to find forcing moves beyond captures.
func (p *Position) GenerateChecks() *MoveList {
	ml := NewMoveList()
	p.generateChecks(ml)
	return p.filterLegalMoves(ml)
}

// generateChecks generates pseudo-legal non-capture check-giving moves.
func (p *Position) generateChecks(ml *MoveList) {
	us := p.SideToMove
	them := us.Other()
	enemyKing := p.KingSquare[them]
	occupied := p.AllOccupied
	empty := ^occupied

	// Knight checks: find squares that attack enemy king and move knights there
	knightCheckSquares := KnightAttacks(enemyKing) & empty
	knights := p.Pieces[us][Knight]
	for knights != 0 {
		from := knights.PopLSB()
		attacks := KnightAttacks(from) & knightCheckSquares
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to))
		}
	}

	// Bishop checks: find squares on diagonals to enemy king
	bishopCheckSquares := BishopAttacks(enemyKing, occupied) & empty
	bishops := p.Pieces[us][Bishop]
	for bishops != 0 {
		from := bishops.PopLSB()
		attacks := BishopAttacks(from, occupied) & bishopCheckSquares
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to))
		}
	}

	// Rook checks: find squares on files/ranks to enemy king
	rookCheckSquares := RookAttacks(enemyKing, occupied) & empty
	rooks := p.Pieces[us][Rook]
	for rooks != 0 {
		from := rooks.PopLSB()
		attacks := RookAttacks(from, occupied) & rookCheckSquares
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to))
		}
	}

	// Queen checks: both diagonal and straight
	queenCheckSquares := bishopCheckSquares | rookCheckSquares
	queens := p.Pieces[us][Queen]
	for queens != 0 {
		from := queens.PopLSB()
		attacks := QueenAttacks(from, occupied) & queenCheckSquares
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to))
		}
	}
}

// computeNonPawnMaterial recomputes the NonPawnMaterial StateInfo field
// from PieceCount (despite the name it follows the teacher's original
// convention of summing every piece type's value, pawns included).
func (p *Position) computeNonPawnMaterial() [2]int {
	var npm [2]int
	for pt := Pawn; pt < King; pt++ {
		npm[White] += p.PieceCount[White][pt] * PieceValue[pt]
		npm[Black] += p.PieceCount[Black][pt] * PieceValue[pt]
	}
	return npm
}

// updateRepetition computes CurrentState().Repetition for the position
// just pushed by MakeMove: the signed ply-distance to the most recent
// occurrence of the same key within the last min(Rule50, PliesFromNull)
// plies (negative if that earlier occurrence was itself a repetition),
// or 0 if there is none. Grounded on Position::set_state's repetition
// loop, which walks back two plies at a time since repetition requires
// the same side to move.
func (p *Position) updateRepetition() {
	st := p.CurrentState()
	st.Repetition = 0

	end := st.Rule50
	if st.PliesFromNull < end {
		end = st.PliesFromNull
	}
	if end < 4 {
		return
	}

	idx := st.Previous
	if idx >= 0 {
		idx = p.States.At(idx).Previous
	}
	for i := 4; i <= end; i += 2 {
		for step := 0; step < 2 && idx >= 0; step++ {
			idx = p.States.At(idx).Previous
		}
		if idx < 0 {
			break
		}
		candidate := p.States.At(idx)
		if candidate.Key == st.Key {
			if candidate.Repetition != 0 {
				st.Repetition = -i
			} else {
				st.Repetition = i
			}
			return
		}
	}
}

// MakeMove applies m to the position, pushing a new StateInfo recording
// the ply's dirty pieces, captured piece, and recomputed hash/check data.
// Returns false, leaving the position exactly as it was, if there is no
// piece of the side to move on m's from-square or if playing m would
// leave the mover's own king in check; in that case nothing further
// needs to be undone. Whether that piece can actually reach the
// to-square is not checked. When it returns true, the move has been applied and the
// caller owns a matching UnmakeMove call.
func (p *Position) MakeMove(m Move) bool {
	us := p.SideToMove
	them := us.Other()
	from := m.From()
	to := m.To()
	piece := p.PieceAt(from)

	if piece == NoPiece || piece.Color() != us {
		if DebugMoveValidation {
			log.Printf("DEBUG: MakeMove - no %v piece at %v for move %v (hash=%x)", us, from, m, p.Hash)
		}
		return false
	}
	pt := piece.Type()

	if DebugMoveValidation {
		if captured := p.PieceAt(to); captured != NoPiece && captured.Type() == King && !m.IsCastling() {
			log.Printf("MAKEMOVE ILLEGAL: Trying to capture %v King at %v! move=%v hash=%x",
				captured.Color(), to, m, p.Hash)
		}
	}

	prevIdx := p.St
	prev := p.States.At(prevIdx)

	var st StateInfo
	st.MaterialKey = prev.MaterialKey
	st.PawnKey = prev.PawnKey
	st.NonPawnMaterial = prev.NonPawnMaterial
	st.PliesFromNull = prev.PliesFromNull + 1
	st.CapturedPiece = NoPiece
	st.Previous = prevIdx

	hash := p.Hash
	hash ^= zobristSideToMove
	hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	var dirty DirtyPiece
	dirty.Pieces = 1
	dirty.Piece[0] = piece
	dirty.From[0] = from
	dirty.To[1] = NoSquare

	if m.IsCastling() {
		rookFrom := to
		kto := m.KingDestination()
		rto := m.RookDestination()
		rook := NewPiece(Rook, us)

		p.removePiece(from)
		p.removePiece(rookFrom)
		p.setPiece(piece, kto)
		p.setPiece(rook, rto)

		hash ^= zobristPiece[us][King][from]
		hash ^= zobristPiece[us][King][kto]
		hash ^= zobristPiece[us][Rook][rookFrom]
		hash ^= zobristPiece[us][Rook][rto]

		dirty.Pieces = 2
		dirty.To[0] = kto
		dirty.Piece[1] = rook
		dirty.From[1] = rookFrom
		dirty.To[1] = rto
	} else {
		if m.IsEnPassant() {
			var capSq Square
			if us == White {
				capSq = to - 8
			} else {
				capSq = to + 8
			}
			captured := p.removePiece(capSq)
			st.CapturedPiece = captured
			hash ^= zobristPiece[them][Pawn][capSq]
			st.PawnKey ^= zobristPiece[them][Pawn][capSq]

			dirty.Pieces = 2
			dirty.Piece[1] = captured
			dirty.From[1] = capSq
		} else if captured := p.PieceAt(to); captured != NoPiece {
			p.removePiece(to)
			st.CapturedPiece = captured
			hash ^= zobristPiece[them][captured.Type()][to]
			if captured.Type() == Pawn {
				st.PawnKey ^= zobristPiece[them][Pawn][to]
			}

			dirty.Pieces = 2
			dirty.Piece[1] = captured
			dirty.From[1] = to
		}

		p.movePiece(from, to)
		hash ^= zobristPiece[us][pt][from]
		hash ^= zobristPiece[us][pt][to]
		if pt == Pawn {
			st.PawnKey ^= zobristPiece[us][Pawn][from]
			st.PawnKey ^= zobristPiece[us][Pawn][to]
		}
		dirty.To[0] = to

		if m.IsPromotion() {
			promoPt := m.Promotion()
			p.Pieces[us][Pawn] &^= SquareBB(to)
			p.Pieces[us][promoPt] |= SquareBB(to)
			p.board[to] = NewPiece(promoPt, us)
			p.PieceCount[us][Pawn]--
			p.PieceCount[us][promoPt]++
			hash ^= zobristPiece[us][Pawn][to]
			hash ^= zobristPiece[us][promoPt][to]
			st.PawnKey ^= zobristPiece[us][Pawn][to]
			dirty.Piece[0] = NewPiece(promoPt, us)
		}
	}

	// Castling rights: a king move, a rook move, or a capture landing on
	// either a king's or rook's home square all revoke rights through the
	// per-square castlingRightsMask built by setCastlingRight.
	newRights := p.CastlingRights &^ (p.castlingRightsMask[from] | p.castlingRightsMask[to])
	p.CastlingRights = newRights
	hash ^= zobristCastling[newRights]

	// En passant square for a double pawn push, set only when an enemy
	// pawn could actually capture there (matching the FEN parser's
	// legality check, see fen.go).
	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		epSquare := Square((int(from) + int(to)) / 2)
		if PawnAttacks(epSquare, us)&p.Pieces[them][Pawn] != 0 {
			p.EnPassant = epSquare
			hash ^= zobristEnPassant[epSquare.File()]
		}
	}

	if pt == Pawn || st.CapturedPiece != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	st.Rule50 = p.HalfMoveClock

	if us == Black {
		p.FullMoveNumber++
	}

	st.NonPawnMaterial = p.computeNonPawnMaterial()
	st.MaterialKey = MaterialKey(p)
	st.CastlingRights = newRights
	st.EnPassant = p.EnPassant
	st.Dirty = dirty
	st.Key = hash

	p.SideToMove = them
	p.Hash = hash
	p.PawnKey = st.PawnKey

	p.St = p.States.Push(st)

	p.setCheckInfo()
	p.UpdateCheckers()
	p.CurrentState().CheckersBB = p.Checkers
	p.updateRepetition()

	if p.IsSquareAttacked(p.KingSquare[us], them) {
		if DebugMoveValidation {
			log.Printf("MAKEMOVE ILLEGAL: %v left King at %v in check! move=%v hash=%x",
				us, p.KingSquare[us], m, p.Hash)
		}
		p.UnmakeMove(m)
		return false
	}

	return true
}

// UnmakeMove reverts the most recently made move m, restoring board
// state, the flat mirror fields, and p.St to the ply before the matching
// MakeMove call. m must be the same move that MakeMove was last called
// with on this position.
func (p *Position) UnmakeMove(m Move) {
	them := p.SideToMove
	us := them.Other()
	st := p.CurrentState()

	from := m.From()
	to := m.To()

	if m.IsCastling() {
		kto := m.KingDestination()
		rto := m.RookDestination()
		rookFrom := to

		p.removePiece(kto)
		p.removePiece(rto)
		p.setPiece(NewPiece(King, us), from)
		p.setPiece(NewPiece(Rook, us), rookFrom)
	} else {
		pt := p.PieceAt(to).Type()
		if m.IsPromotion() {
			p.Pieces[us][pt] &^= SquareBB(to)
			p.Pieces[us][Pawn] |= SquareBB(to)
			p.board[to] = NewPiece(Pawn, us)
			p.PieceCount[us][pt]--
			p.PieceCount[us][Pawn]++
		}

		p.movePiece(to, from)

		if m.IsEnPassant() {
			var capSq Square
			if us == White {
				capSq = to - 8
			} else {
				capSq = to + 8
			}
			p.setPiece(st.CapturedPiece, capSq)
		} else if st.CapturedPiece != NoPiece {
			p.setPiece(st.CapturedPiece, to)
		}
	}

	prevIdx := st.Previous
	prev := p.States.At(prevIdx)

	p.SideToMove = us
	p.CastlingRights = prev.CastlingRights
	p.EnPassant = prev.EnPassant
	p.HalfMoveClock = prev.Rule50
	p.Hash = prev.Key
	p.PawnKey = prev.PawnKey

	if us == Black {
		p.FullMoveNumber--
	}

	p.St = prevIdx
	p.States.Truncate(prevIdx + 1)

	p.UpdateCheckers()
}

// HasLegalMoves returns true if the side to move has any legal moves.
func (p *Position) HasLegalMoves() bool {
	ml := p.GeneratePseudoLegalMoves()
	pinned := p.ComputePinned()
	for i := 0; i < ml.Len(); i++ {
		if p.IsLegalFast(ml.Get(i), pinned) {
			return true
		}
	}
	return false
}

// IsCheckmate returns true if the position is checkmate.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the position is stalemate.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsInsufficientMaterial returns true if neither side can checkmate.
func (p *Position) IsInsufficientMaterial() bool {
	// If there are any pawns, rooks, or queens, sufficient material
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	// Count minor pieces
	wKnights := p.Pieces[White][Knight].PopCount()
	wBishops := p.Pieces[White][Bishop].PopCount()
	bKnights := p.Pieces[Black][Knight].PopCount()
	bBishops := p.Pieces[Black][Bishop].PopCount()

	// K vs K
	if wKnights+wBishops+bKnights+bBishops == 0 {
		return true
	}

	// K+minor vs K
	if wKnights+wBishops <= 1 && bKnights+bBishops == 0 {
		return true
	}
	if bKnights+bBishops <= 1 && wKnights+wBishops == 0 {
		return true
	}

	return false
}
