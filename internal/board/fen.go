package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a FEN string and returns a Position. Supports X-FEN /
// Shredder castling tags (A-H, a-h) in addition to standard KQkq.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, fmt.Errorf("invalid FEN: need at least 4 fields, got %d", len(parts))
	}

	pos := &Position{}
	pos.Clear()

	// Parse piece placement (field 0)
	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	// Parse side to move (field 1)
	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("invalid side to move: %s", parts[1])
	}

	// Parse castling rights (field 2) -- needs the board already placed.
	if err := parseCastlingRights(pos, parts[2]); err != nil {
		return nil, err
	}

	// Parse en passant square (field 3)
	epSquare := NoSquare
	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid en passant square: %s", parts[3])
		}
		epSquare = sq
	}

	// Parse half-move clock (field 4, optional); clamp to >= 0.
	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil {
			return nil, fmt.Errorf("invalid half-move clock: %s", parts[4])
		}
		if hmc < 0 {
			hmc = 0
		}
		pos.HalfMoveClock = hmc
	}

	// Parse full-move number (field 5, optional); fullmove 0 tolerated as 1.
	pos.FullMoveNumber = 1
	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil {
			return nil, fmt.Errorf("invalid full-move number: %s", parts[5])
		}
		if fmn < 1 {
			fmn = 1
		}
		pos.FullMoveNumber = fmn
	}

	pos.updateOccupied()
	pos.findKings()

	// Legal en-passant detection: a pawn of the side to move must attack
	// the ep square, an enemy pawn must sit on the push square behind
	// it, and both the ep square and the square behind it must be empty.
	pos.EnPassant = NoSquare
	if epSquare != NoSquare {
		us := pos.SideToMove
		them := us.Other()
		movedPawnSq := epSquare - pawnPushDelta(us) // square the double-pushed pawn now occupies
		behindSq := epSquare + pawnPushDelta(us)    // square behind the ep target (the mover's start)
		if PawnAttacks(epSquare, them)&pos.Pieces[us][Pawn] != 0 &&
			pos.Pieces[them][Pawn]&SquareBB(movedPawnSq) != 0 &&
			pos.IsEmpty(epSquare) && pos.IsEmpty(behindSq) {
			pos.EnPassant = epSquare
		}
	}

	pos.Hash = pos.ComputeHash()
	pos.PawnKey = pos.ComputePawnKey()

	st := pos.CurrentState()
	st.MaterialKey = MaterialKey(pos)
	st.PawnKey = pos.PawnKey
	st.CastlingRights = pos.CastlingRights
	st.Rule50 = pos.HalfMoveClock
	st.PliesFromNull = 0
	st.EnPassant = pos.EnPassant
	st.Key = pos.Hash
	st.CapturedPiece = NoPiece
	st.Repetition = 0
	for pt := Pawn; pt < King; pt++ {
		st.NonPawnMaterial[White] += pos.Pieces[White][pt].PopCount() * PieceValue[pt]
		st.NonPawnMaterial[Black] += pos.Pieces[Black][pt].PopCount() * PieceValue[pt]
	}

	pos.setCheckInfo()
	pos.UpdateCheckers()

	return pos, nil
}

// pawnPushDelta returns the square delta of a single pawn push for color c,
// expressed as a Square so it can be added/subtracted from another Square
// with wraparound arithmetic cancelling correctly (mod-256 arithmetic on
// an unsigned 0..63 domain behaves like signed arithmetic here).
func pawnPushDelta(c Color) Square {
	var zero Square
	if c == White {
		return zero + 8
	}
	return zero - 8
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("invalid piece placement: need 8 ranks, got %d", len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0

		for _, c := range rankStr {
			if file > 7 {
				return fmt.Errorf("too many squares in rank %d", rank+1)
			}

			if c >= '1' && c <= '8' {
				file += int(c - '0')
			} else {
				piece := PieceFromChar(byte(c))
				if piece == NoPiece {
					return fmt.Errorf("invalid piece character: %c", c)
				}
				sq := NewSquare(file, rank)
				pos.setPiece(piece, sq)
				file++
			}
		}

		if file != 8 {
			return fmt.Errorf("invalid number of squares in rank %d: got %d", rank+1, file)
		}
	}

	return nil
}

// findKingOnRank scans rank for color c's king (board mailbox must
// already be populated by parsePiecePlacement).
func findKingOnRank(pos *Position, c Color, rank int) Square {
	for file := 0; file < 8; file++ {
		sq := NewSquare(file, rank)
		if p := pos.PieceAt(sq); p.Type() == King && p.Color() == c {
			return sq
		}
	}
	return NoSquare
}

// findOutermostRook finds the rook of color c on rank that is the
// castling partner for ksq: the nearest rook to the outside of the
// board on the king's side (kingSide=true: east of the king; false:
// west of the king) — the standard-chess convention for K/Q letters.
func findOutermostRook(pos *Position, c Color, rank int, ksq Square, kingSide bool) Square {
	if kingSide {
		for file := 7; file > ksq.File(); file-- {
			sq := NewSquare(file, rank)
			if p := pos.PieceAt(sq); p.Type() == Rook && p.Color() == c {
				return sq
			}
		}
	} else {
		for file := 0; file < ksq.File(); file++ {
			sq := NewSquare(file, rank)
			if p := pos.PieceAt(sq); p.Type() == Rook && p.Color() == c {
				return sq
			}
		}
	}
	return NoSquare
}

// parseCastlingRights parses the castling rights section of a FEN
// string, recognising standard KQkq letters and Shredder/X-FEN file
// letters (A-H / a-h). Presence of a Shredder letter marks the position
// Chess960.
func parseCastlingRights(pos *Position, castling string) error {
	if castling == "-" {
		return nil
	}

	for _, ch := range castling {
		var c Color
		if ch >= 'A' && ch <= 'Z' {
			c = White
		} else {
			c = Black
		}
		rank := 0
		if c == Black {
			rank = 7
		}

		ksq := findKingOnRank(pos, c, rank)
		if ksq == NoSquare {
			return fmt.Errorf("castling rights reference missing king for %q", string(ch))
		}

		var rsq Square
		switch {
		case ch == 'K' || ch == 'k':
			rsq = findOutermostRook(pos, c, rank, ksq, true)
		case ch == 'Q' || ch == 'q':
			rsq = findOutermostRook(pos, c, rank, ksq, false)
		case (ch >= 'A' && ch <= 'H') || (ch >= 'a' && ch <= 'h'):
			upper := ch
			if upper >= 'a' {
				upper -= 'a' - 'A'
			}
			file := int(upper - 'A')
			rsq = NewSquare(file, rank)
			pos.Chess960 = true
		default:
			return fmt.Errorf("invalid castling character: %c", ch)
		}

		if rsq == NoSquare {
			return fmt.Errorf("castling rights reference missing rook for %q", string(ch))
		}
		if p := pos.PieceAt(rsq); p.Type() != Rook || p.Color() != c {
			return fmt.Errorf("castling rights reference missing rook for %q", string(ch))
		}

		pos.setCastlingRight(c, ksq, rsq)
	}

	return nil
}

// ToFEN returns the FEN representation of the position.
func (p *Position) ToFEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, rank)
			piece := p.PieceAt(sq)
			if piece == NoPiece {
				empty++
			} else {
				if empty > 0 {
					sb.WriteString(strconv.Itoa(empty))
					empty = 0
				}
				sb.WriteString(piece.String())
			}
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(p.CastlingFEN())

	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())

	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))

	return sb.String()
}

// ComputeHash computes the Zobrist hash for the position from scratch.
func (p *Position) ComputeHash() uint64 {
	var hash uint64

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				hash ^= zobristPiece[c][pt][sq]
			}
		}
	}

	if p.SideToMove == Black {
		hash ^= zobristSideToMove
	}

	hash ^= zobristCastling[p.CastlingRights]

	if p.EnPassant != NoSquare {
		hash ^= zobristEnPassant[p.EnPassant.File()]
	}

	return hash
}

// ComputePawnKey computes the pawn hash key from scratch. A position
// with no pawns hashes to zobristNoPawns rather than zero.
func (p *Position) ComputePawnKey() uint64 {
	key := zobristNoPawns

	for c := White; c <= Black; c++ {
		bb := p.Pieces[c][Pawn]
		for bb != 0 {
			sq := bb.PopLSB()
			key ^= zobristPiece[c][Pawn][sq]
		}
	}

	return key
}
