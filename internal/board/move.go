package board

import "fmt"

// Move encodes a chess move in 16 bits:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// bits 12-13: promotion piece (0=Knight, 1=Bishop, 2=Rook, 3=Queen)
// bits 14-15: flags (0=normal, 1=promotion, 2=en passant, 3=castling)
//
// For castling, the to-square encodes the rook's square, not the king's
// destination square — the same encoding standard and Chess960 castling,
// since in Chess960 the king's destination alone does not identify which
// rook is involved.
type Move uint16

// Move flags
const (
	FlagNormal    uint16 = 0 << 14
	FlagPromotion uint16 = 1 << 14
	FlagEnPassant uint16 = 2 << 14
	FlagCastling  uint16 = 3 << 14
)

// NoMove represents an invalid or null move.
const NoMove Move = 0

// NewMove creates a normal move.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<6
}

// NewPromotion creates a promotion move.
func NewPromotion(from, to Square, promo PieceType) Move {
	// promo: Knight=0, Bishop=1, Rook=2, Queen=3
	promoIdx := promo - Knight
	return Move(from) | Move(to)<<6 | Move(promoIdx)<<12 | Move(FlagPromotion)
}

// NewEnPassant creates an en passant capture move.
func NewEnPassant(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(FlagEnPassant)
}

// NewCastling creates a castling move. rookFrom is the castling rook's
// square (the to-square of this move), not the king's landing square.
func NewCastling(kingFrom, rookFrom Square) Move {
	return Move(kingFrom) | Move(rookFrom)<<6 | Move(FlagCastling)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square. For castling moves this is the
// rook's square (see NewCastling); use KingDestination for the king's
// landing square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Flag returns the move flag.
func (m Move) Flag() uint16 {
	return uint16(m) & 0xC000
}

// Promotion returns the promotion piece type (only valid if IsPromotion() is true).
func (m Move) Promotion() PieceType {
	return PieceType((m>>12)&3) + Knight
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return m.Flag() == FlagPromotion
}

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool {
	return m.Flag() == FlagCastling
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// IsKingSideCastling returns true if To() (the rook square) lies east of From().
func (m Move) IsKingSideCastling() bool {
	return m.To() > m.From()
}

// KingDestination returns the king's landing square for a castling move,
// using the standard-chess convention (g-file for king-side, c-file for
// queen-side) regardless of where the rook started.
func (m Move) KingDestination() Square {
	rank := m.From().Rank()
	if m.IsKingSideCastling() {
		return NewSquare(6, rank) // g-file
	}
	return NewSquare(2, rank) // c-file
}

// RookDestination returns the castling rook's landing square using the
// standard-chess convention (f-file for king-side, d-file for queen-side).
func (m Move) RookDestination() Square {
	rank := m.From().Rank()
	if m.IsKingSideCastling() {
		return NewSquare(5, rank) // f-file
	}
	return NewSquare(3, rank) // d-file
}

// IsCapture returns true if this move captures a piece.
func (m Move) IsCapture(pos *Position) bool {
	if m.IsEnPassant() {
		return true
	}
	if m.IsCastling() {
		return false
	}
	return !pos.IsEmpty(m.To())
}

// IsQuiet returns true if this is not a capture or promotion.
func (m Move) IsQuiet(pos *Position) bool {
	return !m.IsCapture(pos) && !m.IsPromotion()
}

// String returns the UCI long-algebraic form of the move using the
// standard-chess castling convention (king-to-target square), e.g.
// "e2e4", "e7e8q", "e1g1". Use FormatUCI for the Chess960 convention.
func (m Move) String() string {
	return FormatUCI(m, false)
}

// FormatUCI renders m in UCI long-algebraic notation. When chess960 is
// true, castling moves are written king-to-rook-square; otherwise they
// use the standard king-to-target-square convention. Both conventions
// describe the same internal Move value (see NewCastling).
func FormatUCI(m Move, chess960 bool) string {
	if m == NoMove {
		return "0000"
	}

	from := m.From()
	to := m.To()
	if m.IsCastling() && !chess960 {
		to = m.KingDestination()
	}

	s := from.String() + to.String()

	if m.IsPromotion() {
		promoChars := []byte{'n', 'b', 'r', 'q'}
		s += string(promoChars[m.Promotion()-Knight])
	}

	return s
}

// ParseMove parses a UCI long-algebraic move string against pos, which
// must reflect the position the move is to be played in. Accepts both
// the standard king-to-target castling notation and, when pos.Chess960
// is set, the king-to-rook notation.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	// Check for promotion
	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		return NewPromotion(from, to, promo), nil
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}

	pt := piece.Type()
	us := piece.Color()

	if pt == King {
		// Chess960 (and UCI_Chess960 engines in general) send the king's
		// move directly to the rook's square.
		if rookSq, ok := pos.CastlingRookSquareFor(us, to); ok {
			return NewCastling(from, rookSq), nil
		}
		// Standard notation: king moves two squares toward the rook.
		if abs(int(to)-int(from)) == 2 {
			kingSide := to > from
			if rookSq, ok := pos.CastlingRookSquareForSide(us, kingSide); ok {
				return NewCastling(from, rookSq), nil
			}
		}
	}

	if pt == Pawn && to == pos.EnPassant {
		return NewEnPassant(from, to), nil
	}

	return NewMove(from, to), nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set sets the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
