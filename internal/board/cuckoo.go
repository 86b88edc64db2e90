package board

// Cuckoo repetition table (Marcel van Kervinck's algorithm), grounded on
// Position::init()'s cuckoo construction. For every reversible non-pawn
// move (piece, s1, s2) with s1 < s2 where the piece attacks s2 from s1 on
// an otherwise empty board, the table records the Zobrist key the move
// toggles and the move itself, so the search can test in O(1) whether a
// given key is reachable by one reversible move from the current one.
const cuckooSize = 8192

var (
	cuckoo     [cuckooSize]uint64
	cuckooMove [cuckooSize]Move
)

func cuckooH1(h uint64) int {
	return int(h & (cuckooSize - 1))
}

func cuckooH2(h uint64) int {
	return int((h >> 16) & (cuckooSize - 1))
}

// initCuckoo builds the global cuckoo table. Must run after Zobrist keys
// and attack tables are initialised (see zobrist.go's init, which calls
// this last). Exactly 3668 reversible non-pawn moves exist on an empty
// 8x8 board; this is asserted at the end.
func initCuckoo() {
	for i := range cuckoo {
		cuckoo[i] = 0
		cuckooMove[i] = NoMove
	}

	count := 0
	for c := White; c <= Black; c++ {
		for pt := Knight; pt <= King; pt++ {
			for s1 := A1; s1 <= H8; s1++ {
				for s2 := s1 + 1; s2 <= H8; s2++ {
					if pieceAttacksEmptyBoard(pt, s1)&SquareBB(s2) == 0 {
						continue
					}

					move := NewMove(s1, s2)
					key := ZobristPiece(c, pt, s1) ^ ZobristPiece(c, pt, s2) ^ zobristSideToMove

					i := cuckooH1(key)
					for {
						cuckoo[i], key = key, cuckoo[i]
						cuckooMove[i], move = move, cuckooMove[i]
						if move == NoMove {
							break
						}
						if i == cuckooH1(key) {
							i = cuckooH2(key)
						} else {
							i = cuckooH1(key)
						}
					}
					count++
				}
			}
		}
	}

	if count != 3668 {
		panic("cuckoo table: expected exactly 3668 reversible non-pawn moves")
	}
}

// pieceAttacksEmptyBoard returns the attack bitboard of piece type pt
// standing on sq with an empty board (used only to seed the cuckoo table;
// king/knight attacks are occupancy-independent, sliders use zero
// occupancy deliberately).
func pieceAttacksEmptyBoard(pt PieceType, sq Square) Bitboard {
	switch pt {
	case Knight:
		return KnightAttacks(sq)
	case Bishop:
		return BishopAttacks(sq, 0)
	case Rook:
		return RookAttacks(sq, 0)
	case Queen:
		return BishopAttacks(sq, 0) | RookAttacks(sq, 0)
	case King:
		return KingAttacks(sq)
	default:
		return 0
	}
}

// CuckooLookup reports whether key matches a reversible move's toggle
// key in the table, returning that move. Used by upcoming-repetition
// style search optimisations; core correctness of is_draw/has_repeated
// does not depend on it (those walk the StateInfo chain directly).
func CuckooLookup(key uint64) (Move, bool) {
	i := cuckooH1(key)
	if cuckoo[i] == key {
		return cuckooMove[i], true
	}
	i = cuckooH2(key)
	if cuckoo[i] == key {
		return cuckooMove[i], true
	}
	return NoMove, false
}

// CuckooCount returns the number of populated entries, for testing the
// exactly-3668 invariant without re-running init.
func CuckooCount() int {
	n := 0
	for i := range cuckoo {
		if cuckooMove[i] != NoMove {
			n++
		}
	}
	return n
}
