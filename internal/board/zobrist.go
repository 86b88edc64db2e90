package board

// Zobrist hash keys for position hashing.
// Uses PRNG with fixed seed for reproducibility.
var (
	zobristPiece      [2][7][64]uint64 // [Color][PieceType][Square] - 7 to handle NoPieceType safely
	zobristEnPassant  [8]uint64        // One per file
	zobristCastling   [16]uint64       // All 16 castling combinations
	zobristSideToMove uint64           // XOR when black to move
	zobristNoPawns    uint64           // Pawn-key baseline for positions with no pawns
	zobristMaterial   [2][6][11]uint64 // [Color][PieceType][count] material-key keys
)

func init() {
	initZobrist()
	initCuckoo()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x98F107A2BEEF1234) // Fixed seed

	// Piece keys
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}

	// En passant keys (one per file)
	for file := 0; file < 8; file++ {
		zobristEnPassant[file] = rng.next()
	}

	// Castling keys (all 16 combinations)
	for i := 0; i < 16; i++ {
		zobristCastling[i] = rng.next()
	}

	// Side to move key
	zobristSideToMove = rng.next()

	// "No pawns" baseline key, so a pawn-less position hashes to a
	// stable non-zero pawn key instead of 0.
	zobristNoPawns = rng.next()

	// Material keys, one per (color, piece type, count up to 10).
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for n := 0; n <= 10; n++ {
				zobristMaterial[c][pt][n] = rng.next()
			}
		}
	}
}

// MaterialKey computes a from-scratch Zobrist key over piece counts only
// (position-independent), used as Position.StateInfo.MaterialKey.
func MaterialKey(p *Position) uint64 {
	var key uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			n := p.PieceCount[c][pt]
			if n > 10 {
				n = 10
			}
			key ^= zobristMaterial[c][pt][n]
		}
	}
	return key
}

// ZobristPiece returns the Zobrist key for a piece on a square.
func ZobristPiece(c Color, pt PieceType, sq Square) uint64 {
	return zobristPiece[c][pt][sq]
}

// ZobristEnPassant returns the Zobrist key for an en passant file.
func ZobristEnPassant(file int) uint64 {
	return zobristEnPassant[file]
}

// ZobristCastling returns the Zobrist key for castling rights.
func ZobristCastling(cr CastlingRights) uint64 {
	return zobristCastling[cr]
}

// ZobristSideToMove returns the Zobrist key for side to move.
func ZobristSideToMove() uint64 {
	return zobristSideToMove
}

// ZobristNoPawns returns the baseline pawn-key XORed into every position,
// so a position with no pawns at all has a distinctive non-zero pawn key.
func ZobristNoPawns() uint64 {
	return zobristNoPawns
}
