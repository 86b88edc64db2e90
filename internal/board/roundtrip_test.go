package board

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// positionSnapshot captures the externally observable fields of a Position
// so round-trip comparisons don't need to reach into unexported bookkeeping
// (the mailbox array, castling-rights mask) that go-cmp can't diff directly.
type positionSnapshot struct {
	Pieces         [2][6]Bitboard
	Occupied       [2]Bitboard
	AllOccupied    Bitboard
	PieceCount     [2][6]int
	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int
	Hash           uint64
	PawnKey        uint64
	Checkers       Bitboard
	KingSquare     [2]Square
}

func snapshot(p *Position) positionSnapshot {
	return positionSnapshot{
		Pieces:         p.Pieces,
		Occupied:       p.Occupied,
		AllOccupied:    p.AllOccupied,
		PieceCount:     p.PieceCount,
		SideToMove:     p.SideToMove,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		FullMoveNumber: p.FullMoveNumber,
		Hash:           p.Hash,
		PawnKey:        p.PawnKey,
		Checkers:       p.Checkers,
		KingSquare:     p.KingSquare,
	}
}

// TestMakeUnmakeRoundTrip verifies that every legal move from a handful of
// positions leaves the position bit-for-bit identical after MakeMove followed
// by UnmakeMove, across every externally observable field at once.
func TestMakeUnmakeRoundTrip(t *testing.T) {
	fens := []string{
		"", // starting position via NewPosition
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
		"8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1",
	}

	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			var pos *Position
			if fen == "" {
				pos = NewPosition()
			} else {
				var err error
				pos, err = ParseFEN(fen)
				if err != nil {
					t.Fatalf("ParseFEN: %v", err)
				}
			}

			before := snapshot(pos)
			moves := pos.GenerateLegalMoves()

			for i := 0; i < moves.Len(); i++ {
				m := moves.Get(i)
				if !pos.MakeMove(m) {
					continue
				}
				pos.UnmakeMove(m)

				after := snapshot(pos)
				if diff := cmp.Diff(before, after); diff != "" {
					t.Errorf("position did not round-trip after %s (-before +after):\n%s", m.String(), diff)
				}
			}
		})
	}
}
