package engine

import (
	"testing"

	"github.com/cavefish/chesscore/internal/board"
)

func TestTranspositionTableWriteAndProbe(t *testing.T) {
	tt := NewTranspositionTable(1) // 1MB

	key := uint64(0x0123456789ABCDEF)
	found, _, writer := tt.Probe(key)
	if found {
		t.Fatal("expected miss on an empty table")
	}

	writer.Write(key, 123, true, TTExact, 5, board.NewMove(board.E2, board.E4), 110, tt.Generation())

	found, data, _ := tt.Probe(key)
	if !found {
		t.Fatal("expected hit after write")
	}
	if data.Value != 123 || data.Depth != 5 || data.Bound != TTExact || !data.IsPV {
		t.Errorf("unexpected TT data: %+v", data)
	}
	if data.Move != board.NewMove(board.E2, board.E4) {
		t.Errorf("expected move to round-trip, got %s", data.Move.String())
	}
}

func TestTranspositionTableWritePreservesMoveOnShallowerBound(t *testing.T) {
	tt := NewTranspositionTable(1)
	key := uint64(0xAAAABBBBCCCCDDDD)
	move := board.NewMove(board.D2, board.D4)

	_, _, writer := tt.Probe(key)
	writer.Write(key, 50, false, TTLowerBound, 10, move, 40, tt.Generation())

	// A shallower, non-exact write for the same key with no move given
	// should not lose the existing best move.
	_, _, writer2 := tt.Probe(key)
	writer2.Write(key, 55, false, TTLowerBound, 3, board.NoMove, 45, tt.Generation())

	_, data, _ := tt.Probe(key)
	if data.Move != move {
		t.Errorf("expected preserved move %s, got %s", move.String(), data.Move.String())
	}
}

func TestTranspositionTableClear(t *testing.T) {
	tt := NewTranspositionTable(1)
	key := uint64(42)
	_, _, writer := tt.Probe(key)
	writer.Write(key, 1, false, TTExact, 1, board.NoMove, 0, tt.Generation())

	if found, _, _ := tt.Probe(key); !found {
		t.Fatal("expected hit before clear")
	}

	tt.Clear()

	if found, _, _ := tt.Probe(key); found {
		t.Error("expected miss after clear")
	}
}

func TestTranspositionTableNewSearchAdvancesGeneration(t *testing.T) {
	tt := NewTranspositionTable(1)
	gen0 := tt.Generation()
	tt.NewSearch()
	gen1 := tt.Generation()
	if gen1 == gen0 {
		t.Error("expected generation to change after NewSearch")
	}
}

func TestClusterCountNotRoundedToPowerOfTwo(t *testing.T) {
	// 3MB / 32 bytes-per-cluster = 98304 clusters, not a power of 2.
	tt := NewTranspositionTable(3)
	if tt.Size()&(tt.Size()-1) == 0 {
		t.Errorf("expected a non-power-of-2 cluster count, got %d", tt.Size())
	}
}

func TestMulHi64(t *testing.T) {
	// mul_hi64(x, n) should stay within [0, n).
	n := uint64(98304)
	for _, x := range []uint64{0, 1, ^uint64(0), 0x0123456789ABCDEF} {
		hi := mulHi64(x, n)
		if hi >= n {
			t.Errorf("mulHi64(%d, %d) = %d, want < %d", x, n, hi, n)
		}
	}
}
