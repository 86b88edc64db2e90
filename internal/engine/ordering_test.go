package engine

import (
	"testing"

	"github.com/cavefish/chesscore/internal/board"
)

func TestStatBonusAndMalusAreBounded(t *testing.T) {
	if b := statBonus(1); b <= 0 {
		t.Errorf("statBonus(1) = %d, want positive", b)
	}
	if b := statBonus(100); b > 1117 {
		t.Errorf("statBonus(100) = %d, want <= 1117", b)
	}
	if m := statMalus(100); m > 1206 {
		t.Errorf("statMalus(100) = %d, want <= 1206", m)
	}
}

func TestSaturateStaysWithinD(t *testing.T) {
	const d = 7183
	var e int16

	// Repeatedly apply the maximum bonus; the entry must never exceed d.
	for i := 0; i < 1000; i++ {
		saturate(&e, d, d)
		if int(e) > d || int(e) < -d {
			t.Fatalf("entry exceeded D=%d bound: %d", d, e)
		}
	}
	if int(e) != d {
		t.Errorf("expected entry to converge to D=%d, got %d", d, e)
	}

	// Repeatedly apply the maximum malus; it must climb back down but
	// never overshoot -d.
	for i := 0; i < 1000; i++ {
		saturate(&e, -d, d)
		if int(e) > d || int(e) < -d {
			t.Fatalf("entry exceeded D=%d bound: %d", d, e)
		}
	}
	if int(e) != -d {
		t.Errorf("expected entry to converge to -D=%d, got %d", -d, e)
	}
}

func TestMoveOrdererHistorySaturates(t *testing.T) {
	mo := NewMoveOrderer()
	m := board.NewMove(board.E2, board.E4)

	for i := 0; i < 500; i++ {
		mo.UpdateHistory(board.White, m, butterflyD)
	}

	score := mo.GetHistoryScore(board.White, m)
	if score > butterflyD || score < -butterflyD {
		t.Errorf("butterfly history score %d exceeds D=%d", score, butterflyD)
	}
}

func TestMoveOrdererCaptureHistorySaturates(t *testing.T) {
	mo := NewMoveOrderer()

	for i := 0; i < 500; i++ {
		mo.UpdateCaptureHistory(board.WhiteKnight, board.E5, board.Pawn, capturePieceToD)
	}

	score := mo.GetCaptureHistoryScore(board.WhiteKnight, board.E5, board.Pawn)
	if score > capturePieceToD || score < -capturePieceToD {
		t.Errorf("capture history score %d exceeds D=%d", score, capturePieceToD)
	}
}

func TestContinuationHistorySaturates(t *testing.T) {
	mo := NewMoveOrderer()
	tbl := mo.ContinuationTable(false, false, board.WhiteKnight, board.F3)

	for i := 0; i < 500; i++ {
		tbl.Update(board.WhiteKnight, board.F3, pieceToD)
	}

	score := tbl.Get(board.WhiteKnight, board.F3)
	if score > pieceToD || score < -pieceToD {
		t.Errorf("continuation history score %d exceeds D=%d", score, pieceToD)
	}
}

func TestPawnHistorySaturates(t *testing.T) {
	mo := NewMoveOrderer()
	idx := PawnHistoryIndex(0xdeadbeef)

	for i := 0; i < 500; i++ {
		mo.UpdatePawnHistory(idx, board.WhitePawn, board.D4, pawnHistoryD)
	}

	score := mo.GetPawnHistoryScore(idx, board.WhitePawn, board.D4)
	if score > pawnHistoryD || score < -pawnHistoryD {
		t.Errorf("pawn history score %d exceeds D=%d", score, pawnHistoryD)
	}
}

func TestCorrectionHistorySaturates(t *testing.T) {
	ch := NewCorrectionHistory()
	pos := board.NewPosition()

	for i := 0; i < 500; i++ {
		ch.Update(pos, 10000, 0, 20)
	}

	corr := ch.Get(pos) * correctionHistoryScale
	if corr > correctionHistoryLimit || corr < -correctionHistoryLimit {
		t.Errorf("correction history value %d exceeds D=%d", corr, correctionHistoryLimit)
	}
}
