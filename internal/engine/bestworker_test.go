package engine

import (
	"testing"

	"github.com/cavefish/chesscore/internal/board"
)

func TestSelectBestWorkerPrefersMate(t *testing.T) {
	results := []WorkerResult{
		{WorkerID: 0, Depth: 20, Score: 50, Move: board.NewMove(board.E2, board.E4)},
		{WorkerID: 1, Depth: 10, Score: MateScore - 3, Move: board.NewMove(board.D2, board.D4)},
	}

	best := SelectBestWorker(results)
	if best.WorkerID != 1 {
		t.Errorf("expected worker 1 (mate score) to win, got worker %d", best.WorkerID)
	}
}

func TestSelectBestWorkerPrefersDeeperOnTie(t *testing.T) {
	results := []WorkerResult{
		{WorkerID: 0, Depth: 12, Score: 30, Nodes: 1000},
		{WorkerID: 1, Depth: 14, Score: 30, Nodes: 500},
	}

	best := SelectBestWorker(results)
	if best.WorkerID != 1 {
		t.Errorf("expected deeper worker 1 to win, got worker %d", best.WorkerID)
	}
}

func TestSelectBestWorkerBreaksTieByNodes(t *testing.T) {
	results := []WorkerResult{
		{WorkerID: 0, Depth: 10, Score: 30, Nodes: 1000},
		{WorkerID: 1, Depth: 10, Score: 30, Nodes: 5000},
	}

	best := SelectBestWorker(results)
	if best.WorkerID != 1 {
		t.Errorf("expected higher-node worker 1 to win tie, got worker %d", best.WorkerID)
	}
}

func TestSelectBestWorkerBothMateFewerPliesWins(t *testing.T) {
	results := []WorkerResult{
		{WorkerID: 0, Depth: 10, Score: MateScore - 5},
		{WorkerID: 1, Depth: 8, Score: MateScore - 1},
	}

	best := SelectBestWorker(results)
	if best.WorkerID != 1 {
		t.Errorf("expected worker 1 (shorter mate) to win, got worker %d", best.WorkerID)
	}
}
