package engine

// SelectBestWorker picks the result a multi-worker search should report,
// mirroring the original engine's thread-voting rule: a result carrying a
// mate score wins outright; otherwise the deepest result with the best
// score wins, ties broken by nodes searched. results must be non-empty.
func SelectBestWorker(results []WorkerResult) WorkerResult {
	best := results[0]
	bestIsMate := isMateScore(best.Score)

	for _, r := range results[1:] {
		rIsMate := isMateScore(r.Score)

		switch {
		case rIsMate && !bestIsMate:
			best, bestIsMate = r, true
		case rIsMate && bestIsMate:
			if r.Score > best.Score {
				best = r
			}
		case !rIsMate && bestIsMate:
			// best already carries a mate score, keep it.
		default:
			if r.Depth > best.Depth ||
				(r.Depth == best.Depth && r.Score > best.Score) ||
				(r.Depth == best.Depth && r.Score == best.Score && r.Nodes > best.Nodes) {
				best = r
			}
		}
	}

	return best
}

func isMateScore(score int) bool {
	return score > MateScore-100 || score < -MateScore+100
}
