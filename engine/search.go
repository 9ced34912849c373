package engine

import (
	"context"
	"errors"
	"sort"
	"time"
)

const (
	winScore = 10000
	infinity = 1 << 30
)

// errDeadline aborts the current deepening iteration. It is internal control
// flow and never escapes ComputeMove.
var errDeadline = errors.New("engine: search deadline exceeded")

type searcher struct {
	board    *Board
	k        int
	mover    Cell
	tt       *transpositionTable
	stats    *SearchStats
	ctx      context.Context
	deadline time.Time
	nodes    int64
}

func (s *searcher) expired() bool {
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		return true
	}
	// Polling ctx.Err on every node is measurable; sample it instead.
	if s.nodes&255 == 0 && s.ctx.Err() != nil {
		return true
	}
	return false
}

// alphaBeta searches the subtree below the current board position. toMove
// owns the next stone; maximizing is true when toMove == s.mover. depth is
// plies from the root, used to prefer faster wins and slower losses. The
// returned line is the principal variation from this node downward.
func (s *searcher) alphaBeta(depth, maxDepth int, toMove Cell, maximizing bool, alpha, beta int) (int, []Move, error) {
	s.nodes++
	s.stats.Nodes++
	if s.expired() {
		return 0, nil, errDeadline
	}

	if winner := s.board.Winner(s.k); winner != CellEmpty {
		if winner == s.mover {
			return winScore - depth, nil, nil
		}
		return -winScore + depth, nil, nil
	}
	if depth >= maxDepth {
		return Evaluate(s.board, s.k, s.mover), nil, nil
	}
	if s.board.IsFull() {
		return 0, nil, nil
	}

	key := searchKey(s.board, toMove)
	s.stats.TTProbes++
	if score, flag, pv, ok := s.tt.probe(key); ok {
		// A bound entry is usable only when it already decides this window;
		// otherwise it tightens the window and the search proceeds.
		switch flag {
		case ttExact:
			s.stats.TTHits++
			return score, pv, nil
		case ttLower:
			if score >= beta {
				s.stats.TTHits++
				return score, pv, nil
			}
			if score > alpha {
				alpha = score
			}
		case ttUpper:
			if score <= alpha {
				s.stats.TTHits++
				return score, pv, nil
			}
			if score < beta {
				beta = score
			}
		}
	}
	alphaIn, betaIn := alpha, beta

	moves := s.orderedMoves(toMove, maximizing)
	var (
		best   int
		bestPV []Move
	)
	if maximizing {
		best = -infinity
	} else {
		best = infinity
	}
	for _, move := range moves {
		s.board.Apply(move, toMove)
		score, childPV, err := s.alphaBeta(depth+1, maxDepth, toMove.Opponent(), !maximizing, alpha, beta)
		s.board.Undo(move)
		if err != nil {
			return 0, nil, err
		}
		if maximizing {
			if score > best {
				best = score
				bestPV = prependMove(move, childPV)
			}
			if score > alpha {
				alpha = score
			}
		} else {
			if score < best {
				best = score
				bestPV = prependMove(move, childPV)
			}
			if score < beta {
				beta = score
			}
		}
		if beta <= alpha {
			s.stats.Cutoffs++
			break
		}
	}

	flag := ttExact
	if best <= alphaIn {
		flag = ttUpper
	} else if best >= betaIn {
		flag = ttLower
	}
	s.stats.TTStores++
	s.tt.store(key, best, flag, bestPV)
	return best, bestPV, nil
}

// orderedMoves sorts the legal moves by the ordering heuristic, best first
// for the maximizer and worst first for the minimizer.
func (s *searcher) orderedMoves(toMove Cell, maximizing bool) []Move {
	type scoredMove struct {
		score int
		move  Move
	}
	legal := s.board.LegalMoves()
	scored := make([]scoredMove, 0, len(legal))
	for _, move := range legal {
		scored = append(scored, scoredMove{score: orderScore(s.board, s.k, move, toMove), move: move})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if maximizing {
			return scored[i].score > scored[j].score
		}
		return scored[i].score < scored[j].score
	})
	moves := make([]Move, 0, len(scored))
	for _, entry := range scored {
		moves = append(moves, entry.move)
	}
	return moves
}

func prependMove(move Move, tail []Move) []Move {
	pv := make([]Move, 0, len(tail)+1)
	pv = append(pv, move)
	pv = append(pv, tail...)
	return pv
}
