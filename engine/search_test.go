package engine

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"
)

// bruteForce is a plain minimax with no pruning and no caching, used as the
// reference the pruned search must agree with.
func bruteForce(b *Board, k int, mover, toMove Cell, depth, maxDepth int) int {
	if winner := b.Winner(k); winner != CellEmpty {
		if winner == mover {
			return winScore - depth
		}
		return -winScore + depth
	}
	if depth >= maxDepth {
		return Evaluate(b, k, mover)
	}
	if b.IsFull() {
		return 0
	}
	maximizing := toMove == mover
	best := -infinity
	if !maximizing {
		best = infinity
	}
	for _, move := range b.LegalMoves() {
		b.Apply(move, toMove)
		score := bruteForce(b, k, mover, toMove.Opponent(), depth+1, maxDepth)
		b.Undo(move)
		if maximizing && score > best {
			best = score
		}
		if !maximizing && score < best {
			best = score
		}
	}
	return best
}

func newTestSearcher(b *Board, k int, mover Cell) *searcher {
	return &searcher{
		board: b,
		k:     k,
		mover: mover,
		tt:    newTranspositionTable(1<<12, 2),
		stats: &SearchStats{},
		ctx:   context.Background(),
	}
}

func TestPrunedSearchMatchesBruteForce(t *testing.T) {
	cases := []struct {
		name     string
		board    *Board
		k        int
		maxDepth int
	}{
		{
			name:     "3x3 k3 empty full depth",
			board:    NewBoard(3),
			k:        3,
			maxDepth: 9,
		},
		{
			name: "3x3 k3 midgame",
			board: boardFromRows(t,
				"X..",
				".O.",
				"..X",
			),
			k:        3,
			maxDepth: 6,
		},
		{
			name:     "4x4 k3 empty",
			board:    NewBoard(4),
			k:        3,
			maxDepth: 4,
		},
		{
			name: "4x4 k3 midgame",
			board: boardFromRows(t,
				"X.O.",
				".X..",
				"..O.",
				"....",
			),
			k:        3,
			maxDepth: 4,
		},
		{
			name: "5x5 k4 midgame",
			board: boardFromRows(t,
				".....",
				".XO..",
				".OX..",
				".....",
				".....",
			),
			k:        4,
			maxDepth: 3,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want := bruteForce(tc.board, tc.k, CellX, CellX, 0, tc.maxDepth)
			s := newTestSearcher(tc.board, tc.k, CellX)
			got, _, err := s.alphaBeta(0, tc.maxDepth, CellX, true, -infinity, infinity)
			if err != nil {
				t.Fatalf("unexpected search error: %v", err)
			}
			if got != want {
				t.Fatalf("pruned score %d != brute force score %d", got, want)
			}
		})
	}
}

// Cached cutoff scores are only bounds; a position reached again under a
// different window must not treat them as exact. Random positions shake out
// the transposition orderings a handpicked battery misses.
func TestPrunedSearchMatchesBruteForceRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	configs := []struct {
		size, k, stones, maxDepth int
	}{
		{size: 3, k: 3, stones: 2, maxDepth: 4},
		{size: 3, k: 3, stones: 3, maxDepth: 5},
		{size: 4, k: 3, stones: 4, maxDepth: 4},
		{size: 4, k: 4, stones: 5, maxDepth: 3},
	}
	for _, cfg := range configs {
		t.Run(fmt.Sprintf("%dx%d_k%d_s%d", cfg.size, cfg.size, cfg.k, cfg.stones), func(t *testing.T) {
			for trial := 0; trial < 25; trial++ {
				b := NewBoard(cfg.size)
				toMove := CellX
				for i := 0; i < cfg.stones; i++ {
					legal := b.LegalMoves()
					b.Apply(legal[rng.Intn(len(legal))], toMove)
					toMove = toMove.Opponent()
				}
				if b.Winner(cfg.k) != CellEmpty {
					continue
				}
				want := bruteForce(b, cfg.k, toMove, toMove, 0, cfg.maxDepth)
				s := newTestSearcher(b, cfg.k, toMove)
				got, _, err := s.alphaBeta(0, cfg.maxDepth, toMove, true, -infinity, infinity)
				if err != nil {
					t.Fatalf("trial %d: unexpected search error: %v", trial, err)
				}
				if got != want {
					t.Fatalf("trial %d: pruned score %d != brute force score %d on\n%s", trial, got, want, b)
				}
			}
		})
	}
}

func TestSearchPrefersFasterWin(t *testing.T) {
	// X can win immediately at (2,0) or dawdle; the depth adjustment must
	// make the quick win score higher than any slower one.
	b := boardFromRows(t,
		"XX.",
		"OO.",
		"...",
	)
	s := newTestSearcher(b, 3, CellX)
	score, pv, err := s.alphaBeta(0, 5, CellX, true, -infinity, infinity)
	if err != nil {
		t.Fatalf("unexpected search error: %v", err)
	}
	if score != winScore-1 {
		t.Fatalf("score = %d, want %d for a win in one", score, winScore-1)
	}
	if len(pv) == 0 || !pv[0].Equals(Move{X: 2, Y: 0}) {
		t.Fatalf("pv should start with the winning move, got %v", pv)
	}
}

func TestSearchDeadlineUnwindsCleanly(t *testing.T) {
	b := boardFromRows(t,
		".....",
		".XO..",
		"..X..",
		".....",
		".....",
	)
	hash := b.Hash()
	empties := b.CountEmpty()
	s := newTestSearcher(b, 4, CellX)
	s.deadline = time.Now().Add(-time.Millisecond)
	_, _, err := s.alphaBeta(0, 8, CellX, true, -infinity, infinity)
	if err == nil {
		t.Fatalf("expected deadline error")
	}
	if b.Hash() != hash {
		t.Fatalf("board hash changed across an aborted search")
	}
	if b.CountEmpty() != empties {
		t.Fatalf("stones left behind by an aborted search")
	}
}

func TestSearchCancelledContextUnwinds(t *testing.T) {
	b := NewBoard(5)
	b.Apply(Move{X: 2, Y: 2}, CellX)
	hash := b.Hash()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newTestSearcher(b, 4, CellX)
	s.ctx = ctx
	_, _, err := s.alphaBeta(0, 6, CellX, true, -infinity, infinity)
	if err == nil {
		t.Fatalf("expected abort for cancelled context")
	}
	if b.Hash() != hash {
		t.Fatalf("board changed across a cancelled search")
	}
}
