package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeLimit bounds a search when the caller sets neither a depth nor
// a time limit, so ComputeMove always returns.
const DefaultTimeLimit = 5 * time.Second

var (
	ErrGameOver         = errors.New("engine: game is already decided")
	ErrNoLegalMoves     = errors.New("engine: no legal moves")
	ErrSearchActive     = errors.New("engine: search already in progress")
	ErrInvalidWinLength = errors.New("engine: win length out of range")
	ErrInvalidMover     = errors.New("engine: mover must be X or O")
)

// Options control a single engine instance. Zero values select defaults:
// unlimited depth, DefaultTimeLimit when no limit is given at all, and a
// no-op logger.
type Options struct {
	// MaxDepth caps the deepening iterations. Zero means bounded only by
	// the number of empty cells.
	MaxDepth int
	// TimeLimit is the per-call wall clock budget. Zero means no budget
	// unless MaxDepth is also zero.
	TimeLimit time.Duration
	// TTSize is the transposition table size in entries, rounded up to a
	// power of two.
	TTSize int
	Logger zerolog.Logger
	// OnDepthProgress is invoked after every completed deepening
	// iteration, from the search goroutine.
	OnDepthProgress func(DepthStats)
}

type SearchStats struct {
	Nodes    int64
	TTProbes int64
	TTHits   int64
	TTStores int64
	Cutoffs  int64
	Elapsed  time.Duration
	Depths   []DepthStats
}

// DepthStats describes one completed deepening iteration.
type DepthStats struct {
	Depth   int
	Score   int
	Nodes   int64
	Elapsed time.Duration
	NPS     float64
	PV      []Move
}

type SearchResult struct {
	Move  Move
	Score int
	// Depth is the deepest fully completed iteration. Zero means the
	// result came from a short-circuit or the fallback move.
	Depth int
	PV    []Move
	Stats SearchStats
}

// Engine computes moves for K-in-a-row positions. An instance is not
// re-entrant: concurrent ComputeMove calls on the same engine fail with
// ErrSearchActive.
type Engine struct {
	opts    Options
	log     zerolog.Logger
	running atomic.Bool
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts, log: opts.Logger}
}

// ComputeMove searches the position and returns the best move found for
// mover. The board is restored to its input state before returning, on
// every path including cancellation.
func (e *Engine) ComputeMove(ctx context.Context, board *Board, mover Cell, winLength int) (*SearchResult, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrSearchActive
	}
	defer e.running.Store(false)

	if mover != CellX && mover != CellO {
		return nil, ErrInvalidMover
	}
	if winLength < 1 || winLength > board.Size() {
		return nil, fmt.Errorf("%w: %d on a %dx%d board", ErrInvalidWinLength, winLength, board.Size(), board.Size())
	}
	if board.Winner(winLength) != CellEmpty {
		return nil, ErrGameOver
	}
	legal := board.LegalMoves()
	if len(legal) == 0 {
		return nil, ErrNoLegalMoves
	}

	start := time.Now()

	// A move that wins on the spot needs no search.
	if move, ok := findImmediateWin(board, winLength, mover); ok {
		e.log.Debug().Int("x", move.X).Int("y", move.Y).Msg("immediate winning move")
		return &SearchResult{
			Move:  move,
			Score: winScore,
			PV:    []Move{move},
			Stats: SearchStats{Elapsed: time.Since(start)},
		}, nil
	}
	// Likewise a cell where the opponent would win next turn must be taken.
	// The score reports the threat, not an evaluation of the blocked board.
	if move, ok := findImmediateWin(board, winLength, mover.Opponent()); ok {
		e.log.Debug().Int("x", move.X).Int("y", move.Y).Msg("blocking opponent win")
		return &SearchResult{
			Move:  move,
			Score: -winScore,
			PV:    []Move{move},
			Stats: SearchStats{Elapsed: time.Since(start)},
		}, nil
	}

	deadline := e.searchDeadline(ctx, start)
	maxDepth := e.opts.MaxDepth
	empties := board.CountEmpty()
	if maxDepth <= 0 || maxDepth > empties {
		maxDepth = empties
	}
	ttSize := e.opts.TTSize
	if ttSize <= 0 {
		ttSize = defaultTTSize
	}

	stats := &SearchStats{}
	s := &searcher{
		board:    board,
		k:        winLength,
		mover:    mover,
		tt:       newTranspositionTable(uint64(ttSize), 2),
		stats:    stats,
		ctx:      ctx,
		deadline: deadline,
	}

	result := &SearchResult{
		Move:  legal[0],
		Score: 0,
		PV:    []Move{legal[0]},
	}
	for depth := 1; depth <= maxDepth; depth++ {
		iterStart := time.Now()
		nodesBefore := stats.Nodes
		// Fresh cache per iteration: stored scores are relative to one
		// iteration's horizon and must not leak into a deeper pass.
		s.tt.nextGeneration()

		move, score, pv, err := e.searchRoot(s, depth, mover)
		if err != nil {
			// Interrupted mid-iteration: the partial result is discarded
			// and the previous depth's answer stands.
			break
		}

		iterElapsed := time.Since(iterStart)
		iterNodes := stats.Nodes - nodesBefore
		nps := 0.0
		if iterElapsed > 0 {
			nps = float64(iterNodes) / iterElapsed.Seconds()
		}
		depthStats := DepthStats{
			Depth:   depth,
			Score:   score,
			Nodes:   iterNodes,
			Elapsed: iterElapsed,
			NPS:     nps,
			PV:      pv,
		}
		stats.Depths = append(stats.Depths, depthStats)

		result.Move = move
		result.Score = score
		result.Depth = depth
		result.PV = pv

		e.log.Info().
			Int("depth", depth).
			Int("score", score).
			Int64("nodes", iterNodes).
			Dur("time", iterElapsed).
			Float64("nps", nps).
			Str("pv", FormatPV(pv)).
			Msg("search depth complete")
		if e.opts.OnDepthProgress != nil {
			e.opts.OnDepthProgress(depthStats)
		}

		// A proven forced win cannot improve with more depth.
		if score >= winScore-depth {
			break
		}
	}

	stats.Elapsed = time.Since(start)
	result.Stats = *stats
	return result, nil
}

// searchRoot runs one full-width iteration at the given depth. An error
// means the deadline hit partway through and the iteration is unusable.
func (e *Engine) searchRoot(s *searcher, depth int, mover Cell) (Move, int, []Move, error) {
	moves := s.orderedMoves(mover, true)
	alpha := -infinity
	beta := infinity
	bestScore := -infinity
	var bestMove Move
	var bestPV []Move
	for _, move := range moves {
		s.board.Apply(move, mover)
		score, childPV, err := s.alphaBeta(1, depth, mover.Opponent(), false, alpha, beta)
		s.board.Undo(move)
		if err != nil {
			return Move{}, 0, nil, err
		}
		if score > bestScore {
			bestScore = score
			bestMove = move
			bestPV = prependMove(move, childPV)
		}
		if score > alpha {
			alpha = score
		}
	}
	return bestMove, bestScore, bestPV, nil
}

func (e *Engine) searchDeadline(ctx context.Context, start time.Time) time.Time {
	limit := e.opts.TimeLimit
	if limit <= 0 && e.opts.MaxDepth <= 0 {
		limit = DefaultTimeLimit
	}
	var deadline time.Time
	if limit > 0 {
		deadline = start.Add(limit)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok {
		if deadline.IsZero() || ctxDeadline.Before(deadline) {
			deadline = ctxDeadline
		}
	}
	return deadline
}

func findImmediateWin(b *Board, k int, side Cell) (Move, bool) {
	for _, move := range b.LegalMoves() {
		b.Apply(move, side)
		won := b.Winner(k) == side
		b.Undo(move)
		if won {
			return move, true
		}
	}
	return Move{}, false
}

// FormatPV renders a principal variation as "(x,y) (x,y) ...".
func FormatPV(pv []Move) string {
	if len(pv) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pv))
	for _, move := range pv {
		parts = append(parts, fmt.Sprintf("(%d,%d)", move.X, move.Y))
	}
	return strings.Join(parts, " ")
}
