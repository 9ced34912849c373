package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/seafrith/ninarow/engine"
)

type GameStatus int

const (
	StatusNotStarted GameStatus = iota
	StatusRunning
	StatusXWon
	StatusOWon
	StatusDraw
)

type Mode string

const (
	ModeHumanVsAI    Mode = "human_vs_ai"
	ModeAIVsAI       Mode = "ai_vs_ai"
	ModeHumanVsHuman Mode = "human_vs_human"
)

type Settings struct {
	BoardSize int
	WinLength int
	Mode      Mode
	// HumanSide is the symbol the human plays in human_vs_ai mode.
	HumanSide engine.Cell
}

func (s Settings) normalized() Settings {
	if s.Mode == "" {
		s.Mode = ModeHumanVsAI
	}
	if s.HumanSide != engine.CellX && s.HumanSide != engine.CellO {
		s.HumanSide = engine.CellX
	}
	return s
}

type EngineConfig struct {
	MaxDepth  int
	TimeLimit time.Duration
	TTSize    int
}

type HistoryEntry struct {
	Move      engine.Move
	Symbol    engine.Cell
	ElapsedMs float64
	IsAI      bool
	Depth     int
}

var (
	ErrNotRunning   = errors.New("server: game is not running")
	ErrNotHumanTurn = errors.New("server: it is not the human's turn")
	ErrCellTaken    = errors.New("server: cell is not empty")
)

// GameController owns the live game. AI turns run on a worker goroutine:
// Tick starts the search when it is the AI's move and applies the result
// once ready, mirroring a poll-driven host loop.
type GameController struct {
	mu       sync.Mutex
	log      zerolog.Logger
	settings Settings
	engCfg   EngineConfig

	board       *engine.Board
	toMove      engine.Cell
	status      GameStatus
	history     []HistoryEntry
	turnStarted time.Time

	eng          *engine.Engine
	thinking     atomic.Bool
	moveReady    atomic.Bool
	moveMu       sync.Mutex
	readyMove    engine.Move
	readyDepth   int
	cancelSearch context.CancelFunc

	onProgress func(engine.DepthStats)
}

func NewGameController(settings Settings, engCfg EngineConfig, log zerolog.Logger) *GameController {
	settings = settings.normalized()
	gc := &GameController{
		log:      log,
		settings: settings,
		engCfg:   engCfg,
		board:    engine.NewBoard(settings.BoardSize),
		toMove:   engine.CellX,
		status:   StatusNotStarted,
	}
	gc.eng = gc.newEngine()
	return gc
}

func (gc *GameController) newEngine() *engine.Engine {
	return engine.NewEngine(engine.Options{
		MaxDepth:  gc.engCfg.MaxDepth,
		TimeLimit: gc.engCfg.TimeLimit,
		TTSize:    gc.engCfg.TTSize,
		Logger:    gc.log,
		OnDepthProgress: func(ds engine.DepthStats) {
			gc.mu.Lock()
			sink := gc.onProgress
			gc.mu.Unlock()
			if sink != nil {
				sink(ds)
			}
		},
	})
}

// SetProgressSink registers a callback for per-depth search progress. It is
// invoked from the search goroutine.
func (gc *GameController) SetProgressSink(sink func(engine.DepthStats)) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.onProgress = sink
}

func (gc *GameController) Start(settings Settings) {
	settings = settings.normalized()
	gc.stopSearch()
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.settings = settings
	gc.board = engine.NewBoard(settings.BoardSize)
	gc.toMove = engine.CellX
	gc.status = StatusRunning
	gc.history = nil
	gc.turnStarted = time.Now()
	gc.moveReady.Store(false)
	gc.log.Info().
		Int("board_size", settings.BoardSize).
		Int("win_length", settings.WinLength).
		Str("mode", string(settings.Mode)).
		Msg("game started")
}

func (gc *GameController) Reset() {
	gc.stopSearch()
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.board = engine.NewBoard(gc.settings.BoardSize)
	gc.toMove = engine.CellX
	gc.status = StatusNotStarted
	gc.history = nil
	gc.moveReady.Store(false)
}

func (gc *GameController) stopSearch() {
	gc.mu.Lock()
	cancel := gc.cancelSearch
	gc.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	// The worker clears thinking on its way out and drops its result once
	// it sees the cancelled context.
	gc.moveReady.Store(false)
}

func (gc *GameController) currentIsHuman() bool {
	switch gc.settings.Mode {
	case ModeHumanVsHuman:
		return true
	case ModeAIVsAI:
		return false
	default:
		return gc.toMove == gc.settings.HumanSide
	}
}

// SubmitHumanMove applies a human move if it is a human's turn.
func (gc *GameController) SubmitHumanMove(move engine.Move) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.status != StatusRunning {
		return ErrNotRunning
	}
	if !gc.currentIsHuman() {
		return ErrNotHumanTurn
	}
	if !gc.board.InBounds(move.X, move.Y) {
		return fmt.Errorf("server: move (%d,%d) out of bounds", move.X, move.Y)
	}
	if !gc.board.IsEmpty(move.X, move.Y) {
		return ErrCellTaken
	}
	gc.applyMoveLocked(move, false, 0)
	return nil
}

// Tick drives AI turns. It returns true when the game state changed.
func (gc *GameController) Tick() bool {
	if gc.moveReady.Load() {
		return gc.takeAIMove()
	}
	gc.mu.Lock()
	shouldThink := gc.status == StatusRunning && !gc.currentIsHuman() && !gc.thinking.Load()
	gc.mu.Unlock()
	if shouldThink {
		gc.startThinking()
	}
	return false
}

func (gc *GameController) startThinking() {
	if !gc.thinking.CompareAndSwap(false, true) {
		return
	}
	gc.mu.Lock()
	boardCopy := gc.board.Clone()
	mover := gc.toMove
	winLength := gc.settings.WinLength
	ctx, cancel := context.WithCancel(context.Background())
	gc.cancelSearch = cancel
	gc.mu.Unlock()

	go func() {
		defer gc.thinking.Store(false)
		result, err := gc.eng.ComputeMove(ctx, boardCopy, mover, winLength)
		if err != nil {
			if ctx.Err() == nil {
				gc.log.Error().Err(err).Msg("ai search failed")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		gc.moveMu.Lock()
		gc.readyMove = result.Move
		gc.readyDepth = result.Depth
		gc.moveMu.Unlock()
		gc.moveReady.Store(true)
	}()
}

func (gc *GameController) takeAIMove() bool {
	gc.moveMu.Lock()
	move := gc.readyMove
	depth := gc.readyDepth
	gc.moveMu.Unlock()
	gc.moveReady.Store(false)

	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.status != StatusRunning || gc.currentIsHuman() {
		return false
	}
	if !gc.board.IsEmpty(move.X, move.Y) {
		gc.log.Warn().Int("x", move.X).Int("y", move.Y).Msg("discarding stale ai move")
		return false
	}
	gc.applyMoveLocked(move, true, depth)
	return true
}

func (gc *GameController) applyMoveLocked(move engine.Move, isAI bool, depth int) {
	symbol := gc.toMove
	gc.board.Apply(move, symbol)
	elapsed := float64(time.Since(gc.turnStarted).Microseconds()) / 1000.0
	gc.history = append(gc.history, HistoryEntry{
		Move:      move,
		Symbol:    symbol,
		ElapsedMs: elapsed,
		IsAI:      isAI,
		Depth:     depth,
	})

	k := gc.settings.WinLength
	switch {
	case gc.board.Winner(k) == engine.CellX:
		gc.status = StatusXWon
	case gc.board.Winner(k) == engine.CellO:
		gc.status = StatusOWon
	case gc.board.IsDraw(k):
		gc.status = StatusDraw
	default:
		gc.toMove = symbol.Opponent()
		gc.turnStarted = time.Now()
	}
	gc.log.Info().
		Int("x", move.X).Int("y", move.Y).
		Str("symbol", symbol.String()).
		Bool("ai", isAI).
		Float64("elapsed_ms", elapsed).
		Msg("move applied")
}

// Hint computes a move for the side to move without playing it. A fresh
// engine keeps it independent of a running AI search.
func (gc *GameController) Hint(ctx context.Context) (*engine.SearchResult, error) {
	gc.mu.Lock()
	if gc.status != StatusRunning {
		gc.mu.Unlock()
		return nil, ErrNotRunning
	}
	boardCopy := gc.board.Clone()
	mover := gc.toMove
	winLength := gc.settings.WinLength
	gc.mu.Unlock()

	eng := engine.NewEngine(engine.Options{
		MaxDepth:  gc.engCfg.MaxDepth,
		TimeLimit: gc.engCfg.TimeLimit,
		TTSize:    gc.engCfg.TTSize,
		Logger:    gc.log,
	})
	return eng.ComputeMove(ctx, boardCopy, mover, winLength)
}

func (gc *GameController) Settings() Settings {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.settings
}

func (gc *GameController) Thinking() bool {
	return gc.thinking.Load()
}

type Snapshot struct {
	Board       *engine.Board
	ToMove      engine.Cell
	Status      GameStatus
	History     []HistoryEntry
	Settings    Settings
	Thinking    bool
	TurnStarted time.Time
}

func (gc *GameController) Snapshot() Snapshot {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	history := make([]HistoryEntry, len(gc.history))
	copy(history, gc.history)
	return Snapshot{
		Board:       gc.board.Clone(),
		ToMove:      gc.toMove,
		Status:      gc.status,
		History:     history,
		Settings:    gc.settings,
		Thinking:    gc.thinking.Load(),
		TurnStarted: gc.turnStarted,
	}
}

func (gc *GameController) LatestHistoryEntry() (HistoryEntry, bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if len(gc.history) == 0 {
		return HistoryEntry{}, false
	}
	return gc.history[len(gc.history)-1], true
}
