package server

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seafrith/ninarow/engine"
)

func testController(settings Settings) *GameController {
	return NewGameController(settings, EngineConfig{MaxDepth: 2, TTSize: 1 << 10}, zerolog.Nop())
}

func tickUntilMove(t *testing.T, gc *GameController, moves int) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		if gc.Tick() {
			snap := gc.Snapshot()
			if len(snap.History) >= moves || snap.Status != StatusRunning {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d moves", moves)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHumanMoveFlow(t *testing.T) {
	gc := testController(Settings{BoardSize: 3, WinLength: 3, Mode: ModeHumanVsHuman})
	gc.Start(gc.Settings())

	require.NoError(t, gc.SubmitHumanMove(engine.Move{X: 1, Y: 1}))
	snap := gc.Snapshot()
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Equal(t, engine.CellO, snap.ToMove)
	require.Len(t, snap.History, 1)
	assert.False(t, snap.History[0].IsAI)

	err := gc.SubmitHumanMove(engine.Move{X: 1, Y: 1})
	assert.ErrorIs(t, err, ErrCellTaken)
}

func TestHumanMoveRejectedBeforeStart(t *testing.T) {
	gc := testController(Settings{BoardSize: 3, WinLength: 3, Mode: ModeHumanVsHuman})
	err := gc.SubmitHumanMove(engine.Move{X: 0, Y: 0})
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestHumanMoveRejectedOnAITurn(t *testing.T) {
	gc := testController(Settings{BoardSize: 3, WinLength: 3, Mode: ModeHumanVsAI, HumanSide: engine.CellO})
	gc.Start(gc.Settings())
	// X is the AI and moves first.
	err := gc.SubmitHumanMove(engine.Move{X: 0, Y: 0})
	assert.ErrorIs(t, err, ErrNotHumanTurn)
}

func TestAIPlaysOnTick(t *testing.T) {
	gc := testController(Settings{BoardSize: 3, WinLength: 3, Mode: ModeHumanVsAI, HumanSide: engine.CellO})
	gc.Start(gc.Settings())

	tickUntilMove(t, gc, 1)
	snap := gc.Snapshot()
	require.Len(t, snap.History, 1)
	assert.True(t, snap.History[0].IsAI)
	assert.Equal(t, engine.CellX, snap.History[0].Symbol)
	assert.Equal(t, engine.CellO, snap.ToMove)
}

func TestAIVsAIFinishesGame(t *testing.T) {
	gc := testController(Settings{BoardSize: 3, WinLength: 3, Mode: ModeAIVsAI})
	gc.Start(gc.Settings())

	deadline := time.Now().Add(30 * time.Second)
	for gc.Snapshot().Status == StatusRunning {
		gc.Tick()
		if time.Now().After(deadline) {
			t.Fatalf("ai vs ai game did not finish")
		}
		time.Sleep(time.Millisecond)
	}
	snap := gc.Snapshot()
	assert.Contains(t, []GameStatus{StatusXWon, StatusOWon, StatusDraw}, snap.Status)
	assert.NotEmpty(t, snap.History)
}

func TestWinEndsGame(t *testing.T) {
	gc := testController(Settings{BoardSize: 3, WinLength: 3, Mode: ModeHumanVsHuman})
	gc.Start(gc.Settings())

	// X: (0,0) (1,0) (2,0), O: (0,1) (1,1).
	moves := []engine.Move{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}}
	for _, m := range moves {
		require.NoError(t, gc.SubmitHumanMove(m))
	}
	snap := gc.Snapshot()
	assert.Equal(t, StatusXWon, snap.Status)
	err := gc.SubmitHumanMove(engine.Move{X: 2, Y: 2})
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestHintDoesNotPlay(t *testing.T) {
	gc := testController(Settings{BoardSize: 3, WinLength: 3, Mode: ModeHumanVsHuman})
	gc.Start(gc.Settings())

	result, err := gc.Hint(context.Background())
	require.NoError(t, err)
	snap := gc.Snapshot()
	assert.Empty(t, snap.History)
	assert.True(t, snap.Board.IsEmpty(result.Move.X, result.Move.Y))
}

func TestResetClearsGame(t *testing.T) {
	gc := testController(Settings{BoardSize: 3, WinLength: 3, Mode: ModeHumanVsHuman})
	gc.Start(gc.Settings())
	require.NoError(t, gc.SubmitHumanMove(engine.Move{X: 1, Y: 1}))

	gc.Reset()
	snap := gc.Snapshot()
	assert.Equal(t, StatusNotStarted, snap.Status)
	assert.Empty(t, snap.History)
	assert.True(t, snap.Board.IsEmpty(1, 1))
}

func TestProgressSinkReceivesDepths(t *testing.T) {
	gc := testController(Settings{BoardSize: 3, WinLength: 3, Mode: ModeHumanVsAI, HumanSide: engine.CellO})
	got := make(chan engine.DepthStats, 16)
	gc.SetProgressSink(func(ds engine.DepthStats) {
		select {
		case got <- ds:
		default:
		}
	})
	gc.Start(gc.Settings())
	tickUntilMove(t, gc, 1)

	select {
	case ds := <-got:
		assert.Greater(t, ds.Depth, 0)
	case <-time.After(time.Second):
		t.Fatalf("no progress reported")
	}
}
