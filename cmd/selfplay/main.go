// Command selfplay runs engine-vs-engine games and tallies the outcomes.
// Useful for sanity-checking search changes: on small boards the result
// should be all draws at sufficient depth.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/seafrith/ninarow/engine"
)

func main() {
	games := flag.Int("games", 10, "number of games to play")
	size := flag.Int("size", 5, "board size")
	winLength := flag.Int("k", 4, "stones in a row needed to win")
	depthX := flag.Int("depth-x", 4, "max search depth for X")
	depthO := flag.Int("depth-o", 4, "max search depth for O")
	timeLimit := flag.Duration("time", 2*time.Second, "per-move time budget")
	verbose := flag.Bool("v", false, "log every move")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !*verbose {
		log = log.Level(zerolog.InfoLevel)
	}

	engineX := engine.NewEngine(engine.Options{MaxDepth: *depthX, TimeLimit: *timeLimit})
	engineO := engine.NewEngine(engine.Options{MaxDepth: *depthO, TimeLimit: *timeLimit})

	var winsX, winsO, draws int
	start := time.Now()
	for g := 0; g < *games; g++ {
		winner, moves, err := playGame(engineX, engineO, *size, *winLength, *verbose, log)
		if err != nil {
			log.Fatal().Err(err).Int("game", g+1).Msg("game aborted")
		}
		switch winner {
		case engine.CellX:
			winsX++
		case engine.CellO:
			winsO++
		default:
			draws++
		}
		log.Info().
			Int("game", g+1).
			Str("winner", winner.String()).
			Int("moves", moves).
			Msg("game finished")
	}

	log.Info().
		Int("games", *games).
		Int("x_wins", winsX).
		Int("o_wins", winsO).
		Int("draws", draws).
		Dur("elapsed", time.Since(start)).
		Msg("selfplay complete")
}

func playGame(engineX, engineO *engine.Engine, size, winLength int, verbose bool, log zerolog.Logger) (engine.Cell, int, error) {
	board := engine.NewBoard(size)
	toMove := engine.CellX
	moves := 0
	for {
		if winner := board.Winner(winLength); winner != engine.CellEmpty {
			return winner, moves, nil
		}
		if board.IsFull() {
			return engine.CellEmpty, moves, nil
		}
		eng := engineX
		if toMove == engine.CellO {
			eng = engineO
		}
		result, err := eng.ComputeMove(context.Background(), board, toMove, winLength)
		if err != nil {
			return engine.CellEmpty, moves, err
		}
		board.Apply(result.Move, toMove)
		moves++
		if verbose {
			log.Debug().
				Str("symbol", toMove.String()).
				Int("x", result.Move.X).
				Int("y", result.Move.Y).
				Int("score", result.Score).
				Int("depth", result.Depth).
				Int64("nodes", result.Stats.Nodes).
				Msg("move")
		}
		toMove = toMove.Opponent()
	}
}
