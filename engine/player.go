package engine

import "context"

// Player produces moves for a side. Implementations decide how: search,
// user input, or anything else that yields a legal move.
type Player interface {
	ProposeMove(ctx context.Context, board *Board, mover Cell, winLength int) (Move, error)
}

// SearchPlayer drives an Engine. The zero value is not usable; construct
// with NewSearchPlayer.
type SearchPlayer struct {
	engine *Engine
}

func NewSearchPlayer(engine *Engine) *SearchPlayer {
	return &SearchPlayer{engine: engine}
}

func (p *SearchPlayer) ProposeMove(ctx context.Context, board *Board, mover Cell, winLength int) (Move, error) {
	result, err := p.engine.ComputeMove(ctx, board, mover, winLength)
	if err != nil {
		return Move{}, err
	}
	return result.Move, nil
}

func (p *SearchPlayer) Engine() *Engine {
	return p.engine
}
