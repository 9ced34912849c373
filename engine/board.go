package engine

import "strings"

// Cell values are signed so a single evaluation can serve both sides:
// X counts positive, O counts negative.
type Cell int8

const (
	CellEmpty Cell = 0
	CellX     Cell = 1
	CellO     Cell = -1
)

func (c Cell) String() string {
	switch c {
	case CellX:
		return "X"
	case CellO:
		return "O"
	default:
		return "."
	}
}

// Opponent returns the other symbol. Calling it on CellEmpty returns CellEmpty.
func (c Cell) Opponent() Cell {
	return -c
}

type Move struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (m Move) Equals(other Move) bool {
	return m.X == other.X && m.Y == other.Y
}

// Board is an N×N grid stored row-major. The zobrist hash of the stones is
// maintained incrementally by Apply and Undo.
type Board struct {
	size  int
	cells []Cell
	hash  uint64
}

func NewBoard(size int) *Board {
	if size < 1 {
		panic("engine: board size must be positive")
	}
	return &Board{size: size, cells: make([]Cell, size*size)}
}

func (b *Board) Size() int {
	return b.size
}

// Hash covers the stones only. Side to move is mixed in by the caller.
func (b *Board) Hash() uint64 {
	return b.hash
}

func (b *Board) index(x, y int) int {
	if x < 0 || y < 0 || x >= b.size || y >= b.size {
		panic("engine: board access out of range")
	}
	return y*b.size + x
}

func (b *Board) At(x, y int) Cell {
	return b.cells[b.index(x, y)]
}

func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.size && y < b.size
}

func (b *Board) IsEmpty(x, y int) bool {
	return b.cells[b.index(x, y)] == CellEmpty
}

// Apply places value at move. The cell must be empty.
func (b *Board) Apply(move Move, value Cell) {
	idx := b.index(move.X, move.Y)
	if value == CellEmpty {
		panic("engine: cannot apply an empty cell")
	}
	if b.cells[idx] != CellEmpty {
		panic("engine: apply to occupied cell")
	}
	b.cells[idx] = value
	b.hash ^= zobristFor(b.size).stone(move.X, move.Y, value)
}

// Undo removes the stone at move, restoring the cell to empty. It is the
// inverse of Apply: after an Apply/Undo pair the board, including its hash,
// is identical to before.
func (b *Board) Undo(move Move) {
	idx := b.index(move.X, move.Y)
	value := b.cells[idx]
	if value == CellEmpty {
		panic("engine: undo of empty cell")
	}
	b.cells[idx] = CellEmpty
	b.hash ^= zobristFor(b.size).stone(move.X, move.Y, value)
}

// LegalMoves returns every empty cell in row-major order.
func (b *Board) LegalMoves() []Move {
	moves := make([]Move, 0, b.CountEmpty())
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			if b.cells[y*b.size+x] == CellEmpty {
				moves = append(moves, Move{X: x, Y: y})
			}
		}
	}
	return moves
}

func (b *Board) CountEmpty() int {
	count := 0
	for _, cell := range b.cells {
		if cell == CellEmpty {
			count++
		}
	}
	return count
}

func (b *Board) IsFull() bool {
	for _, cell := range b.cells {
		if cell == CellEmpty {
			return false
		}
	}
	return true
}

var winnerDirections = [4][2]int{
	{1, 0},  // right
	{0, 1},  // down
	{1, 1},  // down-right
	{1, -1}, // up-right
}

// Winner scans the board in row-major order and returns the symbol owning
// the first run of k stones found, or CellEmpty when there is none.
func (b *Board) Winner(k int) Cell {
	if k < 1 || k > b.size {
		return CellEmpty
	}
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			cell := b.cells[y*b.size+x]
			if cell == CellEmpty {
				continue
			}
			for _, dir := range winnerDirections {
				if b.runFrom(x, y, dir[0], dir[1], cell) >= k {
					return cell
				}
			}
		}
	}
	return CellEmpty
}

func (b *Board) runFrom(x, y, dx, dy int, target Cell) int {
	count := 0
	for b.InBounds(x, y) && b.cells[y*b.size+x] == target {
		count++
		x += dx
		y += dy
	}
	return count
}

// IsDraw reports a full board with no k-run for either side.
func (b *Board) IsDraw(k int) bool {
	return b.IsFull() && b.Winner(k) == CellEmpty
}

func (b *Board) Clone() *Board {
	clone := &Board{size: b.size, hash: b.hash}
	clone.cells = make([]Cell, len(b.cells))
	copy(clone.cells, b.cells)
	return clone
}

func (b *Board) String() string {
	var sb strings.Builder
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			sb.WriteString(b.cells[y*b.size+x].String())
		}
		if y < b.size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
