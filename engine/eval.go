package engine

import "sync"

// Window weights by missing stones: a complete run scores 10000, each
// missing stone divides the weight by ten, down to 1.
var windowWeights = [...]int{10000, 1000, 100, 10, 1}

func windowWeight(deficit int) int {
	if deficit < 0 {
		deficit = 0
	}
	if deficit >= len(windowWeights) {
		return 1
	}
	return windowWeights[deficit]
}

type lineKey struct {
	size int
	k    int
}

type lineCache struct {
	mu    sync.Mutex
	lines map[lineKey][][]int
}

var cachedLines = &lineCache{lines: make(map[lineKey][][]int)}

func linesFor(size, k int) [][]int {
	key := lineKey{size: size, k: k}
	cachedLines.mu.Lock()
	defer cachedLines.mu.Unlock()
	if lines, ok := cachedLines.lines[key]; ok {
		return lines
	}
	lines := buildLines(size, k)
	cachedLines.lines[key] = lines
	return lines
}

func buildLines(size, k int) [][]int {
	lines := [][]int{}
	if size <= 0 || k <= 0 {
		return lines
	}
	// Rows.
	for y := 0; y < size; y++ {
		line := make([]int, 0, size)
		for x := 0; x < size; x++ {
			line = append(line, y*size+x)
		}
		lines = append(lines, line)
	}
	// Cols.
	for x := 0; x < size; x++ {
		line := make([]int, 0, size)
		for y := 0; y < size; y++ {
			line = append(line, y*size+x)
		}
		lines = append(lines, line)
	}
	// Diagonals (\)
	for x := 0; x < size; x++ {
		line := collectDiag(size, x, 0, 1, 1)
		if len(line) >= k {
			lines = append(lines, line)
		}
	}
	for y := 1; y < size; y++ {
		line := collectDiag(size, 0, y, 1, 1)
		if len(line) >= k {
			lines = append(lines, line)
		}
	}
	// Anti-diagonals (/)
	for x := 0; x < size; x++ {
		line := collectDiag(size, x, 0, -1, 1)
		if len(line) >= k {
			lines = append(lines, line)
		}
	}
	for y := 1; y < size; y++ {
		line := collectDiag(size, size-1, y, -1, 1)
		if len(line) >= k {
			lines = append(lines, line)
		}
	}
	return lines
}

func collectDiag(size, startX, startY, dx, dy int) []int {
	line := []int{}
	x := startX
	y := startY
	for x >= 0 && y >= 0 && x < size && y < size {
		line = append(line, y*size+x)
		x += dx
		y += dy
	}
	return line
}

// Evaluate slides a k-wide window over every row, column and diagonal and
// sums the weights of windows held by a single side. Windows containing both
// symbols contribute nothing. The result is positive when mover is ahead.
func Evaluate(b *Board, k int, mover Cell) int {
	if mover == CellEmpty {
		return 0
	}
	lines := linesFor(b.Size(), k)
	score := 0
	for _, line := range lines {
		if len(line) < k {
			continue
		}
		moverCount := 0
		oppCount := 0
		for i := 0; i < k; i++ {
			switch b.cells[line[i]] {
			case mover:
				moverCount++
			case mover.Opponent():
				oppCount++
			}
		}
		score += windowScore(moverCount, oppCount, k)
		for i := k; i < len(line); i++ {
			switch b.cells[line[i-k]] {
			case mover:
				moverCount--
			case mover.Opponent():
				oppCount--
			}
			switch b.cells[line[i]] {
			case mover:
				moverCount++
			case mover.Opponent():
				oppCount++
			}
			score += windowScore(moverCount, oppCount, k)
		}
	}
	return score
}

func windowScore(moverCount, oppCount, k int) int {
	if moverCount > 0 && oppCount == 0 {
		return windowWeight(k - moverCount)
	}
	if oppCount > 0 && moverCount == 0 {
		return -windowWeight(k - oppCount)
	}
	return 0
}

const (
	orderWinBonus   = 1000
	orderBlockBonus = 500
)

// orderScore ranks a candidate move for search ordering only: proximity to
// the board center, with large bonuses for moves that win on the spot or
// deny the opponent an immediate win. Much cheaper than Evaluate.
func orderScore(b *Board, k int, move Move, mover Cell) int {
	center := b.Size() / 2
	dx := move.X - center
	if dx < 0 {
		dx = -dx
	}
	dy := move.Y - center
	if dy < 0 {
		dy = -dy
	}
	score := b.Size() - (dx + dy)

	b.Apply(move, mover)
	if b.Winner(k) == mover {
		score += orderWinBonus
	}
	b.Undo(move)

	opp := mover.Opponent()
	b.Apply(move, opp)
	if b.Winner(k) == opp {
		score += orderBlockBonus
	}
	b.Undo(move)

	return score
}
