package engine

import "sync"

type zobristTable struct {
	size  int
	cells []uint64
	side  uint64
}

type zobristStore struct {
	mu     sync.Mutex
	tables map[int]*zobristTable
}

var zobristTables = &zobristStore{tables: make(map[int]*zobristTable)}

func zobristFor(size int) *zobristTable {
	zobristTables.mu.Lock()
	defer zobristTables.mu.Unlock()
	if table, ok := zobristTables.tables[size]; ok {
		return table
	}
	rng := splitmix64{state: uint64(0x9e3779b97f4a7c15) ^ uint64(size)}
	table := &zobristTable{size: size, cells: make([]uint64, size*size*2)}
	for i := range table.cells {
		table.cells[i] = rng.next()
	}
	table.side = rng.next()
	zobristTables.tables[size] = table
	return table
}

func (z *zobristTable) stone(x, y int, value Cell) uint64 {
	idx := (y*z.size + x) * 2
	if value == CellO {
		idx++
	}
	return z.cells[idx]
}

// searchKey folds the side to move into the stone hash so two identical
// positions with different movers never share a transposition entry.
func searchKey(b *Board, toMove Cell) uint64 {
	key := b.Hash()
	if toMove == CellO {
		key ^= zobristFor(b.Size()).side
	}
	return key
}

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
