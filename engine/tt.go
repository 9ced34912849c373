package engine

import "sync/atomic"

const defaultTTSize = 1 << 16

// ttFlag records how a stored score relates to the true value of the
// position: exact, a lower bound (beta cutoff fired), or an upper bound
// (every move failed low).
type ttFlag uint8

const (
	ttExact ttFlag = iota
	ttLower
	ttUpper
)

type ttEntry struct {
	key   uint64
	score int
	flag  ttFlag
	pv    []Move
	gen   uint32
	valid bool
}

// transpositionTable is a fixed-size bucketed cache keyed by zobrist hash.
// Bumping the generation invalidates every live entry in O(1), which is how
// the search clears the table between deepening iterations.
type transpositionTable struct {
	mask    uint64
	buckets int
	entries []ttEntry
	gen     atomic.Uint32
}

func newTranspositionTable(size uint64, buckets int) *transpositionTable {
	if buckets <= 0 {
		buckets = 2
	}
	if size < 1 {
		size = 1
	}
	if (size & (size - 1)) != 0 {
		size = nextPowerOfTwo(size)
	}
	tt := &transpositionTable{
		mask:    size - 1,
		buckets: buckets,
		entries: make([]ttEntry, int(size)*buckets),
	}
	tt.gen.Store(1)
	return tt
}

func (tt *transpositionTable) nextGeneration() {
	gen := tt.gen.Add(1)
	if gen == 0 {
		tt.gen.CompareAndSwap(0, 1)
	}
}

func (tt *transpositionTable) generation() uint32 {
	gen := tt.gen.Load()
	if gen == 0 {
		return 1
	}
	return gen
}

func (tt *transpositionTable) bucketIndex(key uint64) int {
	return int(key&tt.mask) * tt.buckets
}

func (tt *transpositionTable) probe(key uint64) (int, ttFlag, []Move, bool) {
	gen := tt.generation()
	start := tt.bucketIndex(key)
	for i := 0; i < tt.buckets; i++ {
		entry := tt.entries[start+i]
		if entry.valid && entry.gen == gen && entry.key == key {
			return entry.score, entry.flag, entry.pv, true
		}
	}
	return 0, ttExact, nil, false
}

func (tt *transpositionTable) store(key uint64, score int, flag ttFlag, pv []Move) {
	gen := tt.generation()
	start := tt.bucketIndex(key)
	victim := start
	for i := 0; i < tt.buckets; i++ {
		idx := start + i
		entry := tt.entries[idx]
		if entry.valid && entry.gen == gen && entry.key == key {
			// An exact score never yields to a bound for the same position.
			if entry.flag == ttExact && flag != ttExact {
				return
			}
			victim = idx
			break
		}
		if !entry.valid || entry.gen != gen {
			victim = idx
			break
		}
	}
	tt.entries[victim] = ttEntry{key: key, score: score, flag: flag, pv: pv, gen: gen, valid: true}
}

func (tt *transpositionTable) count() int {
	gen := tt.generation()
	count := 0
	for i := range tt.entries {
		if tt.entries[i].valid && tt.entries[i].gen == gen {
			count++
		}
	}
	return count
}

func (tt *transpositionTable) capacity() int {
	return len(tt.entries)
}

func nextPowerOfTwo(v uint64) uint64 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	v++
	return v
}
