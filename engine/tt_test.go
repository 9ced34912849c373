package engine

import "testing"

func TestTTProbeStore(t *testing.T) {
	tt := newTranspositionTable(1<<8, 2)
	key := uint64(0xdeadbeef)
	if _, _, _, ok := tt.probe(key); ok {
		t.Fatalf("probe of empty table must miss")
	}
	pv := []Move{{X: 1, Y: 2}, {X: 3, Y: 4}}
	tt.store(key, 42, ttExact, pv)
	score, flag, gotPV, ok := tt.probe(key)
	if !ok {
		t.Fatalf("expected hit after store")
	}
	if score != 42 {
		t.Fatalf("score = %d, want 42", score)
	}
	if flag != ttExact {
		t.Fatalf("flag = %d, want ttExact", flag)
	}
	if len(gotPV) != 2 || !gotPV[0].Equals(pv[0]) {
		t.Fatalf("pv mismatch: %v", gotPV)
	}
}

func TestTTStoreKeepsFlag(t *testing.T) {
	tt := newTranspositionTable(1<<8, 2)
	tt.store(7, 100, ttLower, nil)
	score, flag, _, ok := tt.probe(7)
	if !ok || flag != ttLower || score != 100 {
		t.Fatalf("got score=%d flag=%d ok=%v, want 100/ttLower/true", score, flag, ok)
	}
	tt.store(8, -50, ttUpper, nil)
	_, flag, _, ok = tt.probe(8)
	if !ok || flag != ttUpper {
		t.Fatalf("flag = %d, want ttUpper", flag)
	}
}

func TestTTExactNotReplacedByBound(t *testing.T) {
	tt := newTranspositionTable(1<<8, 2)
	tt.store(9, 30, ttExact, nil)
	tt.store(9, 500, ttLower, nil)
	score, flag, _, ok := tt.probe(9)
	if !ok || flag != ttExact || score != 30 {
		t.Fatalf("exact entry lost: score=%d flag=%d ok=%v", score, flag, ok)
	}
	tt.store(9, 31, ttExact, nil)
	score, flag, _, ok = tt.probe(9)
	if !ok || flag != ttExact || score != 31 {
		t.Fatalf("exact entry must be replaceable by exact: score=%d flag=%d", score, flag)
	}
}

func TestTTGenerationClears(t *testing.T) {
	tt := newTranspositionTable(1<<8, 2)
	tt.store(1, 10, ttExact, nil)
	tt.store(2, 20, ttExact, nil)
	if tt.count() != 2 {
		t.Fatalf("count = %d, want 2", tt.count())
	}
	tt.nextGeneration()
	if _, _, _, ok := tt.probe(1); ok {
		t.Fatalf("entry must be invisible after a generation bump")
	}
	if tt.count() != 0 {
		t.Fatalf("count after clear = %d, want 0", tt.count())
	}
	tt.store(1, 11, ttExact, nil)
	score, _, _, ok := tt.probe(1)
	if !ok || score != 11 {
		t.Fatalf("expected fresh entry in new generation, got %d ok=%v", score, ok)
	}
}

func TestTTGenerationWrapStaysNonZero(t *testing.T) {
	tt := newTranspositionTable(16, 1)
	tt.gen.Store(^uint32(0))
	tt.nextGeneration()
	if got := tt.generation(); got == 0 {
		t.Fatalf("generation must never be zero")
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[uint64]uint64{1: 1, 2: 2, 3: 4, 5: 8, 1000: 1024}
	for in, want := range cases {
		if got := nextPowerOfTwo(in); got != want {
			t.Fatalf("nextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}
