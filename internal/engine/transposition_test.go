package engine

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/hailam/chesscore/internal/board"
)

func newTestTT(t *testing.T, mb int) *TranspositionTable {
	t.Helper()
	tt := &TranspositionTable{}
	tt.Resize(mb, nil)
	return tt
}

// sameClusterKeys finds n keys that map to one cluster with distinct high
// 16 bits, so replacement inside a single cluster can be driven directly.
func sameClusterKeys(tt *TranspositionTable, n int) []uint64 {
	byCluster := make(map[*Cluster][]uint64)
	seen := make(map[*Cluster]map[uint16]bool)

	// A cheap deterministic key stream.
	key := uint64(0x9E3779B97F4A7C15)
	for {
		key ^= key << 13
		key ^= key >> 7
		key ^= key << 17
		if key>>48 == 0 {
			continue
		}

		c := tt.FirstEntry(key)
		if seen[c] == nil {
			seen[c] = make(map[uint16]bool)
		}
		if seen[c][uint16(key>>48)] {
			continue
		}
		seen[c][uint16(key>>48)] = true
		byCluster[c] = append(byCluster[c], key)
		if len(byCluster[c]) == n {
			return byCluster[c]
		}
	}
}

// TestProbeSaveProbe is the basic lifecycle: miss, save, hit with the
// stored fields intact, and the same slot returned.
func TestProbeSaveProbe(t *testing.T) {
	tt := newTestTT(t, 1)
	key := uint64(0xDEADBEEFCAFE1234)

	e, found := tt.Probe(key)
	if found {
		t.Fatal("probe of an empty table reported a hit")
	}

	move := board.NewMove(board.E2, board.E4)
	tt.Save(e, key, 42, true, BoundExact, 7, move, -13)

	e2, found := tt.Probe(key)
	if !found {
		t.Fatal("probe after save missed")
	}
	if e2 != e {
		t.Error("probe returned a different slot than save filled")
	}
	if e2.Move() != move || e2.Value() != 42 || e2.Eval() != -13 || e2.Depth() != 7 ||
		e2.Bound() != BoundExact || !e2.IsPV() {
		t.Errorf("stored fields corrupted: move=%v value=%d eval=%d depth=%d bound=%d pv=%v",
			e2.Move(), e2.Value(), e2.Eval(), e2.Depth(), e2.Bound(), e2.IsPV())
	}
}

// TestSavePreservesMove: a null move must not wipe an existing move for
// the same position.
func TestSavePreservesMove(t *testing.T) {
	tt := newTestTT(t, 1)
	key := uint64(0x123456789ABCDEF0)

	move := board.NewMove(board.G1, board.F3)
	e, _ := tt.Probe(key)
	tt.Save(e, key, 10, false, BoundLower, 5, move, 0)
	tt.Save(e, key, 12, false, BoundLower, 9, board.NoMove, 0)

	e2, found := tt.Probe(key)
	if !found || e2.Move() != move {
		t.Errorf("move not preserved: found=%v move=%v", found, e2.Move())
	}
	if e2.Depth() != 9 {
		t.Errorf("depth not updated: %d", e2.Depth())
	}
}

// TestShallowSaveKept: a much shallower save for the same position must
// not clobber a deep entry unless it is exact.
func TestShallowSaveKept(t *testing.T) {
	tt := newTestTT(t, 1)
	key := uint64(0xFEDCBA9876543210)

	e, _ := tt.Probe(key)
	tt.Save(e, key, 100, false, BoundLower, 20, board.NewMove(board.A2, board.A4), 0)
	tt.Save(e, key, -5, false, BoundUpper, 3, board.NoMove, 0)

	if e.Depth() != 20 || e.Value() != 100 {
		t.Errorf("shallow save overwrote a deep entry: depth=%d value=%d", e.Depth(), e.Value())
	}

	// An exact bound overrides the depth rule.
	tt.Save(e, key, 7, false, BoundExact, 3, board.NoMove, 0)
	if e.Depth() != 3 || e.Bound() != BoundExact {
		t.Errorf("exact save did not overwrite: depth=%d bound=%d", e.Depth(), e.Bound())
	}
}

// TestReplacementPrefersShallowAndOld drives five distinct keys into one
// cluster: the shallowest entry gives way, and an aged deep entry loses to
// current-generation data.
func TestReplacementPrefersShallowAndOld(t *testing.T) {
	tt := newTestTT(t, 1)
	keys := sameClusterKeys(tt, 5)

	depths := []int{10, 2, 15}
	for i := 0; i < 3; i++ {
		e, _ := tt.Probe(keys[i])
		tt.Save(e, keys[i], int16(i), false, BoundLower, depths[i], board.NoMove, 0)
	}

	// The fourth key must evict the depth-2 entry.
	victim, found := tt.Probe(keys[3])
	if found {
		t.Fatal("unexpected hit for fresh key")
	}
	if victim.Depth() != 2 {
		t.Errorf("replacement chose depth %d, want 2", victim.Depth())
	}
	tt.Save(victim, keys[3], 3, false, BoundLower, 4, board.NoMove, 0)

	if _, found := tt.Probe(keys[1]); found {
		t.Error("evicted entry still reported as present")
	}

	// Age everything by several generations, then refresh only keys[3].
	// Eight points of depth per generation of age: the stale depth-10
	// entry must now lose to both the stale depth-15 one and the
	// refreshed shallow one.
	for i := 0; i < 4; i++ {
		tt.NewSearch()
	}
	if _, found := tt.Probe(keys[3]); !found {
		t.Fatal("refresh probe missed")
	}

	victim, found = tt.Probe(keys[4])
	if found {
		t.Fatal("unexpected hit for fresh key after aging")
	}
	if victim.Depth() != 10 {
		t.Errorf("replacement chose depth %d, want the stale depth-10 entry", victim.Depth())
	}
}

// TestGenerationWrap: the aging formula must stay stable when the 8-bit
// generation counter wraps around.
func TestGenerationWrap(t *testing.T) {
	tt := newTestTT(t, 1)

	for i := 0; i < 31; i++ { // within one 5-bit cycle
		old := tt.relativeAge(tt.generation8)
		if old != 0 {
			t.Fatalf("relative age of the current generation = %d, want 0", old)
		}
		tt.NewSearch()
	}

	// An entry one generation old stays one step old across the wrap.
	tt.generation8 = 0xF8
	gb := tt.generation8 | uint8(BoundLower)
	tt.NewSearch() // wraps to 0x00
	if age := tt.relativeAge(gb); age != 8 {
		t.Errorf("relative age across wrap = %d, want 8", age)
	}
}

// TestHashfull: empty after clear, rises with current-generation saves,
// and ignores entries from older generations.
func TestHashfull(t *testing.T) {
	tt := newTestTT(t, 1)

	if hf := tt.Hashfull(); hf != 0 {
		t.Fatalf("hashfull of a cleared table = %d", hf)
	}

	key := uint64(1)
	for i := 0; i < int(tt.clusterCount); i++ {
		key = key*6364136223846793005 + 1442695040888963407
		k := key | 1<<48 // never an empty key16
		e, _ := tt.Probe(k)
		tt.Save(e, k, 0, false, BoundLower, 1, board.NoMove, 0)
	}

	full := tt.Hashfull()
	if full == 0 {
		t.Error("hashfull still zero after filling")
	}

	tt.NewSearch()
	if after := tt.Hashfull(); after >= full {
		t.Errorf("hashfull did not drop for a new generation: %d -> %d", full, after)
	}
}

// TestParallelClear: a multi-threaded zero-fill must leave nothing behind.
func TestParallelClear(t *testing.T) {
	tt := newTestTT(t, 4)

	key := uint64(7)
	for i := 0; i < 50000; i++ {
		key = key*6364136223846793005 + 1442695040888963407
		e, _ := tt.Probe(key | 1<<48)
		tt.Save(e, key|1<<48, 1, false, BoundLower, 1, board.NoMove, 0)
	}

	tt.Clear(8)

	if hf := tt.Hashfull(); hf != 0 {
		t.Errorf("hashfull after parallel clear = %d", hf)
	}
	for i := range tt.table {
		for j := range tt.table[i].entry {
			if tt.table[i].entry[j] != (TTEntry{}) {
				t.Fatalf("cluster %d entry %d not zeroed", i, j)
			}
		}
	}
}

// TestConcurrentProbeSave hammers the table from several goroutines and
// filters every returned move the way a search would. Production access is
// racy by design; here each goroutine is confined to its own clusters so
// the test stays deterministic under the race detector too.
func TestConcurrentProbeSave(t *testing.T) {
	tt := newTestTT(t, 4)
	pos := board.NewPosition()
	legal := pos.GenerateLegalMoves()

	clusterOf := func(key uint64) uint64 {
		return uint64(uintptr(unsafe.Pointer(tt.FirstEntry(key)))-uintptr(unsafe.Pointer(&tt.table[0]))) /
			uint64(unsafe.Sizeof(Cluster{}))
	}

	const goroutines = 4
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(lane uint64) {
			defer wg.Done()
			key := lane*0x9E3779B97F4A7C15 + 1
			for i := 0; i < 20000; i++ {
				key = key*6364136223846793005 + 1442695040888963407
				if clusterOf(key)%goroutines != lane {
					continue
				}
				e, found := tt.Probe(key)
				if found {
					// A hit may carry a stale or torn move: discard it
					// exactly the way a search consumer would.
					if m := e.Move(); m != board.NoMove && !pos.PseudoLegal(m) {
						e.move16 = 0
					}
				}
				tt.Save(e, key, int16(i), false, BoundUpper, i%32, legal.Get(i%legal.Len()), 0)
			}
		}(uint64(g))
	}
	wg.Wait()
}
